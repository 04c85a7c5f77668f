package sco

import "strings"

// RefMap holds extension reference mappings loaded from configuration. Keys
// are either "type:prop" for a mapping scoped to one object type, or a bare
// property name; values are ordered candidate target types.
type RefMap map[string][]string

// Dictionary resolves reference properties to their target object types,
// consulting configured extension mappings before the built-in STIX table.
// The zero value uses the built-in table only.
type Dictionary struct {
	extra RefMap
}

// NewDictionary builds a dictionary with extension mappings merged in.
func NewDictionary(extra RefMap) *Dictionary {
	return &Dictionary{extra: extra}
}

var defaultDict Dictionary

// RefType resolves with the built-in table only.
func RefType(scoType, part string) []string {
	return defaultDict.RefType(scoType, part)
}

// RefType returns the ordered candidate target types for reference property
// part on an object of scoType. The first candidate wins when a path
// resolver needs exactly one; dual-candidate results (ipv4-addr/ipv6-addr)
// drive dual-stack join planning. An empty result means the reference is
// unknown.
func (d *Dictionary) RefType(scoType, part string) []string {
	if d.extra != nil {
		if targets, ok := d.extra[scoType+":"+part]; ok {
			return targets
		}
		if targets, ok := d.extra[part]; ok {
			return targets
		}
	}
	return builtinRefType(scoType, part)
}

func builtinRefType(scoType, part string) []string {
	switch part {
	case "parent_ref":
		return []string{"process"}
	case "dst_ref", "dst_ip_ref", "src_ref", "src_ip_ref":
		return []string{"ipv4-addr", "ipv6-addr"}
	case "binary_ref", "image_ref":
		return []string{"file"}
	case "parent_directory_ref":
		return []string{"directory"}
	case "creator_user_ref":
		return []string{"user-account"}
	case "dst_os_ref", "src_os_ref", "dst_application_ref", "src_application_ref":
		return []string{"software"}
	case "ip_refs":
		return []string{"ipv4-addr", "ipv6-addr"}
	case "mac_refs":
		return []string{"mac-addr"}
	case "opened_connection_refs":
		return []string{"network-traffic"}
	case "src_payload_ref", "dst_payload_ref":
		return []string{"artifact"}
	}

	switch scoType {
	case "ipv4-addr", "ipv6-addr":
		if part == "resolves_to_refs" {
			return []string{"mac-addr"}
		}
	case "x-oca-event":
		switch part {
		case "original_ref":
			return []string{"artifact"}
		case "host_ref":
			return []string{"x-oca-asset"}
		case "url_ref":
			return []string{"url"}
		case "file_ref":
			return []string{"file"}
		case "domain_ref":
			return []string{"domain-name"}
		case "registry_ref":
			return []string{"windows-registry-key"}
		case "network_ref":
			return []string{"network-traffic"}
		case "user_ref":
			return []string{"user-account"}
		}
		if strings.Contains(part, "process") {
			return []string{"process"}
		}
	case "x-ibm-finding":
		if strings.HasSuffix(part, "_user_ref") {
			return []string{"user-account"}
		}
	case "email-message":
		switch part {
		case "from_ref", "sender_ref", "to_refs", "cc_refs", "bcc_refs":
			return []string{"email-addr"}
		}
	}
	return nil
}
