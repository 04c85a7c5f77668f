package sco

import "strings"

// PathLink is one hop in a parsed object path. The set of variants is
// closed: NodeLink for plain property access and RelLink for a reference
// hop to another object type.
type PathLink interface {
	pathLink()
}

// NodeLink is a plain property access on an object of Type.
type NodeLink struct {
	Type string
	Prop string
}

func (NodeLink) pathLink() {}

// RelLink is a reference hop: property Prop on an object of Type points at
// an object of Target.
type RelLink struct {
	Type   string
	Prop   string
	Target string
}

func (RelLink) pathLink() {}

// ParsePath splits a full object path ("type:a.b_ref.c") into links. The
// part before the colon is the starting object type.
func ParsePath(path string) []PathLink {
	return defaultDict.ParsePath(path)
}

// ParseProp parses a property path relative to scoType.
func ParseProp(scoType, prop string) []PathLink {
	return defaultDict.ParseProp(scoType, prop)
}

// ParsePath splits a full object path into links using this dictionary's
// reference mappings.
func (d *Dictionary) ParsePath(path string) []PathLink {
	scoType, prop, found := strings.Cut(path, ":")
	if !found {
		prop = path
		scoType = ""
	}
	return d.ParseProp(scoType, prop)
}

// ParseProp parses a property path relative to scoType. A reference segment
// resolves to the first candidate target type. An unresolvable reference
// yields nil: the path cannot be followed.
func (d *Dictionary) ParseProp(scoType, prop string) []PathLink {
	if !strings.Contains(prop, "_ref.") && !strings.Contains(prop, "_refs") {
		return []PathLink{NodeLink{Type: scoType, Prop: prop}}
	}

	var links []PathLink
	prevType := scoType
	curType := scoType
	for _, part := range strings.Split(prop, ".") {
		isList := strings.HasSuffix(part, "[*]")
		if isList {
			part = strings.TrimSuffix(part, "[*]")
		}
		if !IsRef(part) {
			if isList {
				part += "[*]"
			}
			links = append(links, NodeLink{Type: prevType, Prop: part})
			prevType = part
			continue
		}
		targets := d.RefType(curType, part)
		if len(targets) == 0 {
			return nil
		}
		links = append(links, RelLink{Type: curType, Prop: part, Target: targets[0]})
		curType = targets[0]
		prevType = targets[0]
	}
	return links
}
