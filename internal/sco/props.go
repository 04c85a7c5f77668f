// Package sco carries STIX 2.x cyber-observable metadata: which properties
// are references and what they point at, the primary display property per
// object type, aggregation inference for grouped views, and an immutable
// schema snapshot threaded through path resolution.
package sco

import (
	"strings"

	"github.com/scorchdb/scorch/internal/query"
)

// IsRef reports whether a property name is a reference (single or list).
func IsRef(name string) bool {
	return strings.HasSuffix(name, "_ref") || strings.HasSuffix(name, "_refs")
}

// LastSegment returns the final dotted or type-qualified piece of a
// property path, e.g. "hashes.MD5" -> "MD5", "file:name" -> "name".
func LastSegment(prop string) string {
	if i := strings.LastIndexAny(prop, ".:"); i >= 0 {
		return prop[i+1:]
	}
	return prop
}

// PrimaryProp returns the property that best identifies an object of the
// given type. "value" is the generic catchall.
func PrimaryProp(scoType string) string {
	switch scoType {
	case "user-account":
		return "user_id"
	case "file", "mutex", "process", "software",
		"windows-registry-value-type", "x-ibm-finding":
		return "name"
	case "directory":
		return "path"
	case "autonomous-system":
		return "number"
	case "windows-registry-key":
		return "key"
	case "x509-certificate":
		return "serial_number"
	case "x-oca-asset":
		return "hostname"
	case "x-oca-event":
		return "action"
	}
	return "value"
}

// maxAliasLen is the PostgreSQL identifier limit; longer aliases are
// silently skipped rather than truncated.
const maxAliasLen = 63

// AutoAgg infers an aggregate for a column when a view gets grouped.
// Identity-like columns report ok=false and should be left out. Observation
// counters sum or span; ports and pids count distinct values; other numeric
// columns average.
func AutoAgg(scoType, prop, colType string) (query.Agg, bool) {
	switch LastSegment(prop) {
	case "x_root", "x_contained_by_ref", "type", "id":
		return query.Agg{}, false
	}

	switch prop {
	case "number_observed":
		return query.Agg{Func: "SUM", Col: prop, Alias: prop}, true
	case "first_observed", "start":
		return query.Agg{Func: "MIN", Col: prop, Alias: prop}, true
	case "last_observed", "end":
		return query.Agg{Func: "MAX", Col: prop, Alias: prop}, true
	}

	var agg query.Agg
	switch {
	case scoType == "network-traffic" && strings.HasSuffix(prop, "_port"),
		scoType == "process" && strings.HasSuffix(prop, "pid"):
		agg = query.Agg{Func: "NUNIQUE", Col: prop, Alias: "unique_" + prop}
	case isIntegerType(colType):
		agg = query.Agg{Func: "AVG", Col: prop, Alias: "mean_" + prop}
	default:
		agg = query.Agg{Func: "NUNIQUE", Col: prop, Alias: "unique_" + prop}
	}
	if len(agg.Alias) > maxAliasLen {
		return query.Agg{}, false
	}
	return agg, true
}

func isIntegerType(colType string) bool {
	switch strings.ToLower(colType) {
	case "integer", "bigint", "int":
		return true
	}
	return false
}
