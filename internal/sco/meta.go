package sco

import "strings"

// Data and feature types reported for a resolved property.
const (
	DtypeInt = "int"
	DtypeStr = "str"

	FtypeNumerical   = "numerical"
	FtypeCategorical = "categorical"
)

// PropMeta describes the value a property holds and how analysis should
// treat it.
type PropMeta struct {
	Dtype string
	Ftype string
}

// PathMetadata resolves the path's reference hops and classifies the
// terminal property. Unresolvable paths fall back to a categorical string.
func (d *Dictionary) PathMetadata(path string) PropMeta {
	scoType, prop, found := strings.Cut(path, ":")
	if !found {
		prop = path
		scoType = ""
	}
	return d.PropMetadata(scoType, prop)
}

func (d *Dictionary) PropMetadata(scoType, prop string) PropMeta {
	terminal := prop
	if links := d.ParseProp(scoType, prop); links != nil {
		if node, ok := links[len(links)-1].(NodeLink); ok {
			terminal = node.Prop
		}
	}
	if isNumericProp(terminal) {
		return PropMeta{Dtype: DtypeInt, Ftype: FtypeNumerical}
	}
	return PropMeta{Dtype: DtypeStr, Ftype: FtypeCategorical}
}

// isNumericProp reports whether a terminal property carries an integer
// value.
func isNumericProp(prop string) bool {
	switch prop {
	case "number_observed", "size", "number", "pid", "ppid":
		return true
	}
	return strings.HasSuffix(prop, "_count") ||
		strings.HasSuffix(prop, "_bytes") ||
		strings.HasSuffix(prop, "_size")
}
