package stixpat

import (
	"sort"
	"strings"
)

// Summarize reports which object types and properties a pattern touches,
// for callers planning which tables to compile it against. It walks the
// same grammar as Compile with a collecting leaf action.
func Summarize(pattern string) (map[string][]string, error) {
	pat, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	props := map[string]map[string]bool{}
	collectObs(pat.Expr, props)

	out := make(map[string][]string, len(props))
	for scoType, set := range props {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		out[scoType] = names
	}
	return out, nil
}

func collectObs(expr ObsExpr, props map[string]map[string]bool) {
	switch e := expr.(type) {
	case *Obs:
		collectExpr(e.Expr, props)
	case *ObsCombo:
		collectObs(e.Left, props)
		collectObs(e.Right, props)
	}
}

func collectExpr(expr Expr, props map[string]map[string]bool) {
	switch e := expr.(type) {
	case *Comparison:
		scoType, prop, found := strings.Cut(e.Path, ":")
		if !found {
			return
		}
		if props[scoType] == nil {
			props[scoType] = map[string]bool{}
		}
		props[scoType][prop] = true
	case *BoolExpr:
		collectExpr(e.Left, props)
		collectExpr(e.Right, props)
	case *Group:
		collectExpr(e.Expr, props)
	}
}
