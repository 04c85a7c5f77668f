package storage

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"modernc.org/sqlite"
)

// The compiled pattern text calls these helpers for the operators SQL has
// no native equivalent for. Registration is process-wide; init keeps it to
// exactly once.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("in_subnet", 2, inSubnet)
	sqlite.MustRegisterDeterministicScalarFunction("match", 2, matchFunc)
	sqlite.MustRegisterDeterministicScalarFunction("match_bin", 2, matchBin)
	sqlite.MustRegisterDeterministicScalarFunction("like_bin", 2, likeBin)
}

func argText(v driver.Value) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

func boolValue(b bool) driver.Value {
	if b {
		return int64(1)
	}
	return int64(0)
}

// inSubnet implements in_subnet(value, net): CIDR containment of an
// address, or of a network's base address when value is itself a CIDR.
func inSubnet(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	value, ok1 := argText(args[0])
	netText, ok2 := argText(args[1])
	if !ok1 || !ok2 {
		return nil, nil
	}

	prefix, err := netip.ParsePrefix(netText)
	if err != nil {
		return nil, fmt.Errorf("in_subnet: %w", err)
	}

	var addr netip.Addr
	if strings.Contains(value, "/") {
		p, err := netip.ParsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("in_subnet: %w", err)
		}
		addr = p.Masked().Addr()
	} else {
		addr, err = netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("in_subnet: %w", err)
		}
	}

	return boolValue(prefix.Contains(addr)), nil
}

// matchFunc implements match(pattern, value): an RE2 match anchored at the
// start of the value.
func matchFunc(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok1 := argText(args[0])
	value, ok2 := argText(args[1])
	if !ok1 || !ok2 {
		return nil, nil
	}
	return matchAtStart(pattern, value)
}

// matchBin is match over a base64-encoded value.
func matchBin(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok1 := argText(args[0])
	encoded, ok2 := argText(args[1])
	if !ok1 || !ok2 {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("match_bin: %w", err)
	}
	return matchAtStart(pattern, string(decoded))
}

// likeBin is SQL LIKE over a base64-encoded value.
func likeBin(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	pattern, ok1 := argText(args[0])
	encoded, ok2 := argText(args[1])
	if !ok1 || !ok2 {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("like_bin: %w", err)
	}
	re, err := likeRegexp(pattern)
	if err != nil {
		return nil, fmt.Errorf("like_bin: %w", err)
	}
	return boolValue(re.MatchString(string(decoded))), nil
}

func matchAtStart(pattern, value string) (driver.Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	loc := re.FindStringIndex(value)
	return boolValue(loc != nil && loc[0] == 0), nil
}

// likeRegexp translates a SQL LIKE pattern to an anchored, case-insensitive
// regular expression. % matches any run, _ matches one character.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(`.*`)
		case '_':
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`$`)
	return regexp.Compile(sb.String())
}
