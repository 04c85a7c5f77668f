// Package slugs normalizes user-supplied view names into valid SQL
// identifiers. Names are slugified with gosimple/slug and the dashes
// folded to underscores, matching the underscore convention the
// metadata tables use.
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// ViewSlug converts a display name to a view identifier.
// "Suspicious IPs!" becomes "suspicious_ips".
func ViewSlug(name string) string {
	return strings.ReplaceAll(goslug.Make(name), "-", "_")
}
