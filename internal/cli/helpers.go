package cli

import (
	"github.com/scorchdb/scorch/internal/audit"
	"github.com/scorchdb/scorch/internal/slugs"
	"github.com/scorchdb/scorch/internal/storage"
	"github.com/scorchdb/scorch/internal/validate"
)

// openStore opens the resolved database and wires in the reference
// dictionary and audit log. Caller is responsible for calling Close().
func openStore() (*storage.Store, error) {
	var (
		s   *storage.Store
		err error
	)
	if resolvedDBPath == ":memory:" {
		s, err = storage.OpenInMemory()
	} else {
		s, err = storage.Open(resolvedDBPath)
	}
	if err != nil {
		return nil, err
	}
	s.SetDictionary(getDictionary())
	if cfg.Audit.Enabled {
		if path := cfg.AuditPath(resolvedDBPath); path != "" {
			s.SetAuditLogger(audit.New(path, true))
		}
	}
	return s, nil
}

// viewName normalizes a --as flag into a valid view identifier. Names
// that already validate pass through unchanged; anything else is
// slugified with underscores so "Suspicious IPs!" becomes
// "suspicious_ips".
func viewName(name string) (string, error) {
	if err := validate.Name(name); err == nil {
		return name, nil
	}
	slugged := slugs.ViewSlug(name)
	if err := validate.Name(slugged); err != nil {
		return "", err
	}
	return slugged, nil
}
