package config

import (
	"github.com/xo/dburl"
)

// RedactDsn returns dsn with any password replaced.
// Values that dburl can't parse are hidden completely since we can't tell where the secret is.
func RedactDsn(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := dburl.Parse(dsn)
	if err != nil {
		return "<redacted>"
	}
	if u.User == nil {
		return dsn
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return dsn
	}
	return u.URL.Redacted()
}
