package shared

import (
	"fmt"
	"strings"

	"github.com/relloyd/retail-etl/constants"
)

// ConnectionDetails describes how to open the sink database.
type ConnectionDetails struct {
	Type      string // one of the constants.ConnectionType* values
	Driver    string // database/sql driver name
	DriverDsn string // connect string in the driver's own format
	Redacted  string // user supplied DSN without the password, safe to log
}

func (c ConnectionDetails) String() string {
	return fmt.Sprintf("type = %v; dsn = %v", c.Type, c.Redacted)
}

// ParseConnectionDetails converts a user supplied DSN into ConnectionDetails.
// Netezza DSNs use the form netezza://user/password@//host:port/dbname;
// Snowflake DSNs are handled by the caller since they need the Snowflake driver to parse.
// Everything else goes via dburl.
func ParseConnectionDetails(dsn string) (ConnectionDetails, error) {
	if strings.HasPrefix(strings.ToLower(dsn), constants.ConnectionTypeNetezza+"://") {
		return NetezzaConnectionDetails{Dsn: dsn}.Parse()
	}
	return DsnConnectionDetails{Dsn: dsn}.Parse()
}
