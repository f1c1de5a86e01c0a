package shared

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/retail-etl/constants"
	"github.com/xo/dburl"
)

// driverTypes maps dburl driver names to connection types.
// The key is what dburl reports; the value holds our type and the driver name registered by the module we import.
var driverTypes = map[string]struct {
	connectionType string
	driver         string
}{
	"sqlite3":   {constants.ConnectionTypeSqlite, "sqlite"}, // modernc.org/sqlite registers "sqlite"
	"postgres":  {constants.ConnectionTypePostgres, "postgres"},
	"mysql":     {constants.ConnectionTypeMysql, "mysql"},
	"sqlserver": {constants.ConnectionTypeSqlServer, "sqlserver"},
	"mssql":     {constants.ConnectionTypeSqlServer, "sqlserver"},
}

// DsnConnectionDetails is a simple struct to hold a URL style DSN understood by dburl.
type DsnConnectionDetails struct {
	Dsn string `errorTxt:"data source name i.e. connect string" mandatory:"yes"`
}

// String returns the DSN with redacted password.
func (d DsnConnectionDetails) String() string {
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return "<unparseable DSN>"
	}
	return u.Redacted()
}

func (d DsnConnectionDetails) Parse() (ConnectionDetails, error) {
	if d.Dsn == "" { // if the Dsn is invalid...
		return ConnectionDetails{}, errors.New("DSN not found")
	}
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return ConnectionDetails{}, errors.Wrap(err, "DSN could not be parsed")
	}
	t, ok := driverTypes[u.Driver]
	if !ok {
		return ConnectionDetails{}, fmt.Errorf("unsupported database type %q", u.OriginalScheme)
	}
	driverDsn := u.DSN
	if t.connectionType == constants.ConnectionTypeSqlite && strings.HasPrefix(d.Dsn[len(u.OriginalScheme):], ":///") {
		// sqlite:///orders.db is relative and sqlite:////tmp/orders.db is absolute,
		// as in SQLAlchemy URLs.
		driverDsn = strings.TrimPrefix(driverDsn, "/")
	}
	return ConnectionDetails{
		Type:      t.connectionType,
		Driver:    t.driver,
		DriverDsn: driverDsn,
		Redacted:  u.Redacted(),
	}, nil
}
