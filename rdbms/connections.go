package rdbms

import (
	"database/sql"

	_ "github.com/IBM/nzgo/v12"
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/relloyd/retail-etl/logger"
	"github.com/relloyd/retail-etl/rdbms/shared"
	_ "github.com/snowflakedb/gosnowflake"
	_ "modernc.org/sqlite"
)

// GetConnectionDetails parses any supported DSN.
func GetConnectionDetails(dsn string) (shared.ConnectionDetails, error) {
	if isSnowflakeDsn(dsn) {
		return snowflakeConnectionDetails(dsn)
	}
	return shared.ParseConnectionDetails(dsn)
}

// OpenDbConnection prepares a database handle for d.
// database/sql dials lazily so no network traffic happens here; use PingContext to test the connection.
func OpenDbConnection(log logger.Logger, d shared.ConnectionDetails) (shared.Connector, error) {
	log.Debug("opening connection: ", d) // d only holds the redacted DSN in String().
	dialect, err := shared.GetDialect(d.Type)
	if err != nil {
		return nil, err
	}
	conn := &shared.HpConnection{
		DbType:  d.Type,
		Dialect: dialect,
	}
	conn.DbSql, err = sql.Open(d.Driver, d.DriverDsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
