package tabledefinition

import (
	"fmt"
	"strings"

	"github.com/relloyd/retail-etl/constants"
)

// Mapper converts a classified column type into a database type for CREATE TABLE DDL.
type Mapper interface {
	Map(d DataType) (string, error)
}

type dataTypeLink struct {
	SourceDataType DataType
	TargetDataType string
}

// dataTypeMap implements Mapper.
type dataTypeMap struct {
	connectionType string
	mapTypes       map[DataType]string
}

func newDataTypeMapper(connectionType string, types []dataTypeLink) dataTypeMap {
	dtm := dataTypeMap{connectionType: connectionType, mapTypes: make(map[DataType]string)}
	for _, row := range types { // for each data type link...
		dtm.mapTypes[row.SourceDataType] = row.TargetDataType
	}
	return dtm
}

func (o dataTypeMap) Map(d DataType) (string, error) {
	v, ok := o.mapTypes[d]
	if !ok {
		return "", fmt.Errorf("unsupported data type %q for database type %q", d, o.connectionType)
	}
	return v, nil
}

// GetMapper returns the Mapper for the given connection type.
func GetMapper(connectionType string) (Mapper, error) {
	ct := strings.ToLower(connectionType)
	types, ok := dataTypeMappings[ct]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q for table definitions", connectionType)
	}
	return newDataTypeMapper(ct, types), nil
}

var dataTypeMappings = map[string][]dataTypeLink{
	constants.ConnectionTypeSqlite:    SqliteDataTypeMapping,
	constants.ConnectionTypePostgres:  PostgresDataTypeMapping,
	constants.ConnectionTypeMysql:     MysqlDataTypeMapping,
	constants.ConnectionTypeSqlServer: SqlServerDataTypeMapping,
	constants.ConnectionTypeSnowflake: SnowflakeDataTypeMapping,
	constants.ConnectionTypeNetezza:   NetezzaDataTypeMapping,
}

// SqliteDataTypeMapping uses names that give the expected SQLite type affinity.
// DATE has NUMERIC affinity but YYYY-MM-DD text is stored unchanged.
var SqliteDataTypeMapping = []dataTypeLink{
	{SourceDataType: DataTypeInteger, TargetDataType: "INTEGER"},
	{SourceDataType: DataTypeNumber, TargetDataType: "REAL"},
	{SourceDataType: DataTypeDate, TargetDataType: "DATE"},
	{SourceDataType: DataTypeDateTime, TargetDataType: "TIMESTAMP"},
	{SourceDataType: DataTypeBoolean, TargetDataType: "INTEGER"},
	{SourceDataType: DataTypeText, TargetDataType: "TEXT"},
}

var PostgresDataTypeMapping = []dataTypeLink{
	{SourceDataType: DataTypeInteger, TargetDataType: "bigint"},
	{SourceDataType: DataTypeNumber, TargetDataType: "double precision"},
	{SourceDataType: DataTypeDate, TargetDataType: "date"},
	{SourceDataType: DataTypeDateTime, TargetDataType: "timestamp"},
	{SourceDataType: DataTypeBoolean, TargetDataType: "boolean"},
	{SourceDataType: DataTypeText, TargetDataType: "text"},
}

var MysqlDataTypeMapping = []dataTypeLink{
	{SourceDataType: DataTypeInteger, TargetDataType: "BIGINT"},
	{SourceDataType: DataTypeNumber, TargetDataType: "DOUBLE"},
	{SourceDataType: DataTypeDate, TargetDataType: "DATE"},
	{SourceDataType: DataTypeDateTime, TargetDataType: "DATETIME"},
	{SourceDataType: DataTypeBoolean, TargetDataType: "BOOLEAN"},
	{SourceDataType: DataTypeText, TargetDataType: "TEXT"},
}

var SqlServerDataTypeMapping = []dataTypeLink{
	{SourceDataType: DataTypeInteger, TargetDataType: "BIGINT"},
	{SourceDataType: DataTypeNumber, TargetDataType: "FLOAT"},
	{SourceDataType: DataTypeDate, TargetDataType: "DATE"},
	{SourceDataType: DataTypeDateTime, TargetDataType: "DATETIME2"},
	{SourceDataType: DataTypeBoolean, TargetDataType: "BIT"},
	{SourceDataType: DataTypeText, TargetDataType: "NVARCHAR(MAX)"},
}

var SnowflakeDataTypeMapping = []dataTypeLink{
	{SourceDataType: DataTypeInteger, TargetDataType: "NUMBER(38,0)"},
	{SourceDataType: DataTypeNumber, TargetDataType: "FLOAT"},
	{SourceDataType: DataTypeDate, TargetDataType: "DATE"},
	{SourceDataType: DataTypeDateTime, TargetDataType: "TIMESTAMP_NTZ"},
	{SourceDataType: DataTypeBoolean, TargetDataType: "BOOLEAN"},
	{SourceDataType: DataTypeText, TargetDataType: "VARCHAR"},
}

var NetezzaDataTypeMapping = []dataTypeLink{
	{SourceDataType: DataTypeInteger, TargetDataType: "BIGINT"},
	{SourceDataType: DataTypeNumber, TargetDataType: "DOUBLE PRECISION"},
	{SourceDataType: DataTypeDate, TargetDataType: "DATE"},
	{SourceDataType: DataTypeDateTime, TargetDataType: "TIMESTAMP"},
	{SourceDataType: DataTypeBoolean, TargetDataType: "BOOLEAN"},
	{SourceDataType: DataTypeText, TargetDataType: "NVARCHAR(16000)"},
}
