package constants

// EnvVarPrefix prefixes the environment variables that override config keys.
const (
	AppName                  = "retail-etl"
	EnvVarPrefix             = "RETL"
	EnvVarDbConnection       = "DB_CONNECTION_STRING"
	EnvVarKaggleUsername     = "KAGGLE_USERNAME"
	EnvVarKaggleKey          = "KAGGLE_KEY"
	EnvVarLambdaMode         = EnvVarPrefix + "_LAMBDA"
	DefaultDataset           = "kaggle://ankitbansal06/retail-orders"
	DefaultArchiveFile       = "orders.csv.zip"
	DefaultCsvFile           = "orders.csv"
	DefaultDbConnection      = "sqlite:retail_orders.db"
	DefaultTableName         = "df_orders"
	DefaultBatchSize         = 1000
	DefaultDateColumn        = "order_date"
	DefaultDateLayout        = "2006-01-02"
	DefaultLogFile           = "etl_pipeline.log"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultS3Region          = "us-east-1"
	KaggleApiBaseUrl         = "https://www.kaggle.com/api/v1"
	ConnectionTypeSqlite     = "sqlite"
	ConnectionTypePostgres   = "postgres"
	ConnectionTypeMysql      = "mysql"
	ConnectionTypeSqlServer  = "sqlserver"
	ConnectionTypeSnowflake  = "snowflake"
	ConnectionTypeNetezza    = "netezza"
	ColumnDiscount           = "discount"
	ColumnSalePrice          = "sale_price"
	ColumnProfit             = "profit"
	ColumnListPrice          = "list_price"
	ColumnDiscountPercent    = "discount_percent"
	ColumnCostPrice          = "cost_price"
)

// DefaultNullValues are the raw cell values treated as absent.
var DefaultNullValues = []string{"Not Available", "unknown", "N/A", "NA", "", "null", "none"}

// RequiredRawColumns must exist as columns before metrics are derived.
var RequiredRawColumns = []string{ColumnListPrice, ColumnDiscountPercent, ColumnCostPrice}
