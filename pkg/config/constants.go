package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry fully
	// qualified names so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CIVREG_DB_DSN"
	EnvDBHost = "CIVREG_DB_HOST"
	EnvDBUser = "CIVREG_DB_USER"
	EnvDBName = "CIVREG_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
