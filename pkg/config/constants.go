package config

// EnvPrefix is passed to envconfig; explicit envconfig tags keep the full
// TOOLSTASH_ names in one place.
const EnvPrefix = "toolstash"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TOOLSTASH_DB_DSN"
	EnvDBHost = "TOOLSTASH_DB_HOST"
	EnvDBUser = "TOOLSTASH_DB_USER"
	EnvDBName = "TOOLSTASH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
