package config

const (
	EnvPrefix = "CRAFTBUNDLE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "CRAFTBUNDLE_APP_ENV"
	EnvPort   = "CRAFTBUNDLE_APP_PORT"

	EnvDBDSN  = "CRAFTBUNDLE_DB_DSN"
	EnvDBHost = "CRAFTBUNDLE_DB_HOST"
	EnvDBUser = "CRAFTBUNDLE_DB_USER"
	EnvDBName = "CRAFTBUNDLE_DB_NAME"

	EnvRedisURL = "CRAFTBUNDLE_REDIS_URL"

	EnvJWTSecret = "CRAFTBUNDLE_JWT_SECRET"
	EnvJWTIssuer = "CRAFTBUNDLE_JWT_ISSUER"

	EnvDraftTTL       = "CRAFTBUNDLE_DRAFT_TTL"
	EnvDraftLeaseTTL  = "CRAFTBUNDLE_DRAFT_LEASE_TTL"
	EnvDraftLeaseWait = "CRAFTBUNDLE_DRAFT_LEASE_WAIT"

	EnvGCPProjectID         = "CRAFTBUNDLE_GCP_PROJECT_ID"
	EnvPubSubBundleTopic    = "CRAFTBUNDLE_PUBSUB_BUNDLE_EVENTS_TOPIC"
	EnvOutboxPollIntervalMS = "CRAFTBUNDLE_OUTBOX_PUBLISH_POLL_MS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
