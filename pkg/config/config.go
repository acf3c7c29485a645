package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Drafts       DraftsConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Drafts.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRAFTBUNDLE_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTBUNDLE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTBUNDLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTBUNDLE_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"CRAFTBUNDLE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CRAFTBUNDLE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTBUNDLE_DB_DSN"`
	Driver string `envconfig:"CRAFTBUNDLE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTBUNDLE_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTBUNDLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTBUNDLE_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTBUNDLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTBUNDLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTBUNDLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTBUNDLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTBUNDLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTBUNDLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTBUNDLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTBUNDLE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTBUNDLE_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTBUNDLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTBUNDLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTBUNDLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTBUNDLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTBUNDLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTBUNDLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTBUNDLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"CRAFTBUNDLE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CRAFTBUNDLE_JWT_ISSUER" required:"true"`
}

type DraftsConfig struct {
	TTL       time.Duration `envconfig:"CRAFTBUNDLE_DRAFT_TTL" default:"72h"`
	LeaseTTL  time.Duration `envconfig:"CRAFTBUNDLE_DRAFT_LEASE_TTL" default:"30s"`
	LeaseWait time.Duration `envconfig:"CRAFTBUNDLE_DRAFT_LEASE_WAIT" default:"2s"`
}

func (d DraftsConfig) validate() error {
	if d.TTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvDraftTTL)
	}
	if d.LeaseTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvDraftLeaseTTL)
	}
	if d.LeaseWait < 0 {
		return fmt.Errorf("%s must not be negative", EnvDraftLeaseWait)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRAFTBUNDLE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRAFTBUNDLE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CRAFTBUNDLE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CRAFTBUNDLE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CRAFTBUNDLE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BundleEventsTopic string `envconfig:"CRAFTBUNDLE_PUBSUB_BUNDLE_EVENTS_TOPIC" default:"bundle-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CRAFTBUNDLE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CRAFTBUNDLE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CRAFTBUNDLE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
