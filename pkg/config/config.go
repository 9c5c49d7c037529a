package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	ConflictGuard ConflictGuardConfig
	Dedup         DedupConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CIVREG_APP_ENV" required:"true"`
	Port         string `envconfig:"CIVREG_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CIVREG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CIVREG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"CIVREG_DB_DSN"`

	Host     string `envconfig:"CIVREG_DB_HOST"`
	Port     int    `envconfig:"CIVREG_DB_PORT" default:"5432"`
	User     string `envconfig:"CIVREG_DB_USER"`
	Password string `envconfig:"CIVREG_DB_PASSWORD"`
	Name     string `envconfig:"CIVREG_DB_NAME"`
	SSLMode  string `envconfig:"CIVREG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CIVREG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CIVREG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CIVREG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CIVREG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CIVREG_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CIVREG_REDIS_ADDR"`
	Password     string        `envconfig:"CIVREG_REDIS_PASSWORD"`
	DB           int           `envconfig:"CIVREG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CIVREG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CIVREG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CIVREG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CIVREG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CIVREG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"CIVREG_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CIVREG_JWT_ISSUER" required:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CIVREG_GCP_PROJECT_ID" required:"true"`
	ApplicationCredentials string `envconfig:"CIVREG_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	RecordTopic        string `envconfig:"CIVREG_PUBSUB_RECORD_TOPIC" default:"civreg-record-events"`
	RecordSubscription string `envconfig:"CIVREG_PUBSUB_RECORD_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CIVREG_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"CIVREG_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"CIVREG_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionAge   time.Duration `envconfig:"CIVREG_OUTBOX_RETENTION_AGE" default:"168h"`
}

type ConflictGuardConfig struct {
	LockTTL time.Duration `envconfig:"CIVREG_CONFLICT_LOCK_TTL" default:"30s"`
}

type DedupConfig struct {
	ScoreThreshold float64 `envconfig:"CIVREG_DEDUP_SCORE_THRESHOLD" default:"2.0"`
	FuzzyCutoff    float64 `envconfig:"CIVREG_DEDUP_FUZZY_CUTOFF" default:"0.8"`
	MaxCandidates  int     `envconfig:"CIVREG_DEDUP_MAX_CANDIDATES" default:"10"`
}

type CronConfig struct {
	DraftMaxAge time.Duration `envconfig:"CIVREG_CRON_DRAFT_MAX_AGE" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CIVREG_FEATURE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
