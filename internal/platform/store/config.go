package store

import (
	"time"

	"trendflow/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG   PGConfig
	CH   CHConfig
	NATS NATSConfig
	RDS  RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
	Migrate     bool

	// boot knobs
	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	ClientName string
	ClientTag  string
}

// NATSConfig configures nats connectivity
type NATSConfig struct {
	Enabled bool
	URL     string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled bool
	URL     string
}

// ConfigFromEnv reads the SERVICE_* prefixes shared by every binary
// role tags the connection in pg application_name and ch client info
func ConfigFromEnv(root config.Conf, role string) Config {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	rdsCfg := root.Prefix("SERVICE_REDIS_")
	natsCfg := root.Prefix("SERVICE_NATS_")

	return Config{
		AppName: "trendflow-" + role,
		PG: PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			Migrate:     pgCfg.MayBool("MIGRATE", true),
		},
		CH: CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "trendflow",
			ClientTag:  role,
		},
		RDS: RedisConfig{
			Enabled: rdsCfg.MayBool("ENABLED", false),
			URL:     rdsCfg.MayString("URL", "redis://localhost:6379/0"),
		},
		NATS: NATSConfig{
			Enabled: natsCfg.MayBool("ENABLED", false),
			URL:     natsCfg.MayString("URL", "nats://localhost:4222"),
		},
	}
}
