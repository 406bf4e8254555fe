package app

import (
	"fmt"

	"github.com/yungbote/scriptgraph/internal/importer"
	"github.com/yungbote/scriptgraph/internal/observability"
	"github.com/yungbote/scriptgraph/internal/platform/envutil"
	"github.com/yungbote/scriptgraph/internal/platform/logger"
	"github.com/yungbote/scriptgraph/internal/platform/neo4jdb"
)

type Config struct {
	LogMode  string
	RootMode importer.RootMode
	Neo4j    neo4jdb.Config
	Otel     observability.OtelConfig

	// RedisAddr is the stream server the diff worker consumes from.
	RedisAddr string
}

type ConfigErrorCode string

const ConfigErrorInvalidRootMode ConfigErrorCode = "invalid_root_mode"

type ConfigError struct {
	Code     ConfigErrorCode
	Variable string
	Value    string
	Cause    error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid config"
	}
	return fmt.Sprintf("invalid config (code=%s var=%s value=%q): %v", e.Code, e.Variable, e.Value, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func LoadConfig(log *logger.Logger, service string) (Config, error) {
	rawMode := envutil.String("SCRIPT_IMPORT_ROOT_MODE", string(importer.RootModeNew))
	mode, err := importer.ParseRootMode(rawMode)
	if err != nil {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidRootMode, Variable: "SCRIPT_IMPORT_ROOT_MODE", Value: rawMode, Cause: err}
	}

	cfg := Config{
		LogMode:   envutil.String("LOG_MODE", "development"),
		RootMode:  mode,
		Neo4j:     neo4jdb.ConfigFromEnv(),
		Otel:      observability.OtelConfigFromEnv(service),
		RedisAddr: envutil.String("REDIS_ADDR", "localhost:6379"),
	}
	if log != nil {
		log.Debug("config loaded",
			"root_mode", cfg.RootMode,
			"neo4j_uri", cfg.Neo4j.URI,
			"neo4j_database", cfg.Neo4j.Database,
			"redis_addr", cfg.RedisAddr,
			"otel_enabled", cfg.Otel.Enabled,
		)
	}
	return cfg, nil
}
