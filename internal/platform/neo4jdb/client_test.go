package neo4jdb

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
	"github.com/yungbote/scriptgraph/internal/platform/logger"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE", "NEO4J_TIMEOUT_SECONDS", "NEO4J_MAX_POOL_SIZE"} {
		t.Setenv(k, "")
	}
	cfg := ConfigFromEnv()
	if cfg.URI != "neo4j://localhost:7687" {
		t.Fatalf("URI: want=%q got=%q", "neo4j://localhost:7687", cfg.URI)
	}
	if cfg.User != "neo4j" || cfg.Password != "test12345" {
		t.Fatalf("auth: got user=%q", cfg.User)
	}
	if cfg.Timeout != 10*time.Second || cfg.MaxPoolSize != 50 {
		t.Fatalf("limits: timeout=%v pool=%d", cfg.Timeout, cfg.MaxPoolSize)
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("NEO4J_DATABASE", "scripts")
	t.Setenv("NEO4J_TIMEOUT_SECONDS", "3")
	t.Setenv("NEO4J_MAX_POOL_SIZE", "0")
	cfg := ConfigFromEnv()
	if cfg.URI != "bolt://graph:7687" || cfg.Database != "scripts" {
		t.Fatalf("cfg: got=%+v", cfg)
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("Timeout: want=%v got=%v", 3*time.Second, cfg.Timeout)
	}
	if cfg.MaxPoolSize != 50 {
		t.Fatalf("MaxPoolSize: want=%d got=%d", 50, cfg.MaxPoolSize)
	}
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(context.Background(), nil, Config{URI: "neo4j://localhost:7687"}); err == nil {
		t.Fatalf("New: expected error without logger")
	}
}

func TestOpenerWrapsConnectFailure(t *testing.T) {
	o := Opener{Config: Config{URI: "not-a-scheme://nowhere"}, Log: logger.NewNop()}
	_, err := o.Open(context.Background())
	if err == nil {
		t.Fatalf("Open: expected error")
	}
	if !errors.Is(err, errs.ErrGraphStore) {
		t.Fatalf("Open: want ErrGraphStore, got=%v", err)
	}
}

func TestClosedClient(t *testing.T) {
	var c *Client
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close nil: %v", err)
	}
	c = &Client{}
	if _, _, err := c.TurnText(context.Background(), "x"); !errors.Is(err, errs.ErrGraphStore) {
		t.Fatalf("TurnText: want ErrGraphStore, got=%v", err)
	}
}
