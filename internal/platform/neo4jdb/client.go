package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/scriptgraph/internal/data/graph"
	"github.com/yungbote/scriptgraph/internal/platform/envutil"
	"github.com/yungbote/scriptgraph/internal/platform/logger"
)

type Config struct {
	URI         string
	User        string
	Password    string
	Database    string
	Timeout     time.Duration
	MaxPoolSize int
}

// ConfigFromEnv defaults match the local docker-compose and CI database.
func ConfigFromEnv() Config {
	return Config{
		URI:         envutil.String("NEO4J_URI", "neo4j://localhost:7687"),
		User:        envutil.String("NEO4J_USER", "neo4j"),
		Password:    envutil.String("NEO4J_PASSWORD", "test12345"),
		Database:    envutil.String("NEO4J_DATABASE", ""),
		Timeout:     envutil.Seconds("NEO4J_TIMEOUT_SECONDS", 10*time.Second),
		MaxPoolSize: envutil.PositiveInt("NEO4J_MAX_POOL_SIZE", 50),
	}
}

// Client owns one driver. It implements graph.Store.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

var _ graph.Store = (*Client)(nil)

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("neo4jdb: logger required")
	}
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, fmt.Errorf("neo4jdb: missing URI")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = 50
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}

	log = log.With("client", "Neo4jDB")
	log.Debug("neo4j connected", "neo4j_uri", cfg.URI, "database", cfg.Database)
	return &Client{Driver: driver, Database: cfg.Database, log: log}, nil
}

// WriteTx runs fn inside one explicit transaction. Unlike ExecuteWrite the
// driver does not retry it. The session is closed on every path.
func (c *Client) WriteTx(ctx context.Context, fn func(ctx context.Context, tx graph.Tx) error) error {
	if c == nil || c.Driver == nil {
		return &graph.StoreError{Op: "write", Cause: fmt.Errorf("neo4jdb: client closed")}
	}
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			c.log.Warn("neo4j session close failed", "error", err)
		}
	}()

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return &graph.StoreError{Op: "begin", Cause: err}
	}
	if err := fn(ctx, txRunner{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			c.log.Warn("neo4j rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &graph.StoreError{Op: "commit", Cause: err}
	}
	return nil
}

func (c *Client) TurnText(ctx context.Context, id string) (string, bool, error) {
	if c == nil || c.Driver == nil {
		return "", false, &graph.StoreError{Op: string(graph.OpTurnText), Cause: fmt.Errorf("neo4jdb: client closed")}
	}
	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	st := graph.TurnText(id)
	res, err := session.Run(ctx, st.Cypher, st.Params)
	if err != nil {
		return "", false, &graph.StoreError{Op: string(st.Op), Cause: err}
	}
	recs, err := res.Collect(ctx)
	if err != nil {
		return "", false, &graph.StoreError{Op: string(st.Op), Cause: err}
	}
	if len(recs) == 0 {
		return "", false, nil
	}
	raw, _ := recs[0].Get("text")
	text, _ := raw.(string)
	return text, true, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}

type txRunner struct {
	tx neo4j.ExplicitTransaction
}

func (r txRunner) Run(ctx context.Context, st graph.Statement) (graph.Record, error) {
	res, err := r.tx.Run(ctx, st.Cypher, st.Params)
	if err != nil {
		return nil, &graph.StoreError{Op: string(st.Op), Cause: err}
	}
	recs, err := res.Collect(ctx)
	if err != nil {
		return nil, &graph.StoreError{Op: string(st.Op), Cause: err}
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return graph.Record(recs[0].AsMap()), nil
}

// Opener connects a fresh Client per unit of work.
type Opener struct {
	Config Config
	Log    *logger.Logger
}

func (o Opener) Open(ctx context.Context) (graph.Store, error) {
	c, err := New(ctx, o.Log, o.Config)
	if err != nil {
		return nil, &graph.StoreError{Op: "connect", Cause: err}
	}
	return c, nil
}
