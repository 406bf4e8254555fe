package importer

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/scriptgraph/internal/catalog"
	"github.com/yungbote/scriptgraph/internal/data/graph"
	"github.com/yungbote/scriptgraph/internal/jobid"
	"github.com/yungbote/scriptgraph/internal/script"
)

const tracerName = "github.com/yungbote/scriptgraph/internal/importer"

// RootMode decides how an import anchors its chain under the persona.
type RootMode string

const (
	// RootModeNew creates a fresh root per import, so repeated imports of one
	// persona hang independent chains off the same Persona node.
	RootModeNew RootMode = "new"
	// RootModeReuse appends every import under the persona's oldest root.
	RootModeReuse RootMode = "reuse"
)

func ParseRootMode(s string) (RootMode, error) {
	switch RootMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RootModeNew:
		return RootModeNew, nil
	case RootModeReuse:
		return RootModeReuse, nil
	default:
		return "", fmt.Errorf("unknown root mode %q (want %q or %q)", s, RootModeNew, RootModeReuse)
	}
}

// Chain is what one pipeline run wrote.
type Chain struct {
	RootID  string
	TurnIDs []string
}

// Pipeline upserts the catalog path and appends a turn chain. It runs inside a
// caller-provided transaction and never retries.
type Pipeline struct {
	RootMode RootMode
	// NewID mints root and turn ids. Defaults to jobid.NewTurnID.
	NewID func() string

	tracer trace.Tracer
}

func NewPipeline(mode RootMode) *Pipeline {
	return &Pipeline{RootMode: mode, NewID: jobid.NewTurnID, tracer: otel.Tracer(tracerName)}
}

func (p *Pipeline) Run(ctx context.Context, tx graph.Tx, c catalog.Coordinates, turns []script.Turn) (Chain, error) {
	newID := p.NewID
	if newID == nil {
		newID = jobid.NewTurnID
	}
	tracer := p.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	ctx, span := tracer.Start(ctx, "importer.pipeline", trace.WithAttributes(
		attribute.String("catalog.program", c.Program),
		attribute.Int64("catalog.module", c.Module),
		attribute.Int64("catalog.day", c.Day),
		attribute.String("catalog.persona", c.Persona),
		attribute.Int("script.turns", len(turns)),
	))
	defer span.End()

	chain, err := p.run(ctx, tx, c, turns, newID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Chain{}, err
	}
	span.SetAttributes(attribute.String("chain.root_id", chain.RootID))
	return chain, nil
}

func (p *Pipeline) run(ctx context.Context, tx graph.Tx, c catalog.Coordinates, turns []script.Turn, newID func() string) (Chain, error) {
	if _, err := exec(ctx, tx, graph.UpsertProgram(c.Program, c.ProgramKey)); err != nil {
		return Chain{}, err
	}
	if err := execMatched(ctx, tx, graph.UpsertModule(c.Program, c.Module, c.ModuleKey()), "program", c.Program); err != nil {
		return Chain{}, err
	}
	if err := execMatched(ctx, tx, graph.UpsertDay(c.Module, c.Day, c.DayKey()), "module", c.Module); err != nil {
		return Chain{}, err
	}
	if err := execMatched(ctx, tx, graph.UpsertPersona(c.Day, c.Persona, c.PersonaKey), "day", c.Day); err != nil {
		return Chain{}, err
	}

	rootStmt := graph.CreateRoot(c.Persona, newID())
	if p.RootMode == RootModeReuse {
		rootStmt = graph.ReuseRoot(c.Persona, newID())
	}
	rec, err := exec(ctx, tx, rootStmt)
	if err != nil {
		return Chain{}, err
	}
	rootID, _ := rec["id"].(string)
	if rootID == "" {
		return Chain{}, &graph.StoreError{Op: string(rootStmt.Op), Cause: fmt.Errorf("persona %q not found", c.Persona)}
	}

	chain := Chain{RootID: rootID, TurnIDs: make([]string, 0, len(turns))}
	parent := rootID
	for i, t := range turns {
		id := newID()
		if err := execMatched(ctx, tx, graph.CreateTurn(id, parent, t.Role, t.Text), "parent turn", parent); err != nil {
			return Chain{}, fmt.Errorf("turn %d: %w", i, err)
		}
		chain.TurnIDs = append(chain.TurnIDs, id)
		parent = id
	}
	return chain, nil
}

func exec(ctx context.Context, tx graph.Tx, st graph.Statement) (graph.Record, error) {
	rec, err := tx.Run(ctx, st)
	if err != nil {
		return nil, graph.AsStoreError(string(st.Op), err)
	}
	return rec, nil
}

// execMatched fails when the statement's MATCH found nothing, which inside the
// transaction means an earlier write did not land.
func execMatched(ctx context.Context, tx graph.Tx, st graph.Statement, what string, key any) error {
	rec, err := exec(ctx, tx, st)
	if err != nil {
		return err
	}
	if rec == nil {
		return &graph.StoreError{Op: string(st.Op), Cause: fmt.Errorf("%s %v not found", what, key)}
	}
	return nil
}
