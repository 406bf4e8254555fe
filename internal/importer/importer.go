// Package importer persists exported conversational scripts into the graph as a
// Program/Module/Day/Persona catalog path rooting a linear chain of Turn nodes.
//
// All input validation happens before the store is touched. The catalog upserts
// and the chain are then written in one transaction, so a failed import leaves
// nothing behind.
package importer

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/scriptgraph/internal/catalog"
	"github.com/yungbote/scriptgraph/internal/data/graph"
	"github.com/yungbote/scriptgraph/internal/jobid"
	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
	"github.com/yungbote/scriptgraph/internal/script"
)

type Importer struct {
	opener   graph.Opener
	parser   catalog.Parser
	pipeline *Pipeline
	newJobID jobid.Generator
	tracer   trace.Tracer
}

type Option func(*Importer)

func WithRootMode(mode RootMode) Option {
	return func(im *Importer) { im.pipeline.RootMode = mode }
}

func WithJobIDs(gen jobid.Generator) Option {
	return func(im *Importer) { im.newJobID = gen }
}

func WithTurnIDs(gen func() string) Option {
	return func(im *Importer) { im.pipeline.NewID = gen }
}

func WithOrderingKey(key catalog.KeyFunc) Option {
	return func(im *Importer) { im.parser.Key = key }
}

func New(opener graph.Opener, opts ...Option) *Importer {
	im := &Importer{
		opener:   opener,
		pipeline: NewPipeline(RootModeNew),
		newJobID: jobid.New,
		tracer:   otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Plan is a validated import that has not been written yet.
type Plan struct {
	Path   string
	Coords catalog.Coordinates
	Turns  []script.Turn
}

// PlanFile validates the path, then reads and validates the script. The path is
// checked before the file is opened.
func (im *Importer) PlanFile(path string) (Plan, error) {
	coords, err := im.parser.Parse(path)
	if err != nil {
		return Plan{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: read script %q: %w", errs.ErrInvalidArgument, path, err)
	}
	turns, err := script.Parse(data)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Path: path, Coords: coords, Turns: turns}, nil
}

// Plan validates a script already in memory against the catalog coordinates in path.
func (im *Importer) Plan(path string, data []byte) (Plan, error) {
	coords, err := im.parser.Parse(path)
	if err != nil {
		return Plan{}, err
	}
	turns, err := script.Parse(data)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Path: path, Coords: coords, Turns: turns}, nil
}

// ImportFile imports the script at path and returns the job id.
func (im *Importer) ImportFile(ctx context.Context, path string) (string, error) {
	plan, err := im.PlanFile(path)
	if err != nil {
		return "", err
	}
	jobID, _, err := im.Execute(ctx, plan)
	return jobID, err
}

// Import imports an in-memory script whose catalog coordinates come from path.
func (im *Importer) Import(ctx context.Context, path string, data []byte) (string, error) {
	plan, err := im.Plan(path, data)
	if err != nil {
		return "", err
	}
	jobID, _, err := im.Execute(ctx, plan)
	return jobID, err
}

// Execute writes a validated plan. The job id is minted before any mutation and
// is only returned when the write committed. The store is opened for this call
// and closed on every path.
func (im *Importer) Execute(ctx context.Context, plan Plan) (string, Chain, error) {
	jobID, err := im.newJobID()
	if err != nil {
		return "", Chain{}, err
	}

	ctx, span := im.tracer.Start(ctx, "importer.execute", trace.WithAttributes(
		attribute.String("import.job_id", jobID),
		attribute.String("import.path", plan.Path),
	))
	defer span.End()

	chain, err := im.write(ctx, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", Chain{}, err
	}
	return jobID, chain, nil
}

func (im *Importer) write(ctx context.Context, plan Plan) (Chain, error) {
	store, err := im.opener.Open(ctx)
	if err != nil {
		return Chain{}, graph.AsStoreError("connect", err)
	}
	// Close errors are ignored: by then the write has committed or rolled back.
	defer store.Close(ctx)

	var chain Chain
	err = store.WriteTx(ctx, func(ctx context.Context, tx graph.Tx) error {
		c, runErr := im.pipeline.Run(ctx, tx, plan.Coords, plan.Turns)
		if runErr != nil {
			return runErr
		}
		chain = c
		return nil
	})
	if err != nil {
		return Chain{}, graph.AsStoreError("write", err)
	}
	return chain, nil
}
