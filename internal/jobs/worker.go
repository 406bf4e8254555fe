// Package jobs runs the diff worker: it consumes script.turn.updated events,
// diffs the new text against the turn it replaced and publishes
// script.turn.diff_reported.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/scriptgraph/internal/events"
	"github.com/yungbote/scriptgraph/internal/platform/envutil"
	"github.com/yungbote/scriptgraph/internal/platform/logger"
	"github.com/yungbote/scriptgraph/internal/realtime/bus"
)

// Differ renders the difference between two texts.
type Differ interface {
	Diff(ctx context.Context, before, after string) (html string, grade string, err error)
}

// TextSource looks up prior turn text. graph.Store satisfies it.
type TextSource interface {
	TurnText(ctx context.Context, id string) (text string, found bool, err error)
}

type WorkerConfig struct {
	InStream    string
	OutStream   string
	Group       string
	Consumer    string
	Concurrency int
	BatchSize   int64
	Block       time.Duration
	// RetryAfter is how long an entry stays unacked before a consumer claims it
	// again. Consumers also look for such entries this often.
	RetryAfter time.Duration
}

// WorkerConfigFromEnv reads REDIS_STREAM_UPDATED, REDIS_STREAM_DIFF,
// REDIS_GROUP, REDIS_CONSUMER, DIFF_WORKER_CONCURRENCY and
// DIFF_WORKER_RETRY_SECONDS. Unset values take the defaults applied by NewWorker.
func WorkerConfigFromEnv() WorkerConfig {
	return WorkerConfig{
		InStream:    envutil.String("REDIS_STREAM_UPDATED", ""),
		OutStream:   envutil.String("REDIS_STREAM_DIFF", ""),
		Group:       envutil.String("REDIS_GROUP", ""),
		Consumer:    envutil.String("REDIS_CONSUMER", ""),
		Concurrency: envutil.PositiveInt("DIFF_WORKER_CONCURRENCY", 1),
		RetryAfter:  envutil.Seconds("DIFF_WORKER_RETRY_SECONDS", 30*time.Second),
	}
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.InStream == "" {
		c.InStream = events.NameTurnUpdated
	}
	if c.OutStream == "" {
		c.OutStream = events.NameDiffReported
	}
	if c.Group == "" {
		c.Group = "diff_worker"
	}
	if c.Consumer == "" {
		c.Consumer = "diff_worker-1"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Second
	}
	if c.RetryAfter <= 0 {
		c.RetryAfter = 30 * time.Second
	}
	return c
}

type Worker struct {
	log    *logger.Logger
	stream bus.Stream
	texts  TextSource
	differ Differ
	cfg    WorkerConfig
}

func NewWorker(baseLog *logger.Logger, stream bus.Stream, texts TextSource, differ Differ, cfg WorkerConfig) *Worker {
	return &Worker{
		log:    baseLog.With("component", "DiffWorker"),
		stream: stream,
		texts:  texts,
		differ: differ,
		cfg:    cfg.withDefaults(),
	}
}

// Run consumes until ctx is cancelled. Consumers share one group, so each event
// is handled once across them.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.stream.EnsureGroup(ctx, w.cfg.InStream, w.cfg.Group); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", w.cfg.Consumer, i)
		g.Go(func() error { return w.consume(ctx, consumer) })
	}
	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Worker) consume(ctx context.Context, consumer string) error {
	var nextClaim time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !time.Now().Before(nextClaim) {
			w.reclaim(ctx, consumer)
			nextClaim = time.Now().Add(w.cfg.RetryAfter)
		}
		msgs, err := w.stream.Read(ctx, w.cfg.InStream, w.cfg.Group, consumer, w.cfg.BatchSize, w.cfg.Block)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Warn("stream read failed", "stream", w.cfg.InStream, "consumer", consumer, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		for _, m := range msgs {
			w.handle(ctx, m)
		}
	}
}

// reclaim retries entries left unacked for RetryAfter, including entries of
// consumers that went away.
func (w *Worker) reclaim(ctx context.Context, consumer string) {
	msgs, err := w.stream.Claim(ctx, w.cfg.InStream, w.cfg.Group, consumer, w.cfg.RetryAfter, w.cfg.BatchSize)
	if err != nil && ctx.Err() == nil {
		w.log.Warn("stream claim failed", "stream", w.cfg.InStream, "consumer", consumer, "error", err)
	}
	for _, m := range msgs {
		w.handle(ctx, m)
	}
}

// handle acks a message once it is processed or known to be unprocessable.
// Transient failures stay pending until reclaim picks them up again.
func (w *Worker) handle(ctx context.Context, m bus.Message) {
	log := w.log.With("message_id", m.ID)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return w.Process(ctx, m)
	}()
	switch {
	case err == nil:
	case isPoison(err):
		log.Warn("dropping malformed turn update", "error", err)
	default:
		log.Error("turn update failed, leaving pending", "error", err)
		return
	}
	if err := w.stream.Ack(ctx, w.cfg.InStream, w.cfg.Group, m.ID); err != nil {
		log.Warn("stream ack failed", "error", err)
	}
}

type poisonError struct{ err error }

func (e *poisonError) Error() string { return e.err.Error() }
func (e *poisonError) Unwrap() error { return e.err }

func isPoison(err error) bool {
	var pe *poisonError
	return errors.As(err, &pe)
}

// Process diffs one turn update and publishes the report. A missing parent turn
// diffs against empty text.
func (w *Worker) Process(ctx context.Context, m bus.Message) error {
	ev, err := events.ParseTurnUpdated(m.Values)
	if err != nil {
		return &poisonError{err: err}
	}

	before := ""
	if ev.ParentID != "" {
		text, found, err := w.texts.TurnText(ctx, ev.ParentID)
		if err != nil {
			return fmt.Errorf("load parent turn %s: %w", ev.ParentID, err)
		}
		if !found {
			w.log.Debug("parent turn not found, diffing against empty text", "parent_id", ev.ParentID)
		}
		before = text
	}

	html, grade, err := w.differ.Diff(ctx, before, ev.Text)
	if err != nil {
		return fmt.Errorf("diff turn %s: %w", ev.ID, err)
	}

	report := events.DiffReported{
		ID:        ev.ID,
		ParentID:  ev.ParentID,
		PersonaID: ev.PersonaID,
		DiffHTML:  html,
		Grade:     grade,
	}
	if _, err := w.stream.Publish(ctx, w.cfg.OutStream, report.Values()); err != nil {
		return err
	}
	w.log.Debug("diff reported", "turn_id", ev.ID, "persona_id", ev.PersonaID, "editor", ev.Editor)
	return nil
}
