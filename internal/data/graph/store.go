package graph

import (
	"context"
	"fmt"

	errs "github.com/yungbote/scriptgraph/internal/pkg/errors"
)

// Record is the first row a statement returned, keyed by column name. Nil when
// the statement matched nothing.
type Record map[string]any

// Tx runs statements inside one write transaction.
type Tx interface {
	Run(ctx context.Context, st Statement) (Record, error)
}

// Store is the graph store capability the importer and the diff worker consume.
type Store interface {
	// WriteTx runs fn in a single write transaction. Any error from fn rolls the
	// transaction back. The transaction is never retried.
	WriteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// TurnText returns the text of a Turn. found is false when no such Turn exists.
	TurnText(ctx context.Context, id string) (text string, found bool, err error)
	Close(ctx context.Context) error
}

// Opener acquires a Store for one unit of work. The caller owns the returned
// Store and must Close it.
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// StoreError wraps connectivity failures and rejected mutations.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "graph store failed"
	}
	if e.Cause == nil {
		return fmt.Sprintf("graph store failed (op=%s)", e.Op)
	}
	return fmt.Sprintf("graph store failed (op=%s): %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *StoreError) Is(target error) bool { return target == errs.ErrGraphStore }

// AsStoreError wraps err as a StoreError unless it already is one.
func AsStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.IsStoreError(err) {
		return err
	}
	return &StoreError{Op: op, Cause: err}
}
