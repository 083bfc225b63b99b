package mindmap

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mindmap/pkg/observability"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// DefaultExpandDepth is the number of generations [Editor.Expand] reveals
// when Options.ExpandDepth is unset.
const DefaultExpandDepth = 1

// Options configures an Editor.
type Options struct {
	// Primitive positions nodes. Nil disables layout.
	Primitive Primitive

	// Logger receives transaction logs. Nil discards them.
	Logger *log.Logger

	// ExpandDepth is the depth used by Expand. Zero means DefaultExpandDepth.
	ExpandDepth int
}

// Editor owns a mind map and applies edits to it one transaction at a time.
// It is safe for concurrent use; calls are serialized.
type Editor struct {
	mu          sync.Mutex
	nodes       []*tree.Node
	ix          *tree.Index
	prim        Primitive
	logger      *log.Logger
	expandDepth int
}

// New creates an editor over a deep copy of nodes. The collection is
// validated, weighed, balanced and laid out before New returns.
func New(ctx context.Context, nodes []*tree.Node, opts Options) (*Editor, error) {
	e := &Editor{
		prim:        opts.Primitive,
		logger:      opts.Logger,
		expandDepth: opts.ExpandDepth,
	}
	if e.prim == nil {
		e.prim = nopPrimitive{}
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.expandDepth <= 0 {
		e.expandDepth = DefaultExpandDepth
	}
	if err := e.Replace(ctx, nodes); err != nil {
		return nil, err
	}
	return e, nil
}

// txn is the private working state of one transaction.
type txn struct {
	nodes []*tree.Node
	ix    *tree.Index

	full    bool       // lay out both sides
	subtree []tree.Key // lay out these subtrees only
}

func (tx *txn) reindex() error {
	ix, err := tree.NewIndex(tx.nodes)
	if err != nil {
		return err
	}
	tx.ix = ix
	return nil
}

// rebalance recomputes weights and sides for the whole map and schedules a
// full layout.
func (tx *txn) rebalance() error {
	weights := tree.ComputeLeafWeights(tx.ix)
	dirs, err := tree.Propagate(tx.ix, tree.AssignBranches(tx.ix, weights))
	if err != nil {
		return err
	}
	tree.SetLeaves(tx.ix, weights)
	tree.SetDirections(tx.ix, dirs)
	tx.full = true
	return nil
}

// layout schedules a subtree layout, or a full one for the root.
func (tx *txn) layout(key tree.Key) {
	if key == tree.RootKey {
		tx.full = true
		return
	}
	tx.subtree = append(tx.subtree, key)
}

func (tx *txn) node(key tree.Key) (*tree.Node, error) {
	n, ok := tx.ix.Node(key)
	if !ok {
		return nil, &tree.UnknownNodeError{Key: key}
	}
	return n, nil
}

// update runs fn as one transaction. fn sees an indexed deep copy of the
// current state; the copy replaces the current state only if fn and every
// scheduled layout succeed.
func (e *Editor) update(ctx context.Context, op string, fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.NewString()
	hooks := observability.Engine()
	hooks.OnTransactionStart(ctx, id, op)
	start := time.Now()

	tx := &txn{nodes: tree.CloneNodes(e.nodes)}
	if err := e.run(ctx, tx, fn); err != nil {
		hooks.OnTransactionRollback(ctx, id, op, err)
		e.logger.Warn("transaction rolled back", "tx", id, "op", op, "err", err)
		return err
	}

	e.nodes, e.ix = tx.nodes, tx.ix
	elapsed := time.Since(start)
	hooks.OnTransactionCommit(ctx, id, op, elapsed)
	e.logger.Debug("transaction committed", "tx", id, "op", op, "nodes", len(e.nodes), "duration", elapsed)
	return nil
}

func (e *Editor) run(ctx context.Context, tx *txn, fn func(tx *txn) error) error {
	if len(tx.nodes) > 0 {
		if err := tx.reindex(); err != nil {
			return err
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return e.flush(ctx, tx)
}

// flush delivers the scheduled layouts. A full layout covers every subtree
// request, so those are dropped.
func (e *Editor) flush(ctx context.Context, tx *txn) error {
	if tx.full {
		for _, side := range []tree.Direction{tree.Right, tree.Left} {
			if err := invoke(ctx, e.prim, sidePart(tx.ix, side)); err != nil {
				return err
			}
		}
		return nil
	}
	seen := make(map[tree.Key]bool, len(tx.subtree))
	for _, k := range tx.subtree {
		if seen[k] {
			continue
		}
		seen[k] = true
		if err := invoke(ctx, e.prim, nodePart(tx.ix, k)); err != nil {
			return err
		}
	}
	return nil
}

// view runs fn against the committed state under the lock.
func (e *Editor) view(fn func(ix *tree.Index)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.ix)
}
