package mindmap

import (
	"context"
	"fmt"

	"github.com/matzehuels/mindmap/pkg/tree"
)

// DefaultChildText labels a child added without text.
const DefaultChildText = "idea"

// RebalanceAndLayout recomputes leaf weights, branch sides and directions
// for the whole map and lays out both sides. Running it twice without an
// edit in between yields the same assignment.
func (e *Editor) RebalanceAndLayout(ctx context.Context) error {
	return e.update(ctx, "rebalance", (*txn).rebalance)
}

// LayoutSubtree lays out the visible subtree below key at its side's angle,
// with key held in place. Leaf weights are refreshed and the branch's current
// side is pushed down the subtree first. The root has no single side, so key
// 0 triggers RebalanceAndLayout.
func (e *Editor) LayoutSubtree(ctx context.Context, key tree.Key) error {
	if key == tree.RootKey {
		return e.RebalanceAndLayout(ctx)
	}
	return e.update(ctx, "layout", func(tx *txn) error {
		n, err := tx.node(key)
		if err != nil {
			return err
		}
		branch, _ := tx.ix.Branch(key)
		bn, _ := tx.ix.Node(branch)
		if bn.Dir == tree.None {
			// Never balanced; nothing to inherit from.
			return tx.rebalance()
		}
		if err := repaint(tx, branch, bn.Dir); err != nil {
			return err
		}
		tx.layout(n.Key)
		return nil
	})
}

// repaint refreshes leaf weights and pushes side through one branch.
func repaint(tx *txn, branch tree.Key, side tree.Direction) error {
	tree.SetLeaves(tx.ix, tree.ComputeLeafWeights(tx.ix))
	dirs, err := tree.Propagate(tx.ix, map[tree.Key]tree.Direction{branch: side})
	if err != nil {
		return err
	}
	tree.SetDirections(tx.ix, dirs)
	return nil
}

// SetVisibility expands key to exactly depth generations, or collapses it
// when expand is false. Sides are not rebalanced: balancing uses total leaf
// weight, which visibility does not change. See [tree.SetVisibility].
func (e *Editor) SetVisibility(ctx context.Context, key tree.Key, expand bool, depth int) error {
	return e.update(ctx, "visibility", func(tx *txn) error {
		if err := tree.SetVisibility(tx.ix, key, expand, depth); err != nil {
			return err
		}
		tx.layout(key)
		return nil
	})
}

// Expand reveals Options.ExpandDepth generations below key.
func (e *Editor) Expand(ctx context.Context, key tree.Key) error {
	return e.SetVisibility(ctx, key, true, e.expandDepth)
}

// Collapse hides every descendant of key.
func (e *Editor) Collapse(ctx context.Context, key tree.Key) error {
	return e.SetVisibility(ctx, key, false, 0)
}

// ExpandAll makes every node visible.
func (e *Editor) ExpandAll(ctx context.Context) error {
	return e.update(ctx, "expand-all", func(tx *txn) error {
		if err := tree.ExpandAll(tx.ix); err != nil {
			return err
		}
		tx.layout(tree.RootKey)
		return nil
	})
}

// CollapseAll collapses every node, leaving only the root visible.
func (e *Editor) CollapseAll(ctx context.Context) error {
	return e.update(ctx, "collapse-all", func(tx *txn) error {
		tree.CollapseAll(tx.ix)
		tx.layout(tree.RootKey)
		return nil
	})
}

// AddChild appends a new node below parent and returns its key. The child
// starts on its parent's side with the parent's brush, the parent is
// expanded so the child shows, and the map is rebalanced.
func (e *Editor) AddChild(ctx context.Context, parent tree.Key, text string) (tree.Key, error) {
	if text == "" {
		text = DefaultChildText
	}
	var key tree.Key
	err := e.update(ctx, "add", func(tx *txn) error {
		p, err := tx.node(parent)
		if err != nil {
			return err
		}
		p.Expanded = true
		key = tx.ix.NextKey()
		tx.nodes = append(tx.nodes, &tree.Node{
			Key:      key,
			Parent:   tree.Ref(parent),
			Text:     text,
			Dir:      p.Dir,
			Brush:    p.Brush,
			Expanded: true,
		})
		if err := tx.reindex(); err != nil {
			return err
		}
		return tx.rebalance()
	})
	if err != nil {
		return 0, err
	}
	return key, nil
}

// Delete removes key and its whole subtree, then rebalances. The root
// cannot be deleted.
func (e *Editor) Delete(ctx context.Context, key tree.Key) error {
	return e.update(ctx, "delete", func(tx *txn) error {
		rest, err := tx.ix.Without(key)
		if err != nil {
			return err
		}
		tx.nodes = rest
		if err := tx.reindex(); err != nil {
			return err
		}
		return tx.rebalance()
	})
}

// MoveBranch puts the branch rooted at key on side, as a drag across the
// root's vertical axis does. Only direct children of the root can move. The
// branch is repainted and laid out; other branches stay where they are until
// the next full rebalance.
func (e *Editor) MoveBranch(ctx context.Context, key tree.Key, side tree.Direction) error {
	if side != tree.Left && side != tree.Right {
		return fmt.Errorf("move node %d: invalid side %q", key, side)
	}
	return e.update(ctx, "move", func(tx *txn) error {
		if _, err := tx.node(key); err != nil {
			return err
		}
		if !tx.ix.IsBranch(key) {
			return &tree.NotBranchError{Key: key}
		}
		if err := repaint(tx, key, side); err != nil {
			return err
		}
		tx.layout(key)
		return nil
	})
}

// Drop records that key was dragged to loc. A root child is laid out again
// from its new location and switches sides when dropped across the root;
// any other node just keeps the new location. It reports whether a side
// switch happened.
func (e *Editor) Drop(ctx context.Context, key tree.Key, loc string) (bool, error) {
	x, _, err := ParseLoc(loc)
	if err != nil {
		return false, err
	}
	moved := false
	err = e.update(ctx, "drop", func(tx *txn) error {
		n, err := tx.node(key)
		if err != nil {
			return err
		}
		if key == tree.RootKey {
			return &tree.NotBranchError{Key: key}
		}
		n.Loc = loc
		if !tx.ix.IsBranch(key) {
			return nil
		}
		rootX, _, err := ParseLoc(tx.ix.Root().Loc)
		if err != nil {
			return fmt.Errorf("root location: %w", err)
		}
		if side := SideOf(rootX, x, n.Dir); side != n.Dir {
			moved = true
			if err := repaint(tx, key, side); err != nil {
				return err
			}
		}
		tx.layout(key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// SetText changes the label of key and lays out its subtree.
func (e *Editor) SetText(ctx context.Context, key tree.Key, text string) error {
	return e.update(ctx, "text", func(tx *txn) error {
		n, err := tx.node(key)
		if err != nil {
			return err
		}
		n.Text = text
		tx.layout(key)
		return nil
	})
}

// Replace swaps in a deep copy of nodes, as loading a stored or generated
// map does. Leaves and Dir from the input are ignored and recomputed.
func (e *Editor) Replace(ctx context.Context, nodes []*tree.Node) error {
	return e.update(ctx, "replace", func(tx *txn) error {
		tx.nodes = tree.CloneNodes(nodes)
		if err := tx.reindex(); err != nil {
			return err
		}
		return tx.rebalance()
	})
}
