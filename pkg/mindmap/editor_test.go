package mindmap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/mindmap/pkg/tree"
)

type call struct {
	side   tree.Direction
	angle  float64
	anchor tree.Key
	keys   []tree.Key
}

type recorder struct {
	mu       sync.Mutex
	calls    []call
	failSide tree.Direction
	failErr  error
}

func (r *recorder) Layout(_ context.Context, p Part) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil && p.Side == r.failSide {
		return r.failErr
	}
	c := call{side: p.Side, angle: p.Angle, anchor: p.Anchor.Key}
	for _, n := range p.Nodes {
		c.keys = append(c.keys, n.Key)
	}
	r.calls = append(r.calls, c)
	return nil
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// build returns nodes from (child, parent) pairs; parent -1 marks the root.
func build(pairs ...[2]int) []*tree.Node {
	out := make([]*tree.Node, len(pairs))
	for i, p := range pairs {
		n := &tree.Node{Key: tree.Key(p[0]), Text: fmt.Sprintf("n%d", p[0]), Expanded: true}
		if p[1] >= 0 {
			n.Parent = tree.Ref(tree.Key(p[1]))
		}
		out[i] = n
	}
	return out
}

// sampleMap:
//
//	0 ─┬─ 1 ─┬─ 4 ── 7
//	   │     ├─ 5
//	   │     └─ 6
//	   ├─ 2
//	   └─ 3 ── 8
func sampleMap() []*tree.Node {
	return build(
		[2]int{0, -1},
		[2]int{1, 0}, [2]int{2, 0}, [2]int{3, 0},
		[2]int{4, 1}, [2]int{5, 1}, [2]int{6, 1},
		[2]int{7, 4}, [2]int{8, 3},
	)
}

func newEditor(t *testing.T, nodes []*tree.Node) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	ed, err := New(context.Background(), nodes, Options{Primitive: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ed, rec
}

func mustNode(t *testing.T, ed *Editor, k tree.Key) *tree.Node {
	t.Helper()
	n, ok := ed.Node(k)
	if !ok {
		t.Fatalf("node %d missing", k)
	}
	return n
}

func state(nodes []*tree.Node) map[tree.Key]string {
	out := make(map[tree.Key]string, len(nodes))
	for _, n := range nodes {
		out[n.Key] = fmt.Sprintf("%s/%d/%v/%s/%s", n.Dir, n.Leaves, n.Expanded, n.Text, n.Loc)
	}
	return out
}

func TestNewBalancesTwoLeaves(t *testing.T) {
	ed, rec := newEditor(t, build([2]int{0, -1}, [2]int{1, 0}, [2]int{2, 0}))

	if d := mustNode(t, ed, 1).Dir; d != tree.Left {
		t.Errorf("Dir(A) = %q, want left", d)
	}
	if d := mustNode(t, ed, 2).Dir; d != tree.Right {
		t.Errorf("Dir(B) = %q, want right", d)
	}

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("layout calls = %d, want 2", len(calls))
	}
	want := []call{
		{side: tree.Right, angle: 0, anchor: 0, keys: []tree.Key{0, 2}},
		{side: tree.Left, angle: 180, anchor: 0, keys: []tree.Key{0, 1}},
	}
	for i, w := range want {
		got := calls[i]
		if got.side != w.side || got.angle != w.angle || got.anchor != w.anchor || !slices.Equal(got.keys, w.keys) {
			t.Errorf("call %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestNewIgnoresStoredDerivedFields(t *testing.T) {
	nodes := build([2]int{0, -1}, [2]int{1, 0}, [2]int{2, 0})
	nodes[1].Dir, nodes[1].Leaves = tree.Right, 40
	nodes[2].Dir, nodes[2].Leaves = tree.Right, 0

	ed, _ := newEditor(t, nodes)

	if n := mustNode(t, ed, 1); n.Dir != tree.Left || n.Leaves != 1 {
		t.Errorf("node 1 = %s/%d, want left/1", n.Dir, n.Leaves)
	}
	// The caller's slice is not touched.
	if nodes[1].Leaves != 40 {
		t.Error("New modified its input")
	}
}

func TestNewRejectsInvalidTree(t *testing.T) {
	_, err := New(context.Background(), build([2]int{0, -1}, [2]int{1, 9}), Options{})
	var de *tree.DanglingParentError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DanglingParentError", err)
	}
}

func TestRebalanceIdempotent(t *testing.T) {
	ed, _ := newEditor(t, sampleMap())
	ctx := context.Background()

	if err := ed.RebalanceAndLayout(ctx); err != nil {
		t.Fatal(err)
	}
	first := state(ed.Snapshot())
	if err := ed.RebalanceAndLayout(ctx); err != nil {
		t.Fatal(err)
	}
	second := state(ed.Snapshot())

	for k, v := range first {
		if second[k] != v {
			t.Errorf("node %d changed: %s → %s", k, v, second[k])
		}
	}
}

func TestDeleteSoleLeafChild(t *testing.T) {
	// 0 ── 1 ─┬─ 2 ── 3
	//         └─ 4
	// plus a second branch 5 so both sides are used.
	ed, _ := newEditor(t, build(
		[2]int{0, -1}, [2]int{1, 0}, [2]int{2, 1}, [2]int{3, 2}, [2]int{4, 1}, [2]int{5, 0},
	))
	ctx := context.Background()
	before := map[tree.Key]int{}
	for _, n := range ed.Snapshot() {
		before[n.Key] = n.Leaves
	}

	if err := ed.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := ed.RebalanceAndLayout(ctx); err != nil {
		t.Fatal(err)
	}

	x := mustNode(t, ed, 2)
	if x.Leaves != 1 {
		t.Errorf("Leaves(X) = %d, want 1", x.Leaves)
	}
	delta := before[2] - x.Leaves
	for _, k := range []tree.Key{1, 0} {
		if got, want := mustNode(t, ed, k).Leaves, before[k]-delta; got != want {
			t.Errorf("Leaves(%d) = %d, want %d", k, got, want)
		}
	}
}

func TestDeleteSubtreeLowersAncestors(t *testing.T) {
	ed, _ := newEditor(t, sampleMap())
	ctx := context.Background()

	// Removing 4 (weight 1, holding 7) then 5 leaves branch 1 with one leaf.
	if err := ed.Delete(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if err := ed.Delete(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if _, ok := ed.Node(7); ok {
		t.Error("descendant 7 should be deleted with 4")
	}
	if got := mustNode(t, ed, 1).Leaves; got != 1 {
		t.Errorf("Leaves(1) = %d, want 1", got)
	}
	if got := mustNode(t, ed, tree.RootKey).Leaves; got != 3 {
		t.Errorf("Leaves(root) = %d, want 3", got)
	}

	var nb *tree.NotBranchError
	if err := ed.Delete(ctx, tree.RootKey); !errors.As(err, &nb) {
		t.Errorf("Delete(root) err = %v, want NotBranchError", err)
	}
}

func TestFailedLayoutRollsBack(t *testing.T) {
	ed, rec := newEditor(t, sampleMap())
	ctx := context.Background()
	before := state(ed.Snapshot())
	rec.reset()

	boom := errors.New("renderer gone")
	rec.failSide, rec.failErr = tree.Left, boom

	_, err := ed.AddChild(ctx, 2, "new")
	if !errors.Is(err, boom) {
		t.Fatalf("AddChild err = %v, want %v", err, boom)
	}
	if ed.Len() != 9 {
		t.Errorf("Len() = %d after rollback, want 9", ed.Len())
	}
	after := state(ed.Snapshot())
	for k, v := range before {
		if after[k] != v {
			t.Errorf("node %d changed on rollback: %s → %s", k, v, after[k])
		}
	}
}

func TestUsageErrorsDeliverNoLayout(t *testing.T) {
	ed, rec := newEditor(t, sampleMap())
	ctx := context.Background()
	rec.reset()

	var de *tree.InvalidDepthError
	if err := ed.SetVisibility(ctx, 1, true, -2); !errors.As(err, &de) {
		t.Errorf("err = %v, want InvalidDepthError", err)
	}
	var ue *tree.UnknownNodeError
	if err := ed.SetVisibility(ctx, 99, true, 1); !errors.As(err, &ue) {
		t.Errorf("err = %v, want UnknownNodeError", err)
	}
	if err := ed.Replace(ctx, build([2]int{1, 0})); !errors.Is(err, tree.ErrIntegrity) {
		t.Errorf("Replace err = %v, want integrity error", err)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("failed calls delivered %d layouts", n)
	}
	if ed.Len() != 9 {
		t.Errorf("Len() = %d, want 9", ed.Len())
	}
}

func TestSetVisibilityLaysOutVisibleSubtree(t *testing.T) {
	ed, rec := newEditor(t, sampleMap())
	ctx := context.Background()
	rec.reset()

	if err := ed.SetVisibility(ctx, 1, true, 1); err != nil {
		t.Fatal(err)
	}
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("layout calls = %d, want 1", len(calls))
	}
	c := calls[0]
	if c.anchor != 1 || !slices.Equal(c.keys, []tree.Key{1, 4, 5, 6}) {
		t.Errorf("call = %+v, want anchor 1 with [1 4 5 6]", c)
	}
	if c.side != mustNode(t, ed, 1).Dir {
		t.Errorf("side = %q, want branch side", c.side)
	}
	if ed.Visible(7) {
		t.Error("grandchild 7 should be hidden")
	}
}

func TestFullLayoutSkipsHiddenNodes(t *testing.T) {
	ed, rec := newEditor(t, sampleMap())
	ctx := context.Background()

	if err := ed.Collapse(ctx, 1); err != nil {
		t.Fatal(err)
	}
	rec.reset()
	if err := ed.LayoutSubtree(ctx, tree.RootKey); err != nil {
		t.Fatal(err)
	}

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("layout calls = %d, want 2", len(calls))
	}
	for _, c := range calls {
		if c.anchor != tree.RootKey || c.keys[0] != tree.RootKey {
			t.Errorf("call %+v not anchored at root", c)
		}
		for _, k := range c.keys {
			if k == 4 || k == 5 || k == 6 || k == 7 {
				t.Errorf("hidden node %d passed to layout", k)
			}
		}
	}
}

func TestExpandAllAndCollapseAll(t *testing.T) {
	ed, _ := newEditor(t, sampleMap())
	ctx := context.Background()

	if err := ed.CollapseAll(ctx); err != nil {
		t.Fatal(err)
	}
	vis := ed.VisibleSet()
	if len(vis) != 9 {
		t.Fatalf("VisibleSet size = %d", len(vis))
	}
	for k, v := range vis {
		if v != (k == tree.RootKey) {
			t.Errorf("after CollapseAll visible[%d] = %v", k, v)
		}
	}

	if err := ed.ExpandAll(ctx); err != nil {
		t.Fatal(err)
	}
	for k, v := range ed.VisibleSet() {
		if !v {
			t.Errorf("after ExpandAll node %d hidden", k)
		}
	}
}

func TestExpandUsesConfiguredDepth(t *testing.T) {
	rec := &recorder{}
	ed, err := New(context.Background(), sampleMap(), Options{Primitive: rec, ExpandDepth: 2})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := ed.CollapseAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := ed.Expand(ctx, tree.RootKey); err != nil {
		t.Fatal(err)
	}
	if !ed.Visible(4) || ed.Visible(7) {
		t.Errorf("depth 2 from root: Visible(4) = %v, Visible(7) = %v", ed.Visible(4), ed.Visible(7))
	}
}

func TestAddChild(t *testing.T) {
	nodes := sampleMap()
	nodes[3].Brush = "#ff0000"
	ed, _ := newEditor(t, nodes)
	ctx := context.Background()

	if err := ed.Collapse(ctx, 3); err != nil {
		t.Fatal(err)
	}
	key, err := ed.AddChild(ctx, 3, "")
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if key != 9 {
		t.Errorf("key = %d, want 9", key)
	}

	n := mustNode(t, ed, key)
	if n.Text != DefaultChildText {
		t.Errorf("Text = %q, want %q", n.Text, DefaultChildText)
	}
	if n.Brush != "#ff0000" {
		t.Errorf("Brush = %q, want parent brush", n.Brush)
	}
	if n.Dir != mustNode(t, ed, 3).Dir {
		t.Errorf("Dir = %q, want parent side", n.Dir)
	}
	if !mustNode(t, ed, 3).Expanded || !ed.Visible(key) {
		t.Error("parent should be expanded so the new child shows")
	}
	if got := mustNode(t, ed, 3).Leaves; got != 2 {
		t.Errorf("Leaves(3) = %d, want 2", got)
	}

	var ue *tree.UnknownNodeError
	if _, err := ed.AddChild(ctx, 42, "x"); !errors.As(err, &ue) {
		t.Errorf("AddChild(42) err = %v, want UnknownNodeError", err)
	}
}

func TestMoveBranchPersistsUntilRebalance(t *testing.T) {
	ed, rec := newEditor(t, sampleMap())
	ctx := context.Background()

	orig := mustNode(t, ed, 1).Dir
	other := orig.Opposite()
	rec.reset()

	if err := ed.MoveBranch(ctx, 1, other); err != nil {
		t.Fatalf("MoveBranch: %v", err)
	}
	for _, k := range []tree.Key{1, 4, 5, 6, 7} {
		if d := mustNode(t, ed, k).Dir; d != other {
			t.Errorf("Dir(%d) = %q, want %q", k, d, other)
		}
	}
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0].anchor != 1 || calls[0].angle != other.Angle() {
		t.Errorf("calls = %+v, want one subtree layout of 1 at %v", calls, other.Angle())
	}

	// Explicit subtree layouts keep the manual side.
	if err := ed.LayoutSubtree(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if d := mustNode(t, ed, 4).Dir; d != other {
		t.Errorf("Dir(4) = %q after LayoutSubtree, want %q", d, other)
	}

	if err := ed.RebalanceAndLayout(ctx); err != nil {
		t.Fatal(err)
	}
	if d := mustNode(t, ed, 1).Dir; d != orig {
		t.Errorf("Dir(1) = %q after rebalance, want %q", d, orig)
	}
}

func TestMoveBranchErrors(t *testing.T) {
	ed, _ := newEditor(t, sampleMap())
	ctx := context.Background()

	var nb *tree.NotBranchError
	if err := ed.MoveBranch(ctx, 4, tree.Left); !errors.As(err, &nb) {
		t.Errorf("err = %v, want NotBranchError", err)
	}
	if err := ed.MoveBranch(ctx, 1, tree.None); err == nil {
		t.Error("expected error for side none")
	}
}

func TestDrop(t *testing.T) {
	nodes := sampleMap()
	nodes[0].Loc = "0 0"
	ed, _ := newEditor(t, nodes)
	ctx := context.Background()

	side := mustNode(t, ed, 2).Dir
	target := "120 15"
	if side == tree.Right {
		target = "-120 15"
	}

	moved, err := ed.Drop(ctx, 2, target)
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if !moved {
		t.Error("crossing the axis should move the branch")
	}
	if d := mustNode(t, ed, 2).Dir; d != side.Opposite() {
		t.Errorf("Dir(2) = %q, want %q", d, side.Opposite())
	}

	// Non-branch nodes only record the location.
	moved, err = ed.Drop(ctx, 7, "-500 0")
	if err != nil || moved {
		t.Errorf("Drop(7) = %v, %v, want false, nil", moved, err)
	}
	if loc := mustNode(t, ed, 7).Loc; loc != "-500 0" {
		t.Errorf("Loc(7) = %q", loc)
	}

	if _, err := ed.Drop(ctx, 2, "nowhere"); err == nil {
		t.Error("expected error for malformed location")
	}
}

func TestDropSameSide(t *testing.T) {
	nodes := sampleMap()
	nodes[0].Loc = "0 0"
	ed, rec := newEditor(t, nodes)
	ctx := context.Background()

	side := mustNode(t, ed, 1).Dir
	target := "300 40"
	if side == tree.Left {
		target = "-300 40"
	}
	rec.reset()

	moved, err := ed.Drop(ctx, 1, target)
	if err != nil || moved {
		t.Fatalf("Drop(1) = %v, %v, want false, nil", moved, err)
	}
	if d := mustNode(t, ed, 1).Dir; d != side {
		t.Errorf("Dir(1) = %q, want %q", d, side)
	}
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0].anchor != 1 || calls[0].angle != side.Angle() {
		t.Errorf("calls = %+v, want one subtree layout of 1 at %v", calls, side.Angle())
	}

	// Dropping onto the root's axis keeps the side.
	moved, err = ed.Drop(ctx, 1, "0 50")
	if err != nil || moved {
		t.Errorf("Drop(1, axis) = %v, %v, want false, nil", moved, err)
	}
	if d := mustNode(t, ed, 1).Dir; d != side {
		t.Errorf("Dir(1) after axis drop = %q, want %q", d, side)
	}
}

func TestSetText(t *testing.T) {
	ed, _ := newEditor(t, sampleMap())
	if err := ed.SetText(context.Background(), 2, "renamed"); err != nil {
		t.Fatal(err)
	}
	if got := mustNode(t, ed, 2).Text; got != "renamed" {
		t.Errorf("Text = %q", got)
	}
}

func TestResolveSourceTitle(t *testing.T) {
	nodes := sampleMap()
	nodes[0].Text = "Go (programming language)"
	nodes[1].PageTitle = "Goroutine"
	ed, _ := newEditor(t, nodes)

	if got, ok := ed.ResolveSourceTitle(7); !ok || got != "Goroutine" {
		t.Errorf("ResolveSourceTitle(7) = %q, %v", got, ok)
	}
	if got, ok := ed.ResolveSourceTitle(2); !ok || got != "Go (programming language)" {
		t.Errorf("ResolveSourceTitle(2) = %q, %v", got, ok)
	}
	if _, ok := ed.ResolveSourceTitle(99); ok {
		t.Error("unknown node should not resolve")
	}
}

func TestConcurrentEdits(t *testing.T) {
	ed, _ := newEditor(t, sampleMap())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ed.AddChild(ctx, tree.Key(i%9), ""); err != nil {
				t.Errorf("AddChild: %v", err)
			}
		}()
	}
	wg.Wait()

	if ed.Len() != 29 {
		t.Errorf("Len() = %d, want 29", ed.Len())
	}
	left, right := ed.Sums()
	if left+right != mustNode(t, ed, tree.RootKey).Leaves {
		t.Errorf("sides %d+%d do not add up to root weight", left, right)
	}
}
