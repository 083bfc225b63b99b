package palette

import (
	"testing"

	"github.com/matzehuels/mindmap/pkg/tree"
)

func buildIndex(t *testing.T) *tree.Index {
	t.Helper()
	// 0 -> {1, 2}, 1 -> 3 -> 4
	nodes := []*tree.Node{
		{Key: 0, Text: "root", Expanded: true},
		{Key: 1, Parent: tree.Ref(0), Text: "a", Expanded: true},
		{Key: 2, Parent: tree.Ref(0), Text: "b", Expanded: true},
		{Key: 3, Parent: tree.Ref(1), Text: "c", Expanded: true},
		{Key: 4, Parent: tree.Ref(3), Text: "d", Expanded: true},
	}
	ix, err := tree.NewIndex(nodes)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func brush(t *testing.T, ix *tree.Index, k tree.Key) string {
	t.Helper()
	n, ok := ix.Node(k)
	if !ok {
		t.Fatalf("node %d missing", k)
	}
	return n.Brush
}

func TestPaint_Colors(t *testing.T) {
	ix := buildIndex(t)
	if err := Paint(ix, Options{Fade: DefaultFade}); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	if got := brush(t, ix, 0); got != RootColor {
		t.Errorf("root brush = %s, want %s", got, RootColor)
	}
	if got := brush(t, ix, 1); got != "#ff0000" {
		t.Errorf("first branch = %s, want #ff0000", got)
	}
	if got := brush(t, ix, 2); got != "#00ffff" {
		t.Errorf("second branch = %s, want #00ffff", got)
	}

	// Height 3: node 3 sits at depth 2, so it fades by 0.8*2/4 = 0.4.
	if got, want := brush(t, ix, 3), Fade(BranchColor(0, 2), 0.4).Hex(); got != want {
		t.Errorf("node 3 brush = %s, want %s", got, want)
	}
	if brush(t, ix, 4) == brush(t, ix, 3) {
		t.Error("deeper node should be lighter than its parent")
	}
}

func TestPaint_Scale(t *testing.T) {
	ix := buildIndex(t)
	if err := Paint(ix, Options{}); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	want := map[tree.Key]float64{0: 4, 1: 3, 2: 3, 3: 2, 4: 1}
	for k, w := range want {
		n, _ := ix.Node(k)
		if n.Scale != w {
			t.Errorf("node %d scale = %v, want %v", k, n.Scale, w)
		}
	}
}

func TestPaint_MaxDepth(t *testing.T) {
	ix := buildIndex(t)
	if err := Paint(ix, Options{MaxDepth: 2, Scale: 2}); err != nil {
		t.Fatalf("Paint: %v", err)
	}

	// maxDepth 2: root 2*3, depth 1 2*2, depth 2 2*1, depth 3 floored at 2*1.
	want := map[tree.Key]float64{0: 6, 1: 4, 3: 2, 4: 2}
	for k, w := range want {
		n, _ := ix.Node(k)
		if n.Scale != w {
			t.Errorf("node %d scale = %v, want %v", k, n.Scale, w)
		}
	}
}

func TestPaint_InvalidFade(t *testing.T) {
	ix := buildIndex(t)
	if err := Paint(ix, Options{Fade: 1.5}); err == nil {
		t.Error("expected error for fade > 1")
	}
}

func TestPaint_OverwritesBrush(t *testing.T) {
	ix := buildIndex(t)
	n, _ := ix.Node(2)
	n.Brush = "not a color"
	if err := Paint(ix, Options{Fade: DefaultFade}); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if got := brush(t, ix, 2); got != "#00ffff" {
		t.Errorf("repainted brush = %s, want #00ffff", got)
	}
}

func TestFade_Clamps(t *testing.T) {
	if got := Fade(BranchColor(0, 1), 1).Hex(); got != "#ffffff" {
		t.Errorf("full fade = %s, want #ffffff", got)
	}
	if got := Fade(BranchColor(0, 1), 0).Hex(); got != "#ff0000" {
		t.Errorf("no fade = %s, want #ff0000", got)
	}
}
