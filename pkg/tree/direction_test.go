package tree

import (
	"errors"
	"testing"
)

func TestPropagate(t *testing.T) {
	ix := sample(t)
	w := ComputeLeafWeights(ix)
	dirs, err := Propagate(ix, AssignBranches(ix, w))
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	SetDirections(ix, dirs)

	if _, ok := dirs[RootKey]; ok {
		t.Error("root must not receive a direction")
	}
	if len(dirs) != ix.Len()-1 {
		t.Errorf("painted %d nodes, want %d", len(dirs), ix.Len()-1)
	}

	// Every non-root node below a branch matches its parent.
	for _, n := range ix.Nodes() {
		p, ok := n.ParentKey()
		if !ok {
			if n.Dir != None {
				t.Errorf("root Dir = %q, want none", n.Dir)
			}
			continue
		}
		if p == RootKey {
			continue
		}
		if parent := node(t, ix, p); n.Dir != parent.Dir {
			t.Errorf("node %d Dir = %q, parent %d Dir = %q", n.Key, n.Dir, p, parent.Dir)
		}
	}
}

func TestPropagateOverwrites(t *testing.T) {
	ix := sample(t)
	for _, n := range ix.Nodes() {
		n.Dir = Right
	}
	node(t, ix, 7).Dir = Left

	dirs, err := Propagate(ix, map[Key]Direction{1: Right})
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	SetDirections(ix, dirs)

	if got := node(t, ix, 7).Dir; got != Right {
		t.Errorf("Dir(7) = %q, want right", got)
	}
	if got := node(t, ix, RootKey).Dir; got != None {
		t.Errorf("Dir(root) = %q, want none", got)
	}
	// Branches absent from the map are left alone.
	if _, ok := dirs[3]; ok {
		t.Error("branch 3 should not be painted")
	}
}

func TestPropagateRejectsNonBranch(t *testing.T) {
	ix := sample(t)
	_, err := Propagate(ix, map[Key]Direction{4: Left})

	var nb *NotBranchError
	if !errors.As(err, &nb) || nb.Key != 4 {
		t.Fatalf("err = %v, want NotBranchError{4}", err)
	}
	if !errors.Is(err, ErrUsage) {
		t.Error("NotBranchError should match ErrUsage")
	}
}

func TestPropagateDetectsRevisit(t *testing.T) {
	ix := sample(t)
	// Corrupt the adjacency after validation: 7 points back at its branch.
	ix.children[7] = []Key{1}

	_, err := Propagate(ix, map[Key]Direction{1: Left})
	var cyc *CycleDetectedError
	if !errors.As(err, &cyc) || cyc.Key != 1 {
		t.Fatalf("err = %v, want CycleDetectedError{1}", err)
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		in        string
		want      Direction
		wantAngle float64
		wantErr   bool
	}{
		{"left", Left, 180, false},
		{"right", Right, 0, false},
		{"", None, 0, false},
		{"up", None, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDirection(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirection(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if d != tt.want {
				t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, d, tt.want)
			}
			if d.Angle() != tt.wantAngle {
				t.Errorf("Angle() = %v, want %v", d.Angle(), tt.wantAngle)
			}
		})
	}

	if Left.Opposite() != Right || Right.Opposite() != Left || None.Opposite() != None {
		t.Error("Opposite mismatch")
	}
}
