package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/session"
	"github.com/matzehuels/mindmap/pkg/store"
	"github.com/matzehuels/mindmap/pkg/tree"
)

const sampleModel = `{
  "class": "go.TreeModel",
  "nodeDataArray": [
    {"key": 0, "text": "Physics", "pageTitle": "Physics"},
    {"key": 1, "parent": 0, "text": "Mechanics"},
    {"key": 2, "parent": 0, "text": "Optics"},
    {"key": 3, "parent": 1, "text": "Quantum mechanics"}
  ]
}`

type testEnv struct {
	dir      string
	storeDir string
	cfgPath  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:      dir,
		storeDir: filepath.Join(dir, "maps"),
		cfgPath:  filepath.Join(dir, "config.toml"),
	}
	cfg := "[store]\nbackend = \"file\"\ndir = \"" + env.storeDir + "\"\n\n[cache]\nbackend = \"none\"\n"
	if err := os.WriteFile(env.cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (env testEnv) writeModel(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(env.dir, name)
	if err := os.WriteFile(path, []byte(sampleModel), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command and returns what it wrote to Out.
func (env testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.Out = &out
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", env.cfgPath}, args...))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (env testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

type storedNode struct {
	Key            int    `json:"key"`
	Text           string `json:"text"`
	Dir            string `json:"dir"`
	IsTreeExpanded *bool  `json:"isTreeExpanded"`
}

// stored reads name straight from the file store, bypassing any rebalance.
func (env testEnv) stored(t *testing.T, name string) map[int]storedNode {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(env.storeDir, name+".json"))
	if err != nil {
		t.Fatal(err)
	}
	var model struct {
		Nodes []storedNode `json:"nodeDataArray"`
	}
	if err := json.Unmarshal(data, &model); err != nil {
		t.Fatal(err)
	}
	out := make(map[int]storedNode, len(model.Nodes))
	for _, n := range model.Nodes {
		out[n.Key] = n
	}
	return out
}

func TestBalance_WritesFile(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")
	out := filepath.Join(env.dir, "balanced.json")

	env.mustRun(t, "balance", in, "-o", out)

	doc, err := document.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(doc.Nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(doc.Nodes))
	}
	for _, n := range doc.Nodes {
		if n.Loc == "" {
			t.Errorf("node %d has no location", n.Key)
		}
	}
}

func TestBalance_Stdout(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")

	out := env.mustRun(t, "balance", in)
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"nodeDataArray"`) {
		t.Errorf("stdout is not a tree model: %q", out)
	}
}

func TestBalance_InPlaceConflicts(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")

	if _, err := env.run(t, "balance", in, "-i", "-o", "other.json"); err == nil {
		t.Error("expected error combining --in-place and --output")
	}
}

func TestStore_PutListGetDelete(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")

	env.mustRun(t, "store", "put", "physics", in)

	list := env.mustRun(t, "store", "list")
	if !strings.Contains(list, "physics") {
		t.Errorf("list output %q does not name the map", list)
	}

	got := env.mustRun(t, "store", "get", "physics")
	doc, err := document.Unmarshal([]byte(got))
	if err != nil {
		t.Fatalf("decode get output: %v", err)
	}
	if len(doc.Nodes) != 4 {
		t.Errorf("got %d nodes, want 4", len(doc.Nodes))
	}

	env.mustRun(t, "store", "delete", "physics")
	if _, err := env.run(t, "store", "get", "physics"); err == nil {
		t.Error("expected error getting a deleted map")
	}
}

func TestStore_PutRawKeepsInput(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")

	env.mustRun(t, "store", "put", "physics", in, "--raw")

	for k, n := range env.stored(t, "physics") {
		if n.Dir != "" {
			t.Errorf("node %d: dir = %q, want none for a raw put", k, n.Dir)
		}
	}
}

func TestEdit_Commands(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")
	env.mustRun(t, "store", "put", "physics", in)

	env.mustRun(t, "expand", "physics", "1", "--depth", "0")
	if n := env.stored(t, "physics")[1]; n.IsTreeExpanded == nil || *n.IsTreeExpanded {
		t.Error("node 1 should be stored collapsed")
	}

	env.mustRun(t, "expand", "physics", "1")
	if n := env.stored(t, "physics")[1]; n.IsTreeExpanded != nil && !*n.IsTreeExpanded {
		t.Error("node 1 should be stored expanded")
	}

	env.mustRun(t, "move", "physics", "2", "left")
	if n := env.stored(t, "physics")[2]; n.Dir != string(tree.Left) {
		t.Errorf("node 2 dir = %q, want left", n.Dir)
	}

	env.mustRun(t, "add", "physics", "2", "Lenses")
	if n, ok := env.stored(t, "physics")[4]; !ok || n.Text != "Lenses" {
		t.Errorf("new node = %+v, want key 4 labeled Lenses", n)
	}

	env.mustRun(t, "rename", "physics", "4", "Geometric", "optics")
	if n := env.stored(t, "physics")[4]; n.Text != "Geometric optics" {
		t.Errorf("renamed text = %q", n.Text)
	}

	env.mustRun(t, "remove", "physics", "4")
	if _, ok := env.stored(t, "physics")[4]; ok {
		t.Error("node 4 should be removed")
	}

	env.mustRun(t, "collapse-all", "physics")
	if n := env.stored(t, "physics")[0]; n.IsTreeExpanded == nil || *n.IsTreeExpanded {
		t.Error("root should be stored collapsed")
	}
	env.mustRun(t, "expand-all", "physics")
	env.mustRun(t, "rebalance", "physics")
}

func TestEdit_Errors(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")
	env.mustRun(t, "store", "put", "physics", in)

	tests := []struct {
		name string
		args []string
	}{
		{"non-numeric key", []string{"collapse", "physics", "one"}},
		{"unknown key", []string{"collapse", "physics", "99"}},
		{"negative depth", []string{"expand", "physics", "1", "--depth", "-1"}},
		{"bad side", []string{"move", "physics", "1", "up"}},
		{"not a branch", []string{"move", "physics", "3", "right"}},
		{"remove root", []string{"remove", "physics", "0"}},
		{"missing map", []string{"collapse", "nope", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSource(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeModel(t, "physics.json")
	env.mustRun(t, "store", "put", "physics", in)

	out := env.mustRun(t, "source", "physics", "3")
	if want := "https://en.wikipedia.org/wiki/Physics#Quantum_mechanics\n"; out != want {
		t.Errorf("source = %q, want %q", out, want)
	}

	out = env.mustRun(t, "source", "physics", "3", "--section", "History")
	if want := "https://en.wikipedia.org/wiki/Physics#History\n"; out != want {
		t.Errorf("source --section = %q, want %q", out, want)
	}
}

func TestConfigCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "config")
	if !strings.Contains(out, env.storeDir) {
		t.Errorf("config output does not contain the store dir:\n%s", out)
	}
	if got := env.mustRun(t, "config", "path"); got != env.cfgPath+"\n" {
		t.Errorf("config path = %q, want %q", got, env.cfgPath)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "physics.json")
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "dot": []byte("digraph G {}")}

	paths, err := writeArtifacts(in, "", artifacts)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "physics.dot"), filepath.Join(dir, "physics.svg")}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	single := filepath.Join(dir, "out", "map.svg")
	paths, err = writeArtifacts(in, single, map[string][]byte{"svg": []byte("<svg/>")})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != single {
		t.Errorf("paths = %v, want [%s]", paths, single)
	}

	if _, err := writeArtifacts(in, "", map[string][]byte{"json": []byte("{}")}); err == nil {
		t.Error("expected error overwriting the input")
	}
}

func newBrowseTestModel(t *testing.T) browseModel {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Backend: store.BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	sessions := session.NewManager(st, session.Options{})
	doc, err := document.Unmarshal([]byte(sampleModel))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sessions.Put(ctx, "physics", doc); err != nil {
		t.Fatal(err)
	}
	m, err := newBrowseModel(ctx, sessions, "physics")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// press sends key to m and runs any resulting edit to completion.
func press(m browseModel, key string) browseModel {
	var msg tea.KeyMsg
	switch key {
	case "down", "up", "enter":
		types := map[string]tea.KeyType{"down": tea.KeyDown, "up": tea.KeyUp, "enter": tea.KeyEnter}
		msg = tea.KeyMsg{Type: types[key]}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	m = next.(browseModel)
	if cmd != nil {
		if res, ok := cmd().(editResultMsg); ok {
			next, _ = m.Update(res)
			m = next.(browseModel)
		}
	}
	return m
}

func TestBrowseModel_Outline(t *testing.T) {
	m := newBrowseTestModel(t)

	if len(m.outline.Rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(m.outline.Rows))
	}
	wantKeys := []tree.Key{0, 1, 3, 2}
	for i, k := range wantKeys {
		if m.outline.Rows[i].Key != k {
			t.Errorf("row %d key = %d, want %d", i, m.outline.Rows[i].Key, k)
		}
	}
	if m.outline.Left+m.outline.Right != 2 {
		t.Errorf("sides = %d/%d, want 2 leaves in total", m.outline.Left, m.outline.Right)
	}
	if !strings.Contains(m.View(), "Mechanics") {
		t.Error("view does not show node text")
	}
}

func TestBrowseModel_FoldAndMove(t *testing.T) {
	m := newBrowseTestModel(t)

	m = press(m, "down")
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.Cursor)
	}

	m = press(m, "enter")
	if m.err != nil {
		t.Fatalf("collapse: %v", m.err)
	}
	if len(m.outline.Rows) != 3 || m.outline.Rows[1].Expanded {
		t.Fatalf("after collapse rows = %+v", m.outline.Rows)
	}

	m = press(m, "enter")
	if len(m.outline.Rows) != 4 {
		t.Fatalf("after expand got %d rows, want 4", len(m.outline.Rows))
	}

	side := m.outline.Rows[1].Dir
	key := ">"
	if side == tree.Right {
		key = "<"
	}
	m = press(m, key)
	if m.outline.Rows[1].Dir != side.Opposite() {
		t.Errorf("branch side = %q, want %q", m.outline.Rows[1].Dir, side.Opposite())
	}

	m = press(m, "C")
	if len(m.outline.Rows) != 1 || m.Cursor != 0 {
		t.Errorf("after collapse-all rows = %d cursor = %d, want 1 and 0", len(m.outline.Rows), m.Cursor)
	}
	m = press(m, "E")
	if len(m.outline.Rows) != 4 {
		t.Errorf("after expand-all got %d rows, want 4", len(m.outline.Rows))
	}
	if m.edits != 5 {
		t.Errorf("edits = %d, want 5", m.edits)
	}
}

func TestBrowseModel_EditError(t *testing.T) {
	m := newBrowseTestModel(t)

	// Key 3 is a grandchild and cannot change sides.
	m = press(m, "down")
	m = press(m, "down")
	m = press(m, "<")
	if m.err == nil {
		t.Fatal("expected error moving a non-branch node")
	}
	if !strings.Contains(m.View(), "not a direct child") {
		t.Errorf("view does not show the error:\n%s", m.View())
	}
}
