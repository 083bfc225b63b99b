package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mindmap/pkg/document"
	"github.com/matzehuels/mindmap/pkg/session"
	"github.com/matzehuels/mindmap/pkg/store"
	"github.com/matzehuels/mindmap/pkg/tree"
)

const sampleModel = `{"class":"go.TreeModel","nodeDataArray":[
  {"key":0,"text":"Physics","pageTitle":"Physics"},
  {"key":1,"parent":0,"text":"Mechanics"},
  {"key":2,"parent":0,"text":"Optics"},
  {"key":3,"parent":1,"text":"Quantum mechanics"}]}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{Backend: store.BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(Options{Sessions: session.NewManager(st, session.Options{})})
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func nodes(t *testing.T, res *mcp.CallToolResult) map[tree.Key]*tree.Node {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	doc, err := document.Unmarshal([]byte(text(t, res)))
	require.NoError(t, err)
	out := make(map[tree.Key]*tree.Node)
	for _, n := range doc.Nodes {
		out[n.Key] = n
	}
	return out
}

func call(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func putSample(t *testing.T, s *Server) {
	t.Helper()
	args := PutMapArgs{Name: "physics", Model: sampleModel}
	res, err := s.putMap(context.Background(), call("put_map", args), args)
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
}

func TestNew(t *testing.T) {
	s := newTestServer(t)
	require.NotNil(t, s.MCPServer())
}

func TestBalance(t *testing.T) {
	s := newTestServer(t)
	args := BalanceArgs{Model: sampleModel, Collapse: true, Depth: 1}
	res, err := s.balance(context.Background(), call("balance", args), args)
	require.NoError(t, err)

	got := nodes(t, res)
	assert.Equal(t, tree.Left, got[1].Dir)
	assert.Equal(t, tree.Right, got[2].Dir)
	assert.True(t, got[0].Expanded)
	assert.False(t, got[1].Expanded)
}

func TestBalance_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		args BalanceArgs
		want string
	}{
		{"empty", BalanceArgs{}, "INVALID_INPUT"},
		{"not json", BalanceArgs{Model: "{"}, "INVALID_FORMAT"},
		{"negative depth", BalanceArgs{Model: sampleModel, Depth: -1}, "INVALID_DEPTH"},
		{"two roots", BalanceArgs{Model: `{"nodeDataArray":[{"key":0},{"key":1}]}`}, "INVALID_TREE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.balance(context.Background(), call("balance", tt.args), tt.args)
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.True(t, strings.HasPrefix(text(t, res), tt.want), text(t, res))
		})
	}
}

func TestStoredMapTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	putSample(t, s)

	res, err := s.listMaps(ctx, call("list_maps", nil), struct{}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"maps":["physics"]}`, text(t, res))

	vis := VisibilityArgs{Name: "physics", Key: 1, Expand: false}
	res, err = s.setVisibility(ctx, call("set_visibility", vis), vis)
	require.NoError(t, err)
	assert.False(t, nodes(t, res)[1].Expanded)

	res, err = s.expandAll(ctx, call("expand_all", NameArgs{"physics"}), NameArgs{"physics"})
	require.NoError(t, err)
	assert.True(t, nodes(t, res)[1].Expanded)

	add := AddChildArgs{Name: "physics", Parent: 2, Text: "Lenses"}
	res, err = s.addChild(ctx, call("add_child", add), add)
	require.NoError(t, err)
	var added ChildAdded
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &added))
	assert.Equal(t, 4, added.Key)
	assert.Equal(t, 1, added.Left)
	assert.Equal(t, 1, added.Right)

	move := MoveArgs{Name: "physics", Key: 2, Side: "left"}
	res, err = s.moveBranch(ctx, call("move_branch", move), move)
	require.NoError(t, err)
	got := nodes(t, res)
	assert.Equal(t, tree.Left, got[2].Dir)
	assert.Equal(t, tree.Left, got[4].Dir)

	res, err = s.rebalance(ctx, call("rebalance", NameArgs{"physics"}), NameArgs{"physics"})
	require.NoError(t, err)
	got = nodes(t, res)
	assert.NotEqual(t, got[1].Dir, got[2].Dir)

	txt := TextArgs{Name: "physics", Key: 4, Text: "Lens design"}
	res, err = s.setText(ctx, call("set_text", txt), txt)
	require.NoError(t, err)
	assert.Equal(t, "Lens design", nodes(t, res)[4].Text)

	del := NodeArgs{Name: "physics", Key: 2}
	res, err = s.deleteNode(ctx, call("delete_node", del), del)
	require.NoError(t, err)
	assert.Len(t, nodes(t, res), 3)

	res, err = s.getMap(ctx, call("get_map", NameArgs{"physics"}), NameArgs{"physics"})
	require.NoError(t, err)
	assert.Len(t, nodes(t, res), 3)
}

func TestStoredMapTools_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	putSample(t, s)

	res, err := s.getMap(ctx, call("get_map", NameArgs{"ghost"}), NameArgs{"ghost"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "MAP_NOT_FOUND")

	vis := VisibilityArgs{Name: "physics", Key: 1, Expand: true, Depth: -3}
	res, err = s.setVisibility(ctx, call("set_visibility", vis), vis)
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "INVALID_DEPTH")

	del := NodeArgs{Name: "physics", Key: 99}
	res, err = s.deleteNode(ctx, call("delete_node", del), del)
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "NODE_NOT_FOUND")

	move := MoveArgs{Name: "physics", Key: 3, Side: "right"}
	res, err = s.moveBranch(ctx, call("move_branch", move), move)
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "INVALID_INPUT")

	move.Side = "north"
	res, err = s.moveBranch(ctx, call("move_branch", move), move)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSourceLink(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	putSample(t, s)

	args := SourceArgs{Name: "physics", Key: 3}
	res, err := s.sourceLink(ctx, call("source_link", args), args)
	require.NoError(t, err)
	var link SourceLink
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &link))
	assert.Equal(t, "Physics", link.Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Physics#Quantum_mechanics", link.URL)

	args.Section = "History"
	res, err = s.sourceLink(ctx, call("source_link", args), args)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &link))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Physics#History", link.URL)
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	putSample(t, s)

	args := RenderArgs{Name: "physics", Format: "dot"}
	res, err := s.render(ctx, call("render", args), args)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "digraph G {"))

	args.Format = "png"
	res, err = s.render(ctx, call("render", args), args)
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "INVALID_FORMAT")
}
