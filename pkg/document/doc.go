// Package document reads and writes mind maps in the GoJS TreeModel format.
//
// This is the wire format of stored maps, API payloads and the browser
// frontend:
//
//	{
//	  "class": "go.TreeModel",
//	  "nodeDataArray": [
//	    {"key": 0, "text": "Go", "loc": "0 0"},
//	    {"key": 1, "parent": 0, "text": "Concurrency", "dir": "left", "leaves": 3}
//	  ]
//	}
//
// Known node fields map onto [tree.Node]. "leaves" and "dir" are written for
// the renderer but ignored on read, since the engine recomputes them from
// parent links. "isTreeExpanded" defaults to true. Any other node or model
// field is preserved and written back unchanged.
//
// Only tree models are supported; a "go.GraphLinksModel" document is
// rejected with [ErrUnsupportedModel].
package document
