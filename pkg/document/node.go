package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/mindmap/pkg/tree"
)

// nodeData is the known part of a GoJS node record.
type nodeData struct {
	Key            *tree.Key      `json:"key"`
	Parent         *tree.Key      `json:"parent,omitempty"`
	Text           string         `json:"text,omitempty"`
	Dir            tree.Direction `json:"dir,omitempty"`
	Leaves         int            `json:"leaves,omitempty"`
	Loc            string         `json:"loc,omitempty"`
	Brush          string         `json:"brush,omitempty"`
	Scale          float64        `json:"scale,omitempty"`
	PageTitle      string         `json:"pageTitle,omitempty"`
	IsTreeExpanded *bool          `json:"isTreeExpanded,omitempty"`
}

var knownFields = map[string]bool{
	"key": true, "parent": true, "text": true, "dir": true, "leaves": true,
	"loc": true, "brush": true, "scale": true, "pageTitle": true, "isTreeExpanded": true,
}

func decodeNode(raw json.RawMessage) (*tree.Node, error) {
	var nd nodeData
	if err := json.Unmarshal(raw, &nd); err != nil {
		return nil, err
	}
	if nd.Key == nil {
		return nil, fmt.Errorf("missing key")
	}

	n := &tree.Node{
		Key:       *nd.Key,
		Parent:    nd.Parent,
		Text:      nd.Text,
		Loc:       nd.Loc,
		Brush:     nd.Brush,
		Scale:     nd.Scale,
		PageTitle: nd.PageTitle,
		Expanded:  nd.IsTreeExpanded == nil || *nd.IsTreeExpanded,
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	for k, v := range all {
		if knownFields[k] {
			continue
		}
		var val any
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		if n.Meta == nil {
			n.Meta = make(tree.Metadata)
		}
		n.Meta[k] = val
	}
	return n, nil
}

func encodeNode(n *tree.Node) (json.RawMessage, error) {
	nd := nodeData{
		Key:       &n.Key,
		Parent:    n.Parent,
		Text:      n.Text,
		Dir:       n.Dir,
		Leaves:    n.Leaves,
		Loc:       n.Loc,
		Brush:     n.Brush,
		Scale:     n.Scale,
		PageTitle: n.PageTitle,
	}
	if !n.Expanded {
		nd.IsTreeExpanded = new(bool)
	}
	known, err := json.Marshal(nd)
	if err != nil {
		return nil, err
	}
	if len(n.Meta) == 0 {
		return known, nil
	}

	fields := make(map[string]json.RawMessage, len(n.Meta))
	for k, v := range n.Meta {
		if knownFields[k] {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		fields[k] = raw
	}
	if len(fields) == 0 {
		return known, nil
	}
	extra := orderedObject(fields)
	// Splice {"a":1} and {"b":2} into {"a":1,"b":2}.
	out := make([]byte, 0, len(known)+len(extra))
	out = append(out, known[:len(known)-1]...)
	out = append(out, ',')
	out = append(out, extra[1:]...)
	return out, nil
}
