package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/matzehuels/mindmap/pkg/tree"
)

// ClassTreeModel is the model class written to every document.
const ClassTreeModel = "go.TreeModel"

// ErrUnsupportedModel is returned for documents whose class is not a tree model.
var ErrUnsupportedModel = errors.New("unsupported model class")

// Document is a decoded mind map file.
type Document struct {
	Class string
	Nodes []*tree.Node

	// Extra holds model-level fields other than class and nodeDataArray.
	Extra map[string]json.RawMessage
}

// New wraps nodes in a tree model document.
func New(nodes []*tree.Node) *Document {
	return &Document{Class: ClassTreeModel, Nodes: nodes}
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes d as indented JSON.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes d to w.
func Write(d *Document, w io.Writer) error {
	return writeTo(d, w)
}

// WriteFile writes d to path, creating or truncating it.
func WriteFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(d, f)
}

// Unmarshal decodes a document from data.
func Unmarshal(data []byte) (*Document, error) {
	return readFrom(bytes.NewReader(data))
}

// Read decodes a document from r. The node collection is not validated;
// building a [tree.Index] does that.
func Read(r io.Reader) (*Document, error) {
	return readFrom(r)
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

const (
	fieldClass = "class"
	fieldNodes = "nodeDataArray"
)

func writeTo(d *Document, w io.Writer) error {
	model := make(map[string]json.RawMessage, len(d.Extra)+2)
	maps.Copy(model, d.Extra)

	class := d.Class
	if class == "" {
		class = ClassTreeModel
	}
	raw, err := json.Marshal(class)
	if err != nil {
		return fmt.Errorf("encode class: %w", err)
	}
	model[fieldClass] = raw

	items := make([]json.RawMessage, len(d.Nodes))
	for i, n := range d.Nodes {
		if items[i], err = encodeNode(n); err != nil {
			return fmt.Errorf("encode node %d: %w", n.Key, err)
		}
	}
	if model[fieldNodes], err = json.Marshal(items); err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(orderedObject(model, fieldClass, fieldNodes)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*Document, error) {
	var model map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&model); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	d := &Document{Class: ClassTreeModel}
	if raw, ok := model[fieldClass]; ok {
		if err := json.Unmarshal(raw, &d.Class); err != nil {
			return nil, fmt.Errorf("decode class: %w", err)
		}
		if d.Class != ClassTreeModel {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, d.Class)
		}
	}

	var items []json.RawMessage
	if raw, ok := model[fieldNodes]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", fieldNodes, err)
		}
	}
	d.Nodes = make([]*tree.Node, 0, len(items))
	for i, item := range items {
		n, err := decodeNode(item)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		d.Nodes = append(d.Nodes, n)
	}

	delete(model, fieldClass)
	delete(model, fieldNodes)
	if len(model) > 0 {
		d.Extra = model
	}
	return d, nil
}

// orderedObject renders m as a JSON object with first keys leading and the
// rest sorted.
func orderedObject(m map[string]json.RawMessage, first ...string) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(k string) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(m[k])
	}
	for _, k := range first {
		if _, ok := m[k]; ok {
			write(k)
		}
	}
	rest := slices.Sorted(maps.Keys(m))
	for _, k := range rest {
		if !slices.Contains(first, k) {
			write(k)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
