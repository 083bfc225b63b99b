// Package session keeps stored mind maps open for editing.
//
// A [Manager] loads a map from a [store.Store] the first time it is touched,
// keeps its [mindmap.Editor] in memory, and writes the map back after every
// successful edit. Edits to the same map are serialized; edits to different
// maps run in parallel. Maps that have not been used for IdleTTL are dropped
// from memory by [Manager.Sweep] and reloaded on the next request.
//
//	m := session.NewManager(st, session.Options{ExpandDepth: 2})
//	doc, err := m.Edit(ctx, "physics", func(ctx context.Context, ed *mindmap.Editor) error {
//	    return ed.Expand(ctx, 4)
//	})
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/document"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/render/treelayout"
	"github.com/matzehuels/mindmap/pkg/store"
	"github.com/matzehuels/mindmap/pkg/tree"
)

// DefaultIdleTTL is how long an unused map stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// Options configures the editors a Manager opens.
type Options struct {
	Layout      treelayout.Options
	ExpandDepth int
	IdleTTL     time.Duration
	Logger      *log.Logger
}

// Manager owns the open editing sessions.
type Manager struct {
	store store.Store
	opts  Options

	mu   sync.Mutex
	open map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	dead     bool // removed by Sweep
	ed       *mindmap.Editor
	extra    *document.Document // model-level fields carried back on save
	lastUsed time.Time
}

// NewManager creates a manager backed by s.
func NewManager(s store.Store, opts Options) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Manager{store: s, opts: opts, open: make(map[string]*entry)}
}

// Store returns the backing store.
func (m *Manager) Store() store.Store { return m.store }

// entry returns the locked session for name, creating an empty slot if
// needed. The caller must unlock it.
func (m *Manager) entry(name string) *entry {
	for {
		m.mu.Lock()
		e, ok := m.open[name]
		if !ok {
			e = &entry{}
			m.open[name] = e
		}
		m.mu.Unlock()

		e.mu.Lock()
		if !e.dead {
			e.lastUsed = time.Now()
			return e
		}
		e.mu.Unlock()
	}
}

func (m *Manager) newEditor(ctx context.Context, doc *document.Document) (*mindmap.Editor, error) {
	return mindmap.New(ctx, doc.Nodes, mindmap.Options{
		Primitive:   treelayout.New(m.opts.Layout),
		Logger:      m.opts.Logger,
		ExpandDepth: m.opts.ExpandDepth,
	})
}

// load fills e from the store if it is empty. e must be locked.
func (m *Manager) load(ctx context.Context, name string, e *entry) error {
	if e.ed != nil {
		return nil
	}
	doc, err := store.LoadDocument(ctx, m.store, name)
	if err != nil {
		return err
	}
	ed, err := m.newEditor(ctx, doc)
	if err != nil {
		return err
	}
	e.ed, e.extra = ed, doc
	m.opts.Logger.Debug("opened map", "name", name, "nodes", ed.Len())
	return nil
}

func snapshot(e *entry) *document.Document {
	doc := document.New(e.ed.Snapshot())
	if e.extra != nil {
		doc.Extra = e.extra.Extra
	}
	return doc
}

// View runs fn against the open editor for name without saving.
func (m *Manager) View(ctx context.Context, name string, fn func(ed *mindmap.Editor) error) error {
	e := m.entry(name)
	defer e.mu.Unlock()
	if err := m.load(ctx, name, e); err != nil {
		return err
	}
	return fn(e.ed)
}

// Document returns the current state of name.
func (m *Manager) Document(ctx context.Context, name string) (*document.Document, error) {
	e := m.entry(name)
	defer e.mu.Unlock()
	if err := m.load(ctx, name, e); err != nil {
		return nil, err
	}
	return snapshot(e), nil
}

// Edit runs fn against the editor for name and saves the result.
//
// The editor rolls back failed transactions itself, so an error from fn
// leaves both memory and store untouched. If the save fails the in-memory
// session is dropped so that the next request reloads what the store holds.
func (m *Manager) Edit(ctx context.Context, name string, fn func(ctx context.Context, ed *mindmap.Editor) error) (*document.Document, error) {
	e := m.entry(name)
	defer e.mu.Unlock()
	if err := m.load(ctx, name, e); err != nil {
		return nil, err
	}
	if err := fn(ctx, e.ed); err != nil {
		return nil, err
	}
	doc := snapshot(e)
	if err := store.SaveDocument(ctx, m.store, name, doc); err != nil {
		e.ed = nil
		return nil, err
	}
	return doc, nil
}

// Put replaces name with doc, balancing and laying it out first.
func (m *Manager) Put(ctx context.Context, name string, doc *document.Document) (*document.Document, error) {
	e := m.entry(name)
	defer e.mu.Unlock()

	ed, err := m.newEditor(ctx, doc)
	if err != nil {
		return nil, err
	}
	prev, prevExtra := e.ed, e.extra
	e.ed, e.extra = ed, doc
	out := snapshot(e)
	if err := store.SaveDocument(ctx, m.store, name, out); err != nil {
		e.ed, e.extra = prev, prevExtra
		return nil, err
	}
	return out, nil
}

// Save stores doc under name as given, without balancing, and closes the
// open session so the next request reloads it. The tree must still be
// structurally valid.
func (m *Manager) Save(ctx context.Context, name string, doc *document.Document) error {
	if _, err := tree.NewIndex(doc.Nodes); err != nil {
		return apperrors.FromTree(err)
	}
	e := m.entry(name)
	defer e.mu.Unlock()
	if err := store.SaveDocument(ctx, m.store, name, doc); err != nil {
		return err
	}
	e.ed, e.extra = nil, nil
	return nil
}

// Delete removes name from the store and closes its session.
func (m *Manager) Delete(ctx context.Context, name string) error {
	e := m.entry(name)
	defer e.mu.Unlock()
	e.ed, e.extra = nil, nil
	return m.store.Delete(ctx, name)
}

// Open reports whether name is currently held in memory.
func (m *Manager) Open(name string) bool {
	m.mu.Lock()
	e, ok := m.open[name]
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ed != nil
}

// Sweep closes sessions idle since before now minus IdleTTL and returns how
// many it closed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.opts.IdleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for name, e := range m.open {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			delete(m.open, name)
			if e.ed != nil {
				n++
			}
			e.dead, e.ed = true, nil
		}
		e.mu.Unlock()
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.opts.Logger.Debug("closed idle maps", "count", n)
			}
		}
	}
}
