package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/observability"
)

// logHooks reports engine, store, cache and pipeline events as debug logs,
// visible with --verbose.
type logHooks struct {
	l *log.Logger
}

func registerLogHooks(l *log.Logger) {
	h := logHooks{l: l}
	observability.SetEngineHooks(h)
	observability.SetPipelineHooks(h)
	observability.SetStoreHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnTransactionStart(context.Context, string, string) {}

func (h logHooks) OnTransactionCommit(_ context.Context, id, op string, d time.Duration) {
	h.l.Debug("edit committed", "op", op, "tx", id, "took", d)
}

func (h logHooks) OnTransactionRollback(_ context.Context, id, op string, err error) {
	h.l.Debug("edit rolled back", "op", op, "tx", id, "error", err)
}

func (h logHooks) OnLayout(_ context.Context, side string, n int, d time.Duration, err error) {
	h.l.Debug("layout", "side", side, "nodes", n, "took", d, "error", err)
}

func (h logHooks) OnLoadComplete(_ context.Context, source string, n int, d time.Duration, err error) {
	h.l.Debug("loaded map", "source", source, "nodes", n, "took", d, "error", err)
}

func (h logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.l.Debug("render started", "formats", formats)
}

func (h logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.l.Debug("render finished", "formats", formats, "took", d, "error", err)
}

func (h logHooks) OnLoad(_ context.Context, backend, name string, err error) {
	h.l.Debug("store load", "backend", backend, "map", name, "error", err)
}

func (h logHooks) OnSave(_ context.Context, backend, name string, size int, err error) {
	h.l.Debug("store save", "backend", backend, "map", name, "bytes", size, "error", err)
}

func (h logHooks) OnDelete(_ context.Context, backend, name string, err error) {
	h.l.Debug("store delete", "backend", backend, "map", name, "error", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.l.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.l.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.l.Debug("cache set", "type", keyType, "bytes", size)
}

