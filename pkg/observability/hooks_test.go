package observability

import (
	"context"
	"testing"
	"time"
)

type recordingStore struct {
	NoopStoreHooks
	saved []string
}

func (r *recordingStore) OnSave(_ context.Context, backend, name string, _ int, _ error) {
	r.saved = append(r.saved, backend+"/"+name)
}

type recordingEngine struct {
	NoopEngineHooks
	committed []string
}

func (r *recordingEngine) OnTransactionCommit(_ context.Context, _, op string, _ time.Duration) {
	r.committed = append(r.committed, op)
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	Engine().OnTransactionCommit(ctx, "tx", "rebalance", time.Millisecond)
	Pipeline().OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)
	Store().OnSave(ctx, "file", "physics", 10, nil)
	Cache().OnCacheHit(ctx, "layout")
	HTTP().OnResponse(ctx, "GET", "/health", 200, time.Millisecond)

	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Errorf("Engine() = %T, want NoopEngineHooks", Engine())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	t.Cleanup(Reset)
	ctx := context.Background()

	store := &recordingStore{}
	engine := &recordingEngine{}
	SetStoreHooks(store)
	SetEngineHooks(engine)

	Store().OnSave(ctx, "sqlite", "physics", 512, nil)
	Engine().OnTransactionCommit(ctx, "tx-1", "move", time.Millisecond)
	Engine().OnTransactionCommit(ctx, "tx-2", "add", time.Millisecond)

	if len(store.saved) != 1 || store.saved[0] != "sqlite/physics" {
		t.Errorf("saved = %v, want [sqlite/physics]", store.saved)
	}
	if len(engine.committed) != 2 || engine.committed[0] != "move" || engine.committed[1] != "add" {
		t.Errorf("committed = %v, want [move add]", engine.committed)
	}

	Reset()
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	t.Cleanup(Reset)

	engine := &recordingEngine{}
	SetEngineHooks(engine)
	SetEngineHooks(nil)
	SetCacheHooks(nil)

	if Engine() != engine {
		t.Error("SetEngineHooks(nil) should keep the registered hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) should keep the default")
	}
}
