package session

import (
	"context"
	"testing"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := domain.ReaderID(i)
		_ = mgr.Set(ctx, id, "Start")
		_, _ = mgr.Get(ctx, id)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("lock leak: %d entries remain after %d readers", n, count)
	}
}
