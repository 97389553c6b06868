package memory_test

import (
	"testing"

	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunProgressStoreContract(t, store)
}
