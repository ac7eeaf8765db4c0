package memory_test

import (
	"testing"

	"github.com/aretw0/gamesession/pkg/adapters/memory"
	"github.com/aretw0/gamesession/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	tests.SessionStoreContractTest(t, store)
}
