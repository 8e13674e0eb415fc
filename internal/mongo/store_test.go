package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to DUETRACK_TEST_MONGO_URI and gives the test its
// own database. Tests skip when no server is configured.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("DUETRACK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DUETRACK_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Connect(ctx, uri, "duetrack_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, store.EnsureIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.Drop(ctx)
		_ = store.Close(ctx)
	})
	return store
}

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }
