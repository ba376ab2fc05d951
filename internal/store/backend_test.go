package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remaimber-it/quizrunner/internal/store"
)

// exerciseBackend runs the behaviour every Backend must share.
func exerciseBackend(t *testing.T, b store.Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, b.Set(ctx, "quizState_demo_full", `{"currentIndex":0}`))
	require.NoError(t, b.Set(ctx, "quizState_demo_t1", `{"currentIndex":1}`))
	require.NoError(t, b.Set(ctx, "quizResults", `[]`))

	v, err := b.Get(ctx, "quizState_demo_t1")
	require.NoError(t, err)
	assert.Equal(t, `{"currentIndex":1}`, v)

	require.NoError(t, b.Set(ctx, "quizState_demo_t1", `{"currentIndex":2}`))
	v, err = b.Get(ctx, "quizState_demo_t1")
	require.NoError(t, err)
	assert.Equal(t, `{"currentIndex":2}`, v)

	keys, err := b.Keys(ctx, "quizState_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"quizState_demo_full", "quizState_demo_t1"}, keys)

	require.NoError(t, b.Delete(ctx, "quizState_demo_full"))
	require.NoError(t, b.Delete(ctx, "quizState_demo_full"))
	_, err = b.Get(ctx, "quizState_demo_full")
	assert.ErrorIs(t, err, store.ErrNotFound)

	keys, err = b.Keys(ctx, "quizState_")
	require.NoError(t, err)
	assert.Equal(t, []string{"quizState_demo_t1"}, keys)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, store.NewMemory())
}

func TestSQLiteBackend(t *testing.T) {
	b, err := store.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.db")
	ctx := context.Background()

	b, err := store.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, b.Set(ctx, "selectedCourseId_v2", `"demo"`))
	require.NoError(t, b.Close())

	b, err = store.NewSQLite(path)
	require.NoError(t, err)
	defer b.Close()

	v, err := b.Get(ctx, "selectedCourseId_v2")
	require.NoError(t, err)
	assert.Equal(t, `"demo"`, v)
}

func TestSQLiteBackend_KeysPrefixIsLiteral(t *testing.T) {
	b, err := store.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "quizState_a%", "1"))
	require.NoError(t, b.Set(ctx, "quizState_ab", "2"))

	keys, err := b.Keys(ctx, "quizState_a%")
	require.NoError(t, err)
	assert.Equal(t, []string{"quizState_a%"}, keys)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("QUIZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("QUIZ_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	b, err := store.NewRedis(ctx, store.RedisOptions{
		Addr:      addr,
		Namespace: "quizrunner-test-" + strconv.Itoa(os.Getpid()) + ":",
	})
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
	require.NoError(t, b.Delete(ctx, "quizState_demo_t1"))
	require.NoError(t, b.Delete(ctx, "quizResults"))
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("QUIZ_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QUIZ_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	b, err := store.NewPostgres(ctx, store.PostgresOptions{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	defer b.Close()

	for _, k := range []string{"quizState_demo_full", "quizState_demo_t1", "quizResults"} {
		require.NoError(t, b.Delete(ctx, k))
	}
	exerciseBackend(t, b)
}
