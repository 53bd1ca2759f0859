package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openImpls(t *testing.T) map[string]Storage {
	t.Helper()

	sq, err := OpenSQLite(context.Background(), "file:storagetest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	require.NoError(t, sq.Clear(context.Background()))

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sq,
	}
}

func TestStorage_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range openImpls(t) {
		t.Run(name, func(t *testing.T) {
			v, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			require.Nil(t, v)

			require.NoError(t, s.Set(ctx, "k", []byte("v1")))
			v, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("v1"), v)

			// upsert
			require.NoError(t, s.Set(ctx, "k", []byte("v2")))
			v, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), v)

			require.NoError(t, s.Delete(ctx, "k"))
			v, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.Nil(t, v)

			// deleting a missing key is not an error
			require.NoError(t, s.Delete(ctx, "k"))
		})
	}
}

func TestStorage_BatchOperations(t *testing.T) {
	ctx := context.Background()
	for name, s := range openImpls(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SetMany(ctx, map[string][]byte{
				"a": []byte("1"),
				"b": []byte("2"),
				"c": []byte("3"),
			})
			require.NoError(t, err)

			for k, want := range map[string]string{"a": "1", "b": "2", "c": "3"} {
				v, err := s.Get(ctx, k)
				require.NoError(t, err)
				require.Equal(t, []byte(want), v)
			}

			require.NoError(t, s.DeleteMany(ctx, "a", "b"))
			v, err := s.Get(ctx, "a")
			require.NoError(t, err)
			require.Nil(t, v)
			v, err = s.Get(ctx, "c")
			require.NoError(t, err)
			require.Equal(t, []byte("3"), v)

			require.NoError(t, s.Clear(ctx))
			v, err = s.Get(ctx, "c")
			require.NoError(t, err)
			require.Nil(t, v)
		})
	}
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	src := []byte("secret")
	require.NoError(t, s.Set(ctx, "k", src))
	src[0] = 'X'

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), v)

	// mutating the returned slice must not affect the stored value
	v[0] = 'Y'
	v2, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), v2)
}
