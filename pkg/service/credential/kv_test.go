package credential

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianorwhatever/sign-and-verify/pkg/storage"
	"github.com/brianorwhatever/sign-and-verify/pkg/testutil"
)

func TestKeyValueStore(t *testing.T) {
	ctx := context.Background()
	records, err := LoadFixtureFile(filepath.Join("testdata", "fixtures.toml"))
	require.NoError(t, err)

	for _, dbImpl := range testutil.TestDatabases {
		t.Run(dbImpl.Name, func(t *testing.T) {
			db := dbImpl.ServiceStorage(t)
			require.NoError(t, SeedRecords(ctx, db, records))
			store := NewKeyValueStore(db)
			t.Cleanup(func() { _ = store.Close() })

			handle, err := store.Open(ctx, IDCredentialType)
			require.NoError(t, err)

			record, err := handle.Query(ctx, "ada@example.com")
			require.NoError(t, err)
			require.NotNil(t, record)
			if diff := cmp.Diff(records[0].Record, *record); diff != "" {
				t.Errorf("stored record mismatch (-want +got):\n%s", diff)
			}

			missing, err := handle.Query(ctx, "grace@example.com")
			assert.NoError(t, err)
			assert.Nil(t, missing)
			assert.NoError(t, handle.Close(ctx))

			badges, err := store.Open(ctx, "Badge")
			require.NoError(t, err)
			badge, err := badges.Query(ctx, "ada@example.com")
			require.NoError(t, err)
			require.NotNil(t, badge)
			assert.Equal(t, "Analytical Engine Badge", badge.Name)
		})
	}
}

func TestKeyValueStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewStorage(storage.Memory)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, recordNamespace(IDCredentialType), "ada@example.com", []byte("{not json")))

	handle, err := NewKeyValueStore(db).Open(ctx, IDCredentialType)
	require.NoError(t, err)
	_, err = handle.Query(ctx, "ada@example.com")
	assert.ErrorContains(t, err, "could not unmarshal stored record")
}

func TestKeyValueStoreClosedStorage(t *testing.T) {
	db, err := storage.NewStorage(storage.Bolt, storage.Option{
		ID:     storage.BoltDBFilePathOption,
		Option: filepath.Join(t.TempDir(), "records.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewKeyValueStore(db).Open(context.Background(), IDCredentialType)
	assert.ErrorContains(t, err, "is not open")
}

func TestClearRecords(t *testing.T) {
	ctx := context.Background()
	records, err := LoadFixtureFile(filepath.Join("testdata", "fixtures.toml"))
	require.NoError(t, err)

	for _, dbImpl := range testutil.TestDatabases {
		t.Run(dbImpl.Name, func(t *testing.T) {
			db := dbImpl.ServiceStorage(t)

			removed, err := ClearRecords(ctx, db, IDCredentialType)
			require.NoError(t, err)
			assert.Zero(t, removed)

			require.NoError(t, SeedRecords(ctx, db, records))
			removed, err = ClearRecords(ctx, db, IDCredentialType)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			handle, err := NewKeyValueStore(db).Open(ctx, IDCredentialType)
			require.NoError(t, err)
			record, err := handle.Query(ctx, "ada@example.com")
			assert.NoError(t, err)
			assert.Nil(t, record)

			handle, err = NewKeyValueStore(db).Open(ctx, "Badge")
			require.NoError(t, err)
			record, err = handle.Query(ctx, "ada@example.com")
			assert.NoError(t, err)
			assert.NotNil(t, record)
		})
	}
}
