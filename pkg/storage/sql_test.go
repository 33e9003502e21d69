package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessSQLOptions(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantConn   string
		wantDriver string
		wantErr    string
	}{
		{
			name:       "defaults to postgres driver",
			opts:       []Option{{ID: SQLConnectionString, Option: "postgres://localhost/records"}},
			wantConn:   "postgres://localhost/records",
			wantDriver: "postgres",
		},
		{
			name: "explicit driver",
			opts: []Option{
				{ID: SQLConnectionString, Option: "postgres://localhost/records"},
				{ID: SQLDriverName, Option: "pgx"},
			},
			wantConn:   "postgres://localhost/records",
			wantDriver: "pgx",
		},
		{
			name:    "missing connection string",
			opts:    nil,
			wantErr: "connection string must not be empty",
		},
		{
			name:    "connection string of wrong type",
			opts:    []Option{{ID: SQLConnectionString, Option: 42}},
			wantErr: "must be a string",
		},
		{
			name: "empty driver",
			opts: []Option{
				{ID: SQLConnectionString, Option: "postgres://localhost/records"},
				{ID: SQLDriverName, Option: ""},
			},
			wantErr: "driver name must not be empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, driver, err := processSQLOptions(tt.opts...)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantConn, conn)
			assert.Equal(t, tt.wantDriver, driver)
		})
	}
}

func TestSQLDBInitDoesNotNeedServer(t *testing.T) {
	// nothing listens on port 1
	db, err := NewStorage(DatabaseSQL, Option{
		ID:     SQLConnectionString,
		Option: "postgres://issuer@127.0.0.1:1/records?sslmode=disable&connect_timeout=1",
	})
	require.NoError(t, err)

	assert.False(t, db.IsOpen())
	assert.Error(t, WaitUntilOpen(db, time.Millisecond, 2))

	_, err = db.Read(context.Background(), "credential-ID", "ada@example.com")
	assert.ErrorContains(t, err, "creating key_values table")
	assert.NoError(t, db.Close())
}

func TestSQLDBUnknownDriver(t *testing.T) {
	_, err := NewStorage(DatabaseSQL,
		Option{ID: SQLConnectionString, Option: "postgres://localhost/records"},
		Option{ID: SQLDriverName, Option: "cassandra"},
	)
	assert.ErrorContains(t, err, "opening sql database")
}
