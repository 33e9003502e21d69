package storage

import (
	"context"
	"database/sql"
	"encoding/base64"
	"sync"
	"time"

	// We include the postresql driver in our implementation, so users can pick "postgres" via configuration.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	if err := RegisterStorage(DatabaseSQL, func() ServiceStorage { return new(SQLDB) }); err != nil {
		panic(err)
	}
}

const (
	SQLConnectionString OptionKey = "sql-connection-string-option"
	SQLDriverName       OptionKey = "sql-driver-name-option"

	defaultSQLDriverName = "postgres"
	sqlPingTimeout       = 5 * time.Second

	createKeyValuesTable = `CREATE TABLE IF NOT EXISTS key_values (
    namespace varchar NOT NULL,
    key varchar NOT NULL,
    value varchar,
    PRIMARY KEY (namespace, key)
);`
)

// SQLDB keeps values in a single key_values table. The table is created the first time the
// database answers, so Init never needs a reachable server.
type SQLDB struct {
	db               *sql.DB
	connectionString string

	schemaMu    sync.Mutex
	schemaReady bool
}

func (s *SQLDB) Init(opts ...Option) error {
	connString, sqlDriverName, err := processSQLOptions(opts...)
	if err != nil {
		return err
	}
	s.connectionString = connString

	db, err := sql.Open(sqlDriverName, connString)
	if err != nil {
		return errors.Wrap(err, "opening sql database")
	}
	s.db = db
	return nil
}

func (s *SQLDB) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createKeyValuesTable); err != nil {
		return errors.Wrap(err, "creating key_values table")
	}
	s.schemaReady = true
	return nil
}

func processSQLOptions(opts ...Option) (connString string, sqlDriverName string, err error) {
	sqlDriverName = defaultSQLDriverName
	for _, opt := range opts {
		switch opt.ID {
		case SQLConnectionString:
			maybeConnString, ok := opt.Option.(string)
			if !ok {
				err = errors.New("sql connection string must be a string")
				return
			}
			connString = maybeConnString
		case SQLDriverName:
			maybeDriverName, ok := opt.Option.(string)
			if !ok {
				err = errors.New("sql driver name must be a string")
				return
			}
			if len(maybeDriverName) == 0 {
				err = errors.New("sql driver name must not be empty")
				return
			}
			sqlDriverName = maybeDriverName
		}
	}
	if len(connString) == 0 {
		err = errors.New("sql connection string must not be empty")
		return
	}
	return connString, sqlDriverName, nil
}

func (s *SQLDB) Type() Type {
	return DatabaseSQL
}

func (s *SQLDB) URI() string {
	return s.connectionString
}

// IsOpen reports whether the database answers and the key_values table exists.
func (s *SQLDB) IsOpen() bool {
	ctx, cancel := context.WithTimeout(context.Background(), sqlPingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		logrus.WithError(err).Error("pinging db")
		return false
	}
	if err := s.ensureSchema(ctx); err != nil {
		logrus.WithError(err).Error("preparing db schema")
		return false
	}
	return true
}

func (s *SQLDB) Close() error {
	return s.db.Close()
}

func (s *SQLDB) Write(ctx context.Context, namespace, key string, value []byte) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO key_values (namespace, key, value) VALUES ($1, $2, $3)
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value`,
		namespace, key, base64.RawStdEncoding.EncodeToString(value))
	return err
}

func (s *SQLDB) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM key_values WHERE namespace = $1 AND key = $2", namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return base64.RawStdEncoding.DecodeString(value)
}

func (s *SQLDB) ReadAll(ctx context.Context, namespace string) (map[string][]byte, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM key_values WHERE namespace = $1", namespace)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logrus.WithError(err).Error("closing rows")
		}
	}(rows)

	allValues := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		decoded, err := base64.RawStdEncoding.DecodeString(value)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding value of key<%s>", key)
		}
		allValues[key] = decoded
	}
	return allValues, rows.Err()
}

func (s *SQLDB) Delete(ctx context.Context, namespace, key string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM key_values WHERE namespace = $1 AND key = $2", namespace, key)
	return err
}

func (s *SQLDB) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM key_values WHERE namespace = $1", namespace)
	if err != nil {
		return errors.Wrapf(err, "could not delete namespace<%s>", namespace)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("namespace<%s> does not exist", namespace)
	}
	return nil
}
