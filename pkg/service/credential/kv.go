package credential

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/brianorwhatever/sign-and-verify/internal/util"
	"github.com/brianorwhatever/sign-and-verify/pkg/storage"
)

const namespace = "credential"

// KeyValueStore keeps JSON encoded records in a ServiceStorage, one namespace per credential type.
type KeyValueStore struct {
	db storage.ServiceStorage
}

func NewKeyValueStore(db storage.ServiceStorage) *KeyValueStore {
	return &KeyValueStore{db: db}
}

func recordNamespace(credentialType string) string {
	return storage.MakeNamespace(namespace, credentialType)
}

func (s *KeyValueStore) Open(_ context.Context, credentialType string) (RecordHandle, error) {
	if !s.db.IsOpen() {
		return nil, util.LoggingNewError(fmt.Sprintf("%s storage at %s is not open", s.db.Type(), s.db.URI()))
	}
	return &kvHandle{db: s.db, namespace: recordNamespace(credentialType)}, nil
}

func (s *KeyValueStore) Close() error {
	return s.db.Close()
}

type kvHandle struct {
	db        storage.ServiceStorage
	namespace string
}

func (h *kvHandle) Query(ctx context.Context, key string) (*Record, error) {
	recordBytes, err := h.db.Read(ctx, h.namespace, key)
	if err != nil {
		errMsg := fmt.Sprintf("could not get record from storage: %s", util.SanitizeLog(key))
		return nil, util.LoggingErrorMsg(err, errMsg)
	}
	if len(recordBytes) == 0 {
		return nil, nil
	}
	var record Record
	if err = json.Unmarshal(recordBytes, &record); err != nil {
		errMsg := fmt.Sprintf("could not unmarshal stored record: %s", util.SanitizeLog(key))
		return nil, util.LoggingErrorMsg(err, errMsg)
	}
	return &record, nil
}

func (h *kvHandle) Close(context.Context) error {
	return nil
}

// SeedRecords writes fixture records into db so a KeyValueStore over db serves them.
func SeedRecords(ctx context.Context, db storage.ServiceStorage, records []FixtureRecord) error {
	for _, r := range records {
		recordBytes, err := json.Marshal(r.Record)
		if err != nil {
			return errors.Wrapf(err, "marshalling record<%s>", r.LookupKey())
		}
		if err = db.Write(ctx, recordNamespace(r.CredentialType()), r.LookupKey(), recordBytes); err != nil {
			return errors.Wrapf(err, "writing record<%s>", r.LookupKey())
		}
	}
	return nil
}

// ClearRecords deletes every stored record of credentialType and returns how many were removed.
func ClearRecords(ctx context.Context, db storage.ServiceStorage, credentialType string) (int, error) {
	ns := recordNamespace(credentialType)
	existing, err := db.ReadAll(ctx, ns)
	if err != nil {
		return 0, errors.Wrapf(err, "reading records of type<%s>", credentialType)
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err = db.DeleteNamespace(ctx, ns); err != nil {
		return 0, errors.Wrapf(err, "deleting records of type<%s>", credentialType)
	}
	return len(existing), nil
}
