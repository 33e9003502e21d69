package credential

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// WildcardKey matches any lookup key that has no exact fixture.
const WildcardKey = "*"

// FixtureRecord is one entry of a fixture file.
type FixtureRecord struct {
	// Type defaults to IDCredentialType.
	Type string `toml:"type"`
	// Key defaults to the record's subject email.
	Key    string `toml:"key"`
	Record Record `toml:"record"`
}

// CredentialType returns the fixture's credential type.
func (f FixtureRecord) CredentialType() string {
	if f.Type == "" {
		return IDCredentialType
	}
	return f.Type
}

// LookupKey returns the key the record is served under.
func (f FixtureRecord) LookupKey() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Record.CredentialSubject.Email
}

type fixtureFile struct {
	Records []FixtureRecord `toml:"records"`
}

// LoadFixtureFile reads fixture records from a TOML file with one [[records]] table per record.
func LoadFixtureFile(path string) ([]FixtureRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "reading fixture file<%s>", path)
	}
	var f fixtureFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errors.Wrapf(err, "decoding fixture file<%s>", path)
	}
	for i, r := range f.Records {
		if r.LookupKey() == "" {
			return nil, errors.Errorf("fixture record %d has neither a key nor a subject email", i)
		}
	}
	return f.Records, nil
}

// FixtureStore serves records held in memory. It never fails a query.
type FixtureStore struct {
	records map[string]map[string]Record
}

// NewFixtureStore indexes records by credential type and lookup key. Later records replace
// earlier ones with the same type and key.
func NewFixtureStore(records []FixtureRecord) *FixtureStore {
	s := &FixtureStore{records: make(map[string]map[string]Record)}
	for _, r := range records {
		byKey, ok := s.records[r.CredentialType()]
		if !ok {
			byKey = make(map[string]Record)
			s.records[r.CredentialType()] = byKey
		}
		byKey[r.LookupKey()] = r.Record
	}
	return s
}

// NewDemoFixtureStore serves DemoRecord for every email.
func NewDemoFixtureStore() *FixtureStore {
	return NewFixtureStore([]FixtureRecord{{Type: IDCredentialType, Key: WildcardKey, Record: DemoRecord()}})
}

func (s *FixtureStore) Open(_ context.Context, credentialType string) (RecordHandle, error) {
	return fixtureHandle{records: s.records[credentialType]}, nil
}

func (s *FixtureStore) Close() error {
	return nil
}

type fixtureHandle struct {
	records map[string]Record
}

func (h fixtureHandle) Query(_ context.Context, key string) (*Record, error) {
	if r, ok := h.records[key]; ok {
		return &r, nil
	}
	if r, ok := h.records[WildcardKey]; ok {
		return &r, nil
	}
	return nil, nil
}

func (h fixtureHandle) Close(context.Context) error {
	return nil
}
