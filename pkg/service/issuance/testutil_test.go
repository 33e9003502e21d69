package issuance

import (
	"context"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/brianorwhatever/sign-and-verify/pkg/service/credential"
)

const (
	testIssuerDID = "did:key:z6MkhVTX9BF3NGYX6cc7jWpbNnR7cAjH8LUffabZP8Qu4ysC"
	testHolderDID = "did:example:learner"
	testEmail     = "learner@example.com"
)

func mintIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	tok := jwt.New()
	for k, v := range claims {
		require.NoError(t, tok.Set(k, v))
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("identity-provider-secret")))
	require.NoError(t, err)
	return string(signed)
}

func emailRecord(email string) credential.Record {
	r := credential.DemoRecord()
	r.CredentialSubject.Email = email
	return r
}

var (
	_ credential.RecordStore  = (*stubStore)(nil)
	_ credential.RecordHandle = (*stubHandle)(nil)
)

// stubStore lets tests fail individual record store steps. Its handles report back into the store.
type stubStore struct {
	openErr  error
	queryErr error
	closeErr error
	record   *credential.Record

	openedType string
	queriedKey string
	closed     bool
	released   bool
}

func (s *stubStore) Open(_ context.Context, credentialType string) (credential.RecordHandle, error) {
	s.openedType = credentialType
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &stubHandle{store: s}, nil
}

// Close releases the store itself; handle closes are tracked by closed.
func (s *stubStore) Close() error {
	s.released = true
	return nil
}

type stubHandle struct {
	store *stubStore
}

func (h *stubHandle) Query(_ context.Context, key string) (*credential.Record, error) {
	h.store.queriedKey = key
	return h.store.record, h.store.queryErr
}

func (h *stubHandle) Close(context.Context) error {
	h.store.closed = true
	return h.store.closeErr
}

var errUnreachable = errors.New("connection refused")
