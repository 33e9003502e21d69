package issuance

import (
	"context"
	"sync"

	"github.com/brianorwhatever/sign-and-verify/pkg/service/credential"
)

var (
	defaultService    *Service
	defaultServiceErr error
	once              sync.Once
)

// getDefaultService provides the demo issuance service as a singleton: ID credentials rendered from
// the embedded templates with records from the demo fixture store.
func getDefaultService() (*Service, error) {
	once.Do(func() {
		defaultService, defaultServiceErr = NewIssuanceService(
			credential.NewDemoFixtureStore(),
			NewRenderer(DefaultTemplates()),
			credential.IDCredentialType,
		)
	})
	return defaultService, defaultServiceErr
}

// HandleCredentialRequest is the process default issuance entry point. Deployments with a real
// record store substitute their own Service.Issue.
func HandleCredentialRequest(ctx context.Context, issuerID, holderID, idToken string) (Document, error) {
	s, err := getDefaultService()
	if err != nil {
		return nil, err
	}
	return s.Issue(ctx, issuerID, holderID, idToken)
}
