package issuance

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/brianorwhatever/sign-and-verify/internal/util"
	"github.com/brianorwhatever/sign-and-verify/pkg/service/credential"
	svcframework "github.com/brianorwhatever/sign-and-verify/pkg/service/framework"
)

const tracerName = "sign-and-verify/issuance"

// Document is an issued, unsigned credential. Its shape comes from the credential template.
// An empty Document means no credential is available for the token holder.
type Document map[string]any

// Service issues credentials of one type from identity tokens and stored records.
type Service struct {
	store          credential.RecordStore
	renderer       *Renderer
	credentialType string
}

// NewIssuanceService fails with a Configuration error when renderer has no template for
// credentialType, so a missing template stops startup instead of failing requests.
func NewIssuanceService(store credential.RecordStore, renderer *Renderer, credentialType string) (*Service, error) {
	if store == nil {
		return nil, newError(Configuration, errors.New("record store is nil"))
	}
	if renderer == nil {
		return nil, newError(Configuration, errors.New("template renderer is nil"))
	}
	if credentialType == "" {
		credentialType = credential.IDCredentialType
	}
	if !renderer.Exists(credentialType) {
		return nil, newError(Configuration, errors.Wrapf(ErrTemplateNotFound, "template<%s>", credentialType))
	}
	return &Service{store: store, renderer: renderer, credentialType: credentialType}, nil
}

func (s *Service) Type() svcframework.Type {
	return svcframework.Issuance
}

// Status is ready once the template for the credential type can be read.
func (s *Service) Status() svcframework.Status {
	if s.store == nil || s.renderer == nil {
		return svcframework.NotReady("issuance service is missing its record store or renderer")
	}
	if !s.renderer.Exists(s.credentialType) {
		return svcframework.NotReady("no template for credential type " + s.credentialType)
	}
	return svcframework.Status{Status: svcframework.StatusReady}
}

// CredentialType returns the type of credential the service issues.
func (s *Service) CredentialType() string {
	return s.credentialType
}

// Issue decodes idToken, looks up the record for its email and renders it for holderID as issued by
// issuerID. It returns an empty Document when the store has no record for the email.
func (s *Service) Issue(ctx context.Context, issuerID, holderID, idToken string) (doc Document, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Issue")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("credential.type", s.credentialType))

	logger := logrus.WithFields(logrus.Fields{
		"request":        uuid.NewString(),
		"credentialType": s.credentialType,
		"issuer":         util.SanitizeLog(issuerID),
	})

	if issuerID == "" || holderID == "" {
		return nil, newError(InvalidRequest, errors.New("issuer and holder identifiers are required"))
	}

	email, err := emailFromToken(ctx, idToken)
	if err != nil {
		logger.WithError(err).Warn("rejecting ID token")
		return nil, err
	}

	record, err := s.lookup(ctx, email)
	if err != nil {
		logger.WithError(err).Error("record lookup failed")
		return nil, err
	}
	if record == nil {
		logger.Infof("no credential record for %s", util.SanitizeLog(email))
		return Document{}, nil
	}

	tc, err := NewTemplateContext(issuerID, holderID, *record)
	if err != nil {
		logger.WithError(err).Error("credential record is incomplete")
		return nil, newError(DataIntegrity, errors.Wrap(err, "building template context"))
	}

	rendered, err := s.renderer.Render(s.credentialType, tc.Values())
	if err != nil {
		kind := Collaborator
		if errors.Is(err, ErrTemplateNotFound) {
			kind = Configuration
		}
		return nil, newError(kind, errors.Wrap(err, "rendering credential"))
	}

	doc = Document{}
	if err = json.Unmarshal([]byte(rendered), &doc); err != nil {
		return nil, newError(Configuration, errors.Wrapf(err, "template<%s> did not render valid JSON", s.credentialType))
	}
	logger.Info("issued credential")
	return doc, nil
}

func emailFromToken(ctx context.Context, idToken string) (string, error) {
	claims, err := util.DecodeJWTClaims(ctx, idToken)
	if err != nil {
		return "", newError(IdentityToken, errors.Wrap(err, "decoding ID token"))
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", newError(IdentityToken, ErrNoEmail)
	}
	return email, nil
}

func (s *Service) lookup(ctx context.Context, email string) (record *credential.Record, err error) {
	handle, err := s.store.Open(ctx, s.credentialType)
	if err != nil {
		return nil, newError(Collaborator, errors.Wrap(err, "opening record store"))
	}
	defer func() {
		if closeErr := handle.Close(ctx); closeErr != nil && err == nil {
			err = newError(Collaborator, errors.Wrap(closeErr, "closing record store"))
		}
	}()

	record, err = handle.Query(ctx, email)
	if err != nil {
		return nil, newError(Collaborator, errors.Wrap(err, "querying record store"))
	}
	return record, nil
}
