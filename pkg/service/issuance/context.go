package issuance

import (
	"reflect"

	"github.com/brianorwhatever/sign-and-verify/framework"
	"github.com/brianorwhatever/sign-and-verify/pkg/service/credential"
)

// TemplateContext holds every value an ID credential template substitutes. All fields are required;
// a record that leaves one empty is rejected before rendering.
type TemplateContext struct {
	IssuerDID         string `validate:"required" template:"ISSUER_DID"`
	LearnerDID        string `validate:"required" template:"LEARNER_DID"`
	CredentialName    string `validate:"required" template:"CREDENTIAL_NAME"`
	CredentialDesc    string `validate:"required" template:"CREDENTIAL_DESC"`
	IssuanceDate      string `validate:"required" template:"ISSUANCE_DATE"`
	IssuerName        string `validate:"required" template:"ISSUER_NAME"`
	IssuerURL         string `validate:"required" template:"ISSUER_URL"`
	IssuerImage       string `validate:"required" template:"ISSUER_IMAGE"`
	LearnerName       string `validate:"required" template:"LEARNER_NAME"`
	LearnerGivenName  string `validate:"required" template:"LEARNER_GIVEN_NAME"`
	LearnerFamilyName string `validate:"required" template:"LEARNER_FAMILY_NAME"`
	LearnerBirthDate  string `validate:"required" template:"LEARNER_BIRTH_DATE"`
	LearnerAddress    string `validate:"required" template:"LEARNER_ADDRESS"`
}

// NewTemplateContext builds the context for an ID credential. Other credential types need their own
// context builders.
func NewTemplateContext(issuerID, holderID string, r credential.Record) (*TemplateContext, error) {
	claims := r.CredentialSubject.HasCredential
	tc := TemplateContext{
		IssuerDID:         issuerID,
		LearnerDID:        holderID,
		CredentialName:    r.Name,
		CredentialDesc:    r.Description,
		IssuanceDate:      r.IssuanceDate,
		IssuerName:        r.Issuer.Name,
		IssuerURL:         r.Issuer.URL,
		IssuerImage:       r.Issuer.Image,
		LearnerName:       r.CredentialSubject.Name,
		LearnerGivenName:  claims.GivenName,
		LearnerFamilyName: claims.FamilyName,
		LearnerBirthDate:  claims.BirthDate,
		LearnerAddress:    claims.Address,
	}
	if err := framework.ValidateStruct(tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

// Values returns the context keyed by placeholder name.
func (tc TemplateContext) Values() map[string]string {
	v := reflect.ValueOf(tc)
	t := v.Type()
	values := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		values[t.Field(i).Tag.Get("template")] = v.Field(i).String()
	}
	return values
}
