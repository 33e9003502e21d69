package credential

// IDCredentialType is the only credential type issued today.
const IDCredentialType = "ID"

// Record is an organization's credential record for one learner. Field names follow the
// document layout used in the credential database.
type Record struct {
	Name              string  `json:"name" bson:"name" toml:"name"`
	Description       string  `json:"description" bson:"description" toml:"description"`
	IssuanceDate      string  `json:"issuanceDate" bson:"issuanceDate" toml:"issuance_date"`
	Issuer            Issuer  `json:"issuer" bson:"issuer" toml:"issuer"`
	CredentialSubject Subject `json:"credentialSubject" bson:"credentialSubject" toml:"credential_subject"`
}

type Issuer struct {
	Name  string `json:"name" bson:"name" toml:"name"`
	URL   string `json:"url" bson:"url" toml:"url"`
	Image string `json:"image" bson:"image" toml:"image"`
}

type Subject struct {
	// Email is the lookup key for the record.
	Email         string `json:"email,omitempty" bson:"email,omitempty" toml:"email"`
	Name          string `json:"name" bson:"name" toml:"name"`
	HasCredential Claims `json:"hasCredential" bson:"hasCredential" toml:"has_credential"`
}

type Claims struct {
	Type       []string `json:"type" bson:"type" toml:"type"`
	GivenName  string   `json:"givenName" bson:"givenName" toml:"given_name"`
	FamilyName string   `json:"familyName" bson:"familyName" toml:"family_name"`
	BirthDate  string   `json:"birthDate" bson:"birthDate" toml:"birth_date"`
	Address    string   `json:"address" bson:"address" toml:"address"`
}

// DemoRecord returns the sample Digital ID record served by the demo fixture store.
func DemoRecord() Record {
	return Record{
		Name:         "Digital ID",
		Description:  "This is an Ontario Digital ID Credential issued by Ontario Digital Services",
		IssuanceDate: "2022-02-14T19:25:35Z",
		Issuer: Issuer{
			Name:  "Ontario Digital Services",
			URL:   "https://ontario.ca",
			Image: "https://www.ontario.ca/themes/ontario_2021/assets/ontario-logo--desktop.svg",
		},
		CredentialSubject: Subject{
			Name: "Brian Richter",
			HasCredential: Claims{
				Type:       []string{"Person"},
				GivenName:  "Brian",
				FamilyName: "Richter",
				BirthDate:  "02-21-1989",
				Address:    "1208 Wharf St.",
			},
		},
	}
}
