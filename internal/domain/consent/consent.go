// Package consent models GDPR consent records and their validation rules.
package consent

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/chino/internal/domain"
)

// CollectionMode is how a consent was obtained.
type CollectionMode string

// Collection modes.
const (
	Online  CollectionMode = "online"
	Offline CollectionMode = "offline"
)

// Details describe the policy a user agreed to.
type Details struct {
	Description    string         `json:"description"`
	PolicyURL      string         `json:"policy_url"`
	PolicyVersion  string         `json:"policy_version"`
	CollectionMode CollectionMode `json:"collection_mode"`
}

// DataController identifies who processes the data.
type DataController struct {
	Company  string `json:"company"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	VAT      string `json:"VAT"`
	OnBehalf bool   `json:"on_behalf"`
}

// Purpose is one processing purpose and whether the user authorized it.
type Purpose struct {
	Authorized  bool   `json:"authorized"`
	Purpose     string `json:"purpose"`
	Description string `json:"description"`
}

// Consent is a consent record. ID and the dates are set by the server.
type Consent struct {
	ID             string         `json:"consent_id,omitempty"`
	UserID         string         `json:"user_id"`
	Details        Details        `json:"details"`
	DataController DataController `json:"data_controller"`
	Purposes       []Purpose      `json:"purposes"`
	InsertedDate   domain.Time    `json:"inserted_date"`
	WithdrawnDate  domain.Time    `json:"withdrawn_date"`
}

// Validate checks the record before it is sent.
func (c Consent) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UserID, validation.Required, validation.Length(1, 255)),
		validation.Field(&c.Details),
		validation.Field(&c.DataController),
		validation.Field(&c.Purposes, validation.Required),
	)
}

// Validate checks the policy details.
func (d Details) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.PolicyURL, validation.Required, validation.By(httpURL)),
		validation.Field(&d.PolicyVersion, validation.Required),
		validation.Field(&d.CollectionMode, validation.Required, validation.In(Online, Offline)),
	)
}

// Validate checks the data controller.
func (d DataController) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Company, validation.Required),
		validation.Field(&d.Contact, validation.Required),
		validation.Field(&d.Email, validation.Required, validation.Length(3, 254)),
	)
}

// Validate checks the purpose.
func (p Purpose) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Purpose, validation.Required),
	)
}

// Active reports whether the consent has not been withdrawn.
func (c Consent) Active() bool {
	return c.WithdrawnDate.IsZero()
}

func httpURL(v any) error {
	s, _ := v.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("validation_is_url", "must be an absolute http(s) URL")
	}
	return nil
}
