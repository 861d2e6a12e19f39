package consent

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/chino/internal/domain"
)

func validConsent() Consent {
	return Consent{
		UserID: "user-1",
		Details: Details{
			Description:    "newsletter",
			PolicyURL:      "https://example.com/privacy",
			PolicyVersion:  "1.0",
			CollectionMode: Online,
		},
		DataController: DataController{
			Company: "ACME",
			Contact: "Jane Doe",
			Address: "Main St 1",
			Email:   "dpo@acme.io",
		},
		Purposes: []Purpose{{Authorized: true, Purpose: "marketing"}},
	}
}

func TestConsent_Validate(t *testing.T) {
	if err := validConsent().Validate(); err != nil {
		t.Fatalf("valid consent rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Consent)
		field  string
	}{
		{"missing user", func(c *Consent) { c.UserID = "" }, "user_id"},
		{"no purposes", func(c *Consent) { c.Purposes = nil }, "purposes"},
		{"blank purpose", func(c *Consent) { c.Purposes = []Purpose{{Authorized: true}} }, "purposes"},
		{"relative policy url", func(c *Consent) { c.Details.PolicyURL = "/privacy" }, "details"},
		{"unknown collection mode", func(c *Consent) { c.Details.CollectionMode = "carrier pigeon" }, "details"},
		{"missing controller company", func(c *Consent) { c.DataController.Company = "" }, "data_controller"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConsent()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestConsent_Active(t *testing.T) {
	c := validConsent()
	if !c.Active() {
		t.Error("new consent reported withdrawn")
	}
	c.WithdrawnDate = domain.Time{Time: time.Now()}
	if c.Active() {
		t.Error("withdrawn consent reported active")
	}
}

func TestConsent_JSON(t *testing.T) {
	var c Consent
	body := `{"consent_id":"c1","user_id":"u1","inserted_date":"2018-05-25T09:00:00.123",` +
		`"withdrawn_date":null,"data_controller":{"VAT":"IT1"},"purposes":[]}`
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.ID != "c1" || c.DataController.VAT != "IT1" {
		t.Errorf("decoded = %+v", c)
	}
	if c.InsertedDate.Year() != 2018 || !c.Active() {
		t.Errorf("dates = %v / %v", c.InsertedDate, c.WithdrawnDate)
	}
}
