package chino

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Consent endpoints.
const (
	consentsEndpoint       = "/consents"
	consentEndpoint        = "/consents/{consent_id}"
	consentHistoryEndpoint = "/consents/{consent_id}/history"
)

// ConsentService manages consent records.
type ConsentService struct{ c *Client }

type consentBody struct {
	UserID         string         `json:"user_id"`
	Details        ConsentDetails `json:"details"`
	DataController DataController `json:"data_controller"`
	Purposes       []Purpose      `json:"purposes"`
}

func newConsentBody(op string, c Consent) (consentBody, error) {
	if err := c.Validate(); err != nil {
		return consentBody{}, fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
	}
	return consentBody{
		UserID:         c.UserID,
		Details:        c.Details,
		DataController: c.DataController,
		Purposes:       c.Purposes,
	}, nil
}

// Create records a consent and returns its id.
func (s *ConsentService) Create(ctx context.Context, c Consent) (string, error) {
	body, err := newConsentBody("consents.create", c)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"consent_id"`
	}
	if err := s.c.call(ctx, "consents.create", post(body, consentsEndpoint), &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Get returns the current version of a consent.
func (s *ConsentService) Get(ctx context.Context, id string) (Consent, error) {
	return doOne[Consent](ctx, s.c, "consents.get", "consent", get(consentEndpoint, id))
}

// List returns one page of consents, optionally only those of userID.
func (s *ConsentService) List(ctx context.Context, userID string, opts ListOptions) (Page[Consent], error) {
	call := get(consentsEndpoint)
	if userID != "" {
		call.Query = url.Values{"user_id": {userID}}
	}
	return doList[Consent](ctx, s.c, "consents.list", "consents", call, opts)
}

// Update records a new version of a consent. The previous one stays in the
// history.
func (s *ConsentService) Update(ctx context.Context, id string, c Consent) error {
	body, err := newConsentBody("consents.update", c)
	if err != nil {
		return err
	}
	return s.c.call(ctx, "consents.update", put(body, consentEndpoint, id), nil)
}

// Withdraw marks a consent as withdrawn.
func (s *ConsentService) Withdraw(ctx context.Context, id string) error {
	return s.c.call(ctx, "consents.withdraw", del(consentEndpoint, id), nil)
}

// History returns every version of a consent in server order.
func (s *ConsentService) History(ctx context.Context, id string) ([]Consent, error) {
	start := time.Now()
	records, err := s.c.history.History(ctx, id)
	s.c.obs.observe("consents.history", start, err)
	return records, err
}

// consentHistory adapts the API to the consent use case.
type consentHistory struct {
	api apiCaller
}

func (h consentHistory) History(ctx context.Context, consentID string, offset, limit int) ([]Consent, int, error) {
	call := get(consentHistoryEndpoint, consentID)
	call.Query = withPaging(nil, ListOptions{Offset: offset, Limit: limit})
	var page struct {
		TotalCount int       `json:"total_count"`
		Consents   []Consent `json:"consents"`
	}
	if err := h.api.Do(ctx, call, &page); err != nil {
		return nil, 0, fmt.Errorf("consent history: %w", err)
	}
	return page.Consents, page.TotalCount, nil
}
