package consent

import (
	"context"

	domconsent "github.com/kailas-cloud/chino/internal/domain/consent"
)

// HistoryReader reads one page of the history of a consent.
type HistoryReader interface {
	History(ctx context.Context, consentID string, offset, limit int) (records []domconsent.Consent, total int, err error)
}
