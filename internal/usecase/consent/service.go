package consent

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/chino/internal/domain"
	domconsent "github.com/kailas-cloud/chino/internal/domain/consent"
)

// Service walks consent history.
type Service struct {
	reader   HistoryReader
	pageSize int
}

// New creates a consent service.
func New(reader HistoryReader) *Service {
	return &Service{reader: reader, pageSize: 100}
}

// WithPageSize configures how many records are read per call.
func (s *Service) WithPageSize(size int) *Service {
	if size > 0 {
		s.pageSize = size
	}
	return s
}

// History returns every version of a consent in server order.
func (s *Service) History(ctx context.Context, consentID string) ([]domconsent.Consent, error) {
	if strings.TrimSpace(consentID) == "" {
		return nil, domain.NewInvalidID("consent", consentID)
	}

	var out []domconsent.Consent
	for {
		records, total, err := s.reader.History(ctx, consentID, len(out), s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("consent %s history at %d: %w", consentID, len(out), err)
		}
		out = append(out, records...)
		if len(records) == 0 || len(out) >= total {
			return out, nil
		}
	}
}
