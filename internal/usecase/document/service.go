package document

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Service handles bulk document operations.
type Service struct {
	store    Store
	pageSize int
	logger   *zap.Logger
}

// New creates a document service.
func New(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pageSize: 100, logger: logger}
}

// WithPageSize configures how many documents are listed per round.
func (s *Service) WithPageSize(size int) *Service {
	if size > 0 {
		s.pageSize = size
	}
	return s
}

// DeleteAll deletes every document of a schema and returns how many were
// deleted. Documents that fail to delete are skipped on the next listing,
// so the walk terminates; their errors are aggregated.
func (s *Service) DeleteAll(ctx context.Context, schemaID string) (int, error) {
	var (
		result  *multierror.Error
		deleted int
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return deleted, multierror.Append(result, err).ErrorOrNil()
		}

		ids, total, err := s.store.ListIDs(ctx, schemaID, skipped, s.pageSize)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("list documents of %s at %d: %w", schemaID, skipped, err))
			return deleted, result.ErrorOrNil()
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if err := s.store.Delete(ctx, id); err != nil {
				skipped++
				result = multierror.Append(result, fmt.Errorf("delete document %s: %w", id, err))
				s.logger.Debug("document delete failed",
					zap.String("schema_id", schemaID),
					zap.String("document_id", id),
					zap.Error(err),
				)
				continue
			}
			deleted++
		}

		if skipped >= total {
			break
		}
	}

	s.logger.Info("schema documents deleted",
		zap.String("schema_id", schemaID),
		zap.Int("deleted", deleted),
		zap.Int("failed", skipped),
	)
	return deleted, result.ErrorOrNil()
}
