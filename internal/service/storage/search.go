package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
)

type searchService struct {
	nodeRepo storageRepo.NodeRepository
	logger   *slog.Logger
}

// NewSearchService creates a new search service
func NewSearchService(nodeRepo storageRepo.NodeRepository, logger *slog.Logger) storageSvc.SearchService {
	return &searchService{
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Search matches node names case-insensitively within a user's tree,
// optionally scoped to a subtree.
func (s *searchService) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if opts.ScopeID != nil {
		scope, err := s.nodeRepo.GetByID(ctx, *opts.ScopeID, opts.OwnerID)
		if err != nil {
			return nil, err
		}
		if !scope.IsDirectory() {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("%q is not a directory", scope.Name),
				Field:   "folder_id",
			}
		}
	}

	results, err := s.nodeRepo.Search(ctx, opts)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		"owner_id", opts.OwnerID,
		"query", opts.Query,
		"matches", results.TotalCount,
	)

	return results, nil
}
