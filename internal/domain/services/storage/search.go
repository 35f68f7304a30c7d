package storage

import (
	"context"

	"github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
)

// SearchService performs substring name search scoped to a user and
// optionally a subtree.
type SearchService interface {
	Search(ctx context.Context, opts *storage.SearchOptions) (*storage.SearchResults, error)
}
