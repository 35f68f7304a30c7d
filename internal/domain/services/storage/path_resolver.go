package storage

import (
	"context"

	"github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
)

// PathResolver converts between path strings and validated directory chains.
type PathResolver interface {
	// Resolve walks a slash-separated path from the user's root and returns
	// the final directory together with its ancestor chain (root first,
	// final directory included). The empty path resolves to the root:
	// (nil, empty chain, nil). A missing segment yields domain.ErrNotFound.
	Resolve(ctx context.Context, ownerID, path string) (*storage.Node, []storage.Node, error)

	// Breadcrumbs walks parent links from the directory up to root and
	// returns the chain root-first as (name, path) pairs; O(depth).
	Breadcrumbs(ctx context.Context, dir *storage.Node) ([]storage.Breadcrumb, error)

	// CanonicalPath is the inverse of Resolve for any node.
	CanonicalPath(ctx context.Context, node *storage.Node) (string, error)
}
