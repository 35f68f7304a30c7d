package storage

import (
	"context"

	"github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
)

// DescendantNode is a node returned from a subtree listing, annotated with
// its depth below the subtree root and its path relative to it.
type DescendantNode struct {
	storage.Node

	// Depth is 1 for direct children of the subtree root.
	Depth int `json:"depth"`

	// RelPath is the slash-joined path from the subtree root to the node,
	// e.g. "x/y/2.txt" for a node two levels down.
	RelPath string `json:"rel_path"`
}

// NodeRepository defines data access operations for tree nodes.
// It is the single arbiter of tree invariants: sibling-name uniqueness is
// enforced by a database unique constraint, and all mutation paths go
// through it.
type NodeRepository interface {
	// Create inserts a new node. The caller assigns the ID. A sibling-name
	// collision surfaces as *domain.ConflictError carrying the existing
	// node's id.
	Create(ctx context.Context, node *storage.Node) error

	// GetByID retrieves a node scoped to its owner.
	GetByID(ctx context.Context, id, ownerID string) (*storage.Node, error)

	// GetByIDAny retrieves a node without owner scoping. Used where the
	// service must tell a cross-owner reference apart from a missing one.
	GetByIDAny(ctx context.Context, id string) (*storage.Node, error)

	// GetChildByName finds a direct child of parentID (nil = root) by exact
	// name, regardless of variant. Returns (nil, nil) when absent.
	GetChildByName(ctx context.Context, ownerID string, parentID *string, name string) (*storage.Node, error)

	// Update persists name and parent changes. Size, storage key and type
	// are immutable after creation.
	Update(ctx context.Context, node *storage.Node) error

	// Delete removes a single node row.
	Delete(ctx context.Context, id, ownerID string) error

	// ListChildren lists the immediate children of parentID (nil = root),
	// directories first, then by name.
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]storage.Node, error)

	// CreateDirIfNotExists inserts a directory under parentID, reconciling
	// a concurrent create: on a uniqueness violation the now-existing
	// sibling is re-read and returned instead of failing.
	CreateDirIfNotExists(ctx context.Context, ownerID string, parentID *string, name string) (*storage.Node, error)

	// GetPath computes the slash-joined display path from root to the node.
	GetPath(ctx context.Context, id, ownerID string) (string, error)

	// ListDescendants returns every node below the given directory,
	// deepest-first, each annotated with depth and subtree-relative path.
	ListDescendants(ctx context.Context, dirID, ownerID string) ([]DescendantNode, error)

	// Search performs a case-insensitive substring match on names within a
	// user's tree, optionally restricted to a subtree, ordered by path.
	Search(ctx context.Context, opts *storage.SearchOptions) (*storage.SearchResults, error)
}
