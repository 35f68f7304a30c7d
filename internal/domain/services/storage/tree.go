package storage

import (
	"context"

	"github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// CreateFolderRequest is the request to create a folder.
type CreateFolderRequest struct {
	OwnerID  string  `json:"-"`
	ParentID *string `json:"parent_id"` // nil = root level
	Name     string  `json:"name"`
}

// UpdateNodeRequest renames and/or moves a node. ParentID uses tri-state
// semantics: absent = keep location, null = move to root, value = move there.
type UpdateNodeRequest struct {
	Name     *string                 `json:"name"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

// Listing is the content of one directory plus its navigation chain.
// Directory is nil when listing the user's root.
type Listing struct {
	Directory   *storage.Node        `json:"directory,omitempty"`
	Breadcrumbs []storage.Breadcrumb `json:"breadcrumbs"`
	Nodes       []storage.Node       `json:"nodes"`
}

// TreeService implements the tree mutations: create-folder, rename, move and
// cascading delete, with invariant checking (cycle prevention, sibling-name
// collision, ownership scoping).
type TreeService interface {
	// CreateFolder creates an empty directory under the given parent.
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*storage.Node, error)

	// GetNode retrieves a node with its computed display path.
	GetNode(ctx context.Context, ownerID, nodeID string) (*storage.Node, error)

	// ListByPath resolves a slash-separated path rooted at the user's root
	// and returns the directory's contents with breadcrumbs. The empty path
	// lists the root.
	ListByPath(ctx context.Context, ownerID, path string) (*Listing, error)

	// UpdateNode renames and/or moves a node; metadata only, blobs stay put.
	UpdateNode(ctx context.Context, ownerID, nodeID string, req *UpdateNodeRequest) (*storage.Node, error)

	// DeleteNode deletes a node. Directories cascade to all descendants:
	// file rows (then their blobs) first, then directories deepest-first.
	// A mid-cascade row failure surfaces *domain.PartialDeleteError with
	// the ids not yet removed.
	DeleteNode(ctx context.Context, ownerID, nodeID string) error
}
