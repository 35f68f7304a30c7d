package storage

import (
	"time"
)

// NodeType distinguishes the two node variants sharing the tree.
type NodeType string

const (
	NodeTypeFile      NodeType = "file"
	NodeTypeDirectory NodeType = "directory"
)

// Node is a single entry in a user's file tree: either a directory or a
// file. Both variants share id, owner, name and parent; the file-specific
// fields are zero-valued on directories.
//
// The tree is encoded by parent back-references: ParentID NULL means the
// node sits at the user's implicit root (there is no materialized root row).
type Node struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"-" db:"owner_id"`
	ParentID    *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Type        NodeType  `json:"type" db:"node_type"`
	Name        string    `json:"name" db:"name"` // Just "report.txt", not "Docs/report.txt"
	Path        string    `json:"path,omitempty"` // Computed display path, not stored in DB
	SizeBytes   int64     `json:"size_bytes,omitempty" db:"size_bytes"`
	StorageKey  string    `json:"-" db:"storage_key"` // Opaque object-store key, minted once
	ContentType string    `json:"content_type,omitempty" db:"content_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsDirectory reports whether the node can contain children.
// Capability check used instead of type switches throughout the services.
func (n *Node) IsDirectory() bool {
	return n.Type == NodeTypeDirectory
}

// Breadcrumb is one segment of the ancestor chain from root to a directory,
// used for navigation display.
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
