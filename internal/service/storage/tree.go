package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Gichie/CloudFileStorage/internal/blob"
	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	"github.com/Gichie/CloudFileStorage/internal/domain/repositories"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
)

type treeService struct {
	nodeRepo     storageRepo.NodeRepository
	blobStore    blob.Store
	pathResolver storageSvc.PathResolver
	txManager    repositories.TransactionManager
	logger       *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(
	nodeRepo storageRepo.NodeRepository,
	blobStore blob.Store,
	pathResolver storageSvc.PathResolver,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) storageSvc.TreeService {
	return &treeService{
		nodeRepo:     nodeRepo,
		blobStore:    blobStore,
		pathResolver: pathResolver,
		txManager:    txManager,
		logger:       logger,
	}
}

// CreateFolder creates an empty directory under the given parent.
// The sibling lookup is a pre-check for a friendly error; the unique
// constraint in the repository is the actual guarantee under concurrency.
func (s *treeService) CreateFolder(ctx context.Context, req *storageSvc.CreateFolderRequest) (*models.Node, error) {
	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	name := strings.TrimSpace(req.Name)
	if err := ValidateNodeName(name); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *req.ParentID, req.OwnerID)
		if err != nil {
			return nil, err
		}
		if !parent.IsDirectory() {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("%q is not a directory", parent.Name),
				Field:   "parent_id",
			}
		}
	}

	now := time.Now()
	folder := &models.Node{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Type:      models.NodeTypeDirectory,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.nodeRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	s.computePath(ctx, folder)

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_id", folder.ParentID,
		"path", folder.Path,
	)

	return folder, nil
}

// GetNode retrieves a node with its computed display path
func (s *treeService) GetNode(ctx context.Context, ownerID, nodeID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID, ownerID)
	if err != nil {
		return nil, err
	}

	s.computePath(ctx, node)
	return node, nil
}

// ListByPath resolves a path to a directory and returns its contents with
// breadcrumbs. The empty path lists the user's root.
func (s *treeService) ListByPath(ctx context.Context, ownerID, path string) (*storageSvc.Listing, error) {
	dir, _, err := s.pathResolver.Resolve(ctx, ownerID, path)
	if err != nil {
		return nil, err
	}

	crumbs, err := s.pathResolver.Breadcrumbs(ctx, dir)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if dir != nil {
		parentID = &dir.ID
		dir.Path = crumbs[len(crumbs)-1].Path
	}

	children, err := s.nodeRepo.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	for i := range children {
		if dir != nil {
			children[i].Path = dir.Path + "/" + children[i].Name
		} else {
			children[i].Path = children[i].Name
		}
	}

	return &storageSvc.Listing{
		Directory:   dir,
		Breadcrumbs: crumbs,
		Nodes:       children,
	}, nil
}

// UpdateNode renames and/or moves a node. Metadata only: the storage key is
// minted at creation and never touched here, so blobs stay put.
func (s *treeService) UpdateNode(ctx context.Context, ownerID, nodeID string, req *storageSvc.UpdateNodeRequest) (*models.Node, error) {
	if req.Name == nil && !req.ParentID.Present {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}

	// The read-check-update sequence runs in one transaction so the cycle
	// and sibling checks see a consistent snapshot of the tree.
	var node *models.Node
	txErr := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		node, err = s.nodeRepo.GetByID(ctx, nodeID, ownerID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if err := ValidateNodeName(name); err != nil {
				return err
			}
			node.Name = name
		}

		// Tri-state: only update location if the field was present in the request
		if req.ParentID.Present {
			if req.ParentID.Value != nil {
				dest, err := s.nodeRepo.GetByIDAny(ctx, *req.ParentID.Value)
				if err != nil {
					return err
				}
				if dest.OwnerID != ownerID {
					return fmt.Errorf("directory %s: %w", dest.ID, domain.ErrCrossOwner)
				}
				if !dest.IsDirectory() {
					return &domain.ValidationError{
						Message: fmt.Sprintf("%q is not a directory", dest.Name),
						Field:   "parent_id",
					}
				}

				if err := s.validateNoCycle(ctx, node, dest); err != nil {
					return err
				}

				node.ParentID = &dest.ID
				s.logger.Debug("moving node to new parent", "node_id", nodeID, "new_parent_id", dest.ID)
			} else {
				// null = move to root
				node.ParentID = nil
				s.logger.Debug("moving node to root", "node_id", nodeID)
			}
		}

		// Pre-check for a sibling collision in the target location; the unique
		// constraint enforced on Update remains the source of truth.
		sibling, err := s.nodeRepo.GetChildByName(ctx, ownerID, node.ParentID, node.Name)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate names: %w", err)
		}
		if sibling != nil && sibling.ID != node.ID {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a %s named %q already exists in this location", sibling.Type, node.Name),
				ResourceType: string(sibling.Type),
				ResourceID:   sibling.ID,
			}
		}

		node.UpdatedAt = time.Now()

		return s.nodeRepo.Update(ctx, node)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.computePath(ctx, node)

	s.logger.Info("node updated",
		"id", node.ID,
		"name", node.Name,
		"parent_id", node.ParentID,
		"path", node.Path,
	)

	return node, nil
}

// DeleteNode deletes a node. Directories cascade over the whole subtree:
// every row is removed before its blob so the tree never references a node
// whose row is gone, and rows are removed deepest-first so children always
// go before their parents.
func (s *treeService) DeleteNode(ctx context.Context, ownerID, nodeID string) error {
	node, err := s.nodeRepo.GetByID(ctx, nodeID, ownerID)
	if err != nil {
		return err
	}

	if !node.IsDirectory() {
		if err := s.deleteFile(ctx, node); err != nil {
			return err
		}
		s.logger.Info("file deleted", "id", node.ID, "name", node.Name)
		return nil
	}

	descendants, err := s.nodeRepo.ListDescendants(ctx, node.ID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to collect descendants: %w", err)
	}

	for i, d := range descendants {
		if err := s.nodeRepo.Delete(ctx, d.ID, ownerID); err != nil {
			// Already-deleted rows are not restorable; report the remainder
			// so the caller can retry on it.
			remaining := make([]string, 0, len(descendants)-i+1)
			for _, rest := range descendants[i:] {
				remaining = append(remaining, rest.ID)
			}
			remaining = append(remaining, node.ID)
			return &domain.PartialDeleteError{Remaining: remaining, Cause: err}
		}
		if d.Type == models.NodeTypeFile {
			s.deleteBlob(ctx, d.StorageKey, d.ID)
		}
	}

	if err := s.nodeRepo.Delete(ctx, node.ID, ownerID); err != nil {
		return &domain.PartialDeleteError{Remaining: []string{node.ID}, Cause: err}
	}

	s.logger.Info("directory deleted",
		"id", node.ID,
		"name", node.Name,
		"descendants", len(descendants),
	)

	return nil
}

// deleteFile removes the row first, then the blob. If the blob deletion
// fails after the row is gone, the orphan is logged for out-of-band cleanup.
func (s *treeService) deleteFile(ctx context.Context, node *models.Node) error {
	if err := s.nodeRepo.Delete(ctx, node.ID, node.OwnerID); err != nil {
		return err
	}
	s.deleteBlob(ctx, node.StorageKey, node.ID)
	return nil
}

func (s *treeService) deleteBlob(ctx context.Context, storageKey, nodeID string) {
	if storageKey == "" {
		return
	}
	if err := s.blobStore.Delete(ctx, storageKey); err != nil {
		s.logger.Error("orphan blob left in object store",
			"storage_key", storageKey,
			"node_id", nodeID,
			"error", err,
		)
	}
}

// validateNoCycle ensures the destination is not the moved node itself or
// one of its descendants, by walking the destination's ancestor chain up to
// root. Only directory moves can create cycles.
func (s *treeService) validateNoCycle(ctx context.Context, node *models.Node, dest *models.Node) error {
	if !node.IsDirectory() {
		return nil
	}
	if dest.ID == node.ID {
		return &domain.CycleError{NodeID: node.ID, DestinationID: dest.ID}
	}

	current := dest
	for current.ParentID != nil {
		if *current.ParentID == node.ID {
			return &domain.CycleError{NodeID: node.ID, DestinationID: dest.ID}
		}
		parent, err := s.nodeRepo.GetByID(ctx, *current.ParentID, node.OwnerID)
		if err != nil {
			return err
		}
		current = parent
	}

	return nil
}

// computePath fills the display path, falling back to the bare name
func (s *treeService) computePath(ctx context.Context, node *models.Node) {
	path, err := s.pathResolver.CanonicalPath(ctx, node)
	if err != nil {
		s.logger.Warn("failed to compute path", "node_id", node.ID, "error", err)
		node.Path = node.Name
		return
	}
	node.Path = path
}
