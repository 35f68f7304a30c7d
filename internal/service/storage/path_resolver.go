package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
)

type pathResolverService struct {
	nodeRepo storageRepo.NodeRepository
}

// NewPathResolver creates a new path resolver service
func NewPathResolver(nodeRepo storageRepo.NodeRepository) storageSvc.PathResolver {
	return &pathResolverService{nodeRepo: nodeRepo}
}

// Resolve walks a slash-separated path from the user's root, segment by
// segment. Each segment must name an existing child directory; anything
// else is domain.ErrNotFound. Empty, "." and ".." segments are dropped.
func (s *pathResolverService) Resolve(ctx context.Context, ownerID, path string) (*models.Node, []models.Node, error) {
	chain := []models.Node{}

	segments := normalizeSegments(path)
	if len(segments) == 0 {
		// Root: no directory entity, empty chain.
		return nil, chain, nil
	}

	var current *models.Node
	var parentID *string
	for _, segment := range segments {
		child, err := s.nodeRepo.GetChildByName(ctx, ownerID, parentID, segment)
		if err != nil {
			return nil, nil, err
		}
		if child == nil || !child.IsDirectory() {
			return nil, nil, fmt.Errorf("directory at path %q: %w", path, domain.ErrNotFound)
		}
		chain = append(chain, *child)
		current = child
		parentID = &child.ID
	}

	return current, chain, nil
}

// Breadcrumbs walks parent links from the directory up to root, then
// reverses the chain into (name, path) pairs for navigation; O(depth).
func (s *pathResolverService) Breadcrumbs(ctx context.Context, dir *models.Node) ([]models.Breadcrumb, error) {
	if dir == nil {
		return []models.Breadcrumb{}, nil
	}

	names := []string{dir.Name}
	current := dir
	for current.ParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *current.ParentID, dir.OwnerID)
		if err != nil {
			return nil, err
		}
		names = append(names, parent.Name)
		current = parent
	}

	// names is leaf-first, build breadcrumbs root-first
	crumbs := make([]models.Breadcrumb, 0, len(names))
	var path string
	for i := len(names) - 1; i >= 0; i-- {
		if path == "" {
			path = names[i]
		} else {
			path = path + "/" + names[i]
		}
		crumbs = append(crumbs, models.Breadcrumb{Name: names[i], Path: path})
	}

	return crumbs, nil
}

// CanonicalPath is the inverse of Resolve for any node
func (s *pathResolverService) CanonicalPath(ctx context.Context, node *models.Node) (string, error) {
	return s.nodeRepo.GetPath(ctx, node.ID, node.OwnerID)
}

// normalizeSegments splits a path on "/" dropping empty, "." and ".."
// segments, mirroring SplitRelativePath for upload paths.
func normalizeSegments(path string) []string {
	segments := []string{}
	for _, segment := range strings.Split(path, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}
