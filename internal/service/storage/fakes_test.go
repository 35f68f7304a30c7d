package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Gichie/CloudFileStorage/internal/blob"
	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	"github.com/Gichie/CloudFileStorage/internal/domain/repositories"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
)

// fakeNodeRepo is an in-memory NodeRepository mirroring the error semantics
// of the Postgres implementation: sibling collisions surface as
// *domain.ConflictError and missing rows as domain.ErrNotFound.
type fakeNodeRepo struct {
	nodes map[string]*models.Node

	// failure injection, keyed by node id
	deleteErr map[string]error
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{
		nodes:     map[string]*models.Node{},
		deleteErr: map[string]error{},
	}
}

func (r *fakeNodeRepo) sibling(ownerID string, parentID *string, name string) *models.Node {
	for _, n := range r.nodes {
		if n.OwnerID == ownerID && sameParent(n.ParentID, parentID) && n.Name == name {
			return n
		}
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *fakeNodeRepo) Create(_ context.Context, node *models.Node) error {
	if node.ParentID != nil {
		if _, ok := r.nodes[*node.ParentID]; !ok {
			return fmt.Errorf("parent %s: %w", *node.ParentID, domain.ErrNotFound)
		}
	}
	if existing := r.sibling(node.OwnerID, node.ParentID, node.Name); existing != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("a %s named %q already exists in this location", existing.Type, node.Name),
			ResourceType: string(existing.Type),
			ResourceID:   existing.ID,
		}
	}
	copied := *node
	r.nodes[node.ID] = &copied
	return nil
}

func (r *fakeNodeRepo) GetByID(_ context.Context, id, ownerID string) (*models.Node, error) {
	n, ok := r.nodes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNodeRepo) GetByIDAny(_ context.Context, id string) (*models.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNodeRepo) GetChildByName(_ context.Context, ownerID string, parentID *string, name string) (*models.Node, error) {
	n := r.sibling(ownerID, parentID, name)
	if n == nil {
		return nil, nil
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNodeRepo) Update(_ context.Context, node *models.Node) error {
	stored, ok := r.nodes[node.ID]
	if !ok || stored.OwnerID != node.OwnerID {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	if existing := r.sibling(node.OwnerID, node.ParentID, node.Name); existing != nil && existing.ID != node.ID {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("a %s named %q already exists in this location", existing.Type, node.Name),
			ResourceType: string(existing.Type),
			ResourceID:   existing.ID,
		}
	}
	stored.ParentID = node.ParentID
	stored.Name = node.Name
	stored.UpdatedAt = node.UpdatedAt
	return nil
}

func (r *fakeNodeRepo) Delete(_ context.Context, id, ownerID string) error {
	if err, ok := r.deleteErr[id]; ok {
		return err
	}
	n, ok := r.nodes[id]
	if !ok || n.OwnerID != ownerID {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(r.nodes, id)
	return nil
}

func (r *fakeNodeRepo) ListChildren(_ context.Context, ownerID string, parentID *string) ([]models.Node, error) {
	children := []models.Node{}
	for _, n := range r.nodes {
		if n.OwnerID == ownerID && sameParent(n.ParentID, parentID) {
			children = append(children, *n)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].Type != children[j].Type {
			return children[i].Type == models.NodeTypeDirectory
		}
		return children[i].Name < children[j].Name
	})
	return children, nil
}

func (r *fakeNodeRepo) CreateDirIfNotExists(_ context.Context, ownerID string, parentID *string, name string) (*models.Node, error) {
	if existing := r.sibling(ownerID, parentID, name); existing != nil {
		if !existing.IsDirectory() {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("a file named %q already exists in this location", name),
				ResourceType: string(existing.Type),
				ResourceID:   existing.ID,
			}
		}
		copied := *existing
		return &copied, nil
	}
	dir := &models.Node{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		ParentID: parentID,
		Type:     models.NodeTypeDirectory,
		Name:     name,
	}
	r.nodes[dir.ID] = dir
	copied := *dir
	return &copied, nil
}

func (r *fakeNodeRepo) GetPath(ctx context.Context, id, ownerID string) (string, error) {
	n, err := r.GetByID(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	segments := []string{n.Name}
	for n.ParentID != nil {
		n, err = r.GetByID(ctx, *n.ParentID, ownerID)
		if err != nil {
			return "", err
		}
		segments = append([]string{n.Name}, segments...)
	}
	return strings.Join(segments, "/"), nil
}

func (r *fakeNodeRepo) ListDescendants(ctx context.Context, dirID, ownerID string) ([]storageRepo.DescendantNode, error) {
	if _, err := r.GetByID(ctx, dirID, ownerID); err != nil {
		return nil, err
	}
	var out []storageRepo.DescendantNode
	var walk func(parentID string, depth int, prefix string)
	walk = func(parentID string, depth int, prefix string) {
		for _, n := range r.nodes {
			if n.ParentID == nil || *n.ParentID != parentID {
				continue
			}
			rel := n.Name
			if prefix != "" {
				rel = prefix + "/" + n.Name
			}
			out = append(out, storageRepo.DescendantNode{Node: *n, Depth: depth, RelPath: rel})
			if n.IsDirectory() {
				walk(n.ID, depth+1, rel)
			}
		}
	}
	walk(dirID, 1, "")
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth > out[j].Depth
		}
		return out[i].RelPath < out[j].RelPath
	})
	return out, nil
}

func (r *fakeNodeRepo) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	inScope := func(n *models.Node) bool {
		if opts.ScopeID == nil {
			return true
		}
		current := n
		for current.ParentID != nil {
			if *current.ParentID == *opts.ScopeID {
				return true
			}
			current = r.nodes[*current.ParentID]
			if current == nil {
				return false
			}
		}
		return false
	}

	matches := []models.Node{}
	for _, n := range r.nodes {
		if n.OwnerID != opts.OwnerID {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Name), strings.ToLower(opts.Query)) {
			continue
		}
		if !inScope(n) {
			continue
		}
		copied := *n
		copied.Path, _ = r.GetPath(ctx, n.ID, opts.OwnerID)
		matches = append(matches, copied)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Name < matches[j].Name
	})

	total := len(matches)
	if opts.Offset >= len(matches) {
		matches = []models.Node{}
	} else {
		matches = matches[opts.Offset:]
	}
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return models.NewSearchResults(matches, total, opts), nil
}

// fakeBlobStore is an in-memory blob.Store with per-key failure injection.
type fakeBlobStore struct {
	objects map[string][]byte

	putErr    error
	deleteErr map[string]error

	puts    int
	deletes []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:   map[string][]byte{},
		deleteErr: map[string]error{},
	}
}

func (s *fakeBlobStore) Put(_ context.Context, key string, body io.Reader, _ int64) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.puts++
	return nil
}

func (s *fakeBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, blob.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	if err, ok := s.deleteErr[key]; ok {
		return err
	}
	delete(s.objects, key)
	s.deletes = append(s.deletes, key)
	return nil
}

// fakeTxManager runs the function directly, without a database.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
