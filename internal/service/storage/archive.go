package storage

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/Gichie/CloudFileStorage/internal/blob"
	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
)

type downloadService struct {
	nodeRepo  storageRepo.NodeRepository
	blobStore blob.Store
	logger    *slog.Logger
}

// NewDownloadService creates a new download service
func NewDownloadService(
	nodeRepo storageRepo.NodeRepository,
	blobStore blob.Store,
	logger *slog.Logger,
) storageSvc.DownloadService {
	return &downloadService{
		nodeRepo:  nodeRepo,
		blobStore: blobStore,
		logger:    logger,
	}
}

// OpenFile returns the file node and a streaming reader over its blob
func (s *downloadService) OpenFile(ctx context.Context, ownerID, fileID string) (*models.Node, io.ReadCloser, error) {
	node, err := s.nodeRepo.GetByID(ctx, fileID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if node.IsDirectory() {
		return nil, nil, &domain.ValidationError{
			Message: fmt.Sprintf("%q is a directory, download it as an archive", node.Name),
		}
	}

	body, err := s.blobStore.Get(ctx, node.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	return node, body, nil
}

// WriteArchive streams a zip of the directory subtree to w. The walk and
// the blob fetches are interleaved: at most one blob is in flight, so memory
// stays bounded regardless of directory size. The traversal stops promptly
// when the caller disconnects. Finite and not restartable: a new request
// re-walks from scratch.
func (s *downloadService) WriteArchive(ctx context.Context, w io.Writer, ownerID, dirID string) error {
	dir, err := s.nodeRepo.GetByID(ctx, dirID, ownerID)
	if err != nil {
		return err
	}
	if !dir.IsDirectory() {
		return &domain.ValidationError{
			Message: fmt.Sprintf("%q is not a directory", dir.Name),
		}
	}

	descendants, err := s.nodeRepo.ListDescendants(ctx, dir.ID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to collect descendants: %w", err)
	}

	// Shallow-first path order so each directory entry precedes its contents
	sort.Slice(descendants, func(i, j int) bool {
		return descendants[i].RelPath < descendants[j].RelPath
	})

	zw := zip.NewWriter(w)

	for _, d := range descendants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeEntry(ctx, zw, dir.Name, d); err != nil {
			return err
		}
	}

	return zw.Close()
}

// writeEntry appends one archive entry. Directories become empty entries
// (trailing slash) so folders without files survive the round trip.
func (s *downloadService) writeEntry(ctx context.Context, zw *zip.Writer, rootName string, d storageRepo.DescendantNode) error {
	entryName := rootName + "/" + d.RelPath

	if d.IsDirectory() {
		header := &zip.FileHeader{Name: entryName + "/"}
		header.SetMode(0o755)
		if _, err := zw.CreateHeader(header); err != nil {
			return fmt.Errorf("create directory entry %q: %w", entryName, err)
		}
		return nil
	}

	header := &zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: d.UpdatedAt,
	}
	header.SetMode(0o644)
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %q: %w", entryName, err)
	}

	body, err := s.blobStore.Get(ctx, d.StorageKey)
	if err != nil {
		return fmt.Errorf("%w: fetch %q: %v", domain.ErrStore, d.RelPath, err)
	}
	defer body.Close()

	if _, err := io.Copy(entry, body); err != nil {
		return fmt.Errorf("stream entry %q: %w", entryName, err)
	}

	return nil
}
