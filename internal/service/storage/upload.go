package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Gichie/CloudFileStorage/internal/blob"
	"github.com/Gichie/CloudFileStorage/internal/config"
	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageRepo "github.com/Gichie/CloudFileStorage/internal/domain/repositories/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
)

// UploadLimits caps what a single batch may carry. Violating MaxFiles or
// MaxBatchSize rejects the whole batch before any storage work; MaxFileSize
// fails only the oversized file.
type UploadLimits struct {
	MaxFiles     int
	MaxBatchSize int64
	MaxFileSize  int64
}

// DefaultUploadLimits returns the limits used when none are configured
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{
		MaxFiles:     config.DefaultMaxUploadFiles,
		MaxBatchSize: config.DefaultMaxUploadBatchSize,
		MaxFileSize:  config.DefaultMaxUploadFileSize,
	}
}

type uploadService struct {
	nodeRepo  storageRepo.NodeRepository
	blobStore blob.Store
	limits    UploadLimits
	logger    *slog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(
	nodeRepo storageRepo.NodeRepository,
	blobStore blob.Store,
	limits UploadLimits,
	logger *slog.Logger,
) storageSvc.UploadService {
	return &uploadService{
		nodeRepo:  nodeRepo,
		blobStore: blobStore,
		limits:    limits,
		logger:    logger,
	}
}

// Ingest maps a batch of (relative path, stream) pairs onto the tree.
// Upload is evaluated per file, never transactionally across the batch: a
// failed file is reported and the rest proceed. A client disconnect stops
// processing further files; completed files are kept.
func (s *uploadService) Ingest(ctx context.Context, req *storageSvc.UploadBatchRequest) (*storageSvc.UploadBatchResult, error) {
	if err := s.checkBatchLimits(req.Items); err != nil {
		return nil, err
	}

	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
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

	// Cache resolved folder-chain prefixes so a batch like
	// ["x/1.txt", "x/y/2.txt"] creates "x" exactly once.
	dirCache := map[string]*string{"": req.ParentID}

	result := &storageSvc.UploadBatchResult{Results: []storageSvc.UploadResult{}}
	for _, item := range req.Items {
		if ctx.Err() != nil {
			s.logger.Warn("upload batch interrupted",
				"owner_id", req.OwnerID,
				"completed", len(result.Results),
				"total", len(req.Items),
			)
			break
		}
		result.Results = append(result.Results, s.ingestOne(ctx, req.OwnerID, dirCache, item))
	}

	s.logger.Info("upload batch processed",
		"owner_id", req.OwnerID,
		"files", len(result.Results),
		"failed", result.ErrorCount(),
	)

	return result, nil
}

func (s *uploadService) checkBatchLimits(items []storageSvc.UploadItem) error {
	if len(items) == 0 {
		return &domain.ValidationError{Message: "no files provided"}
	}
	if len(items) > s.limits.MaxFiles {
		return &domain.BatchLimitError{
			Message: fmt.Sprintf("batch of %d files exceeds the maximum of %d", len(items), s.limits.MaxFiles),
		}
	}

	var total int64
	for _, item := range items {
		total += item.Size
	}
	if total > s.limits.MaxBatchSize {
		return &domain.BatchLimitError{
			Message: fmt.Sprintf("batch of %d bytes exceeds the maximum of %d", total, s.limits.MaxBatchSize),
		}
	}

	return nil
}

// ingestOne processes a single file of the batch and reports its outcome.
func (s *uploadService) ingestOne(ctx context.Context, ownerID string, dirCache map[string]*string, item storageSvc.UploadItem) storageSvc.UploadResult {
	folders, leaf, err := SplitRelativePath(item.RelativePath)
	if err != nil {
		return uploadFailure(item, err)
	}

	if item.Size > s.limits.MaxFileSize {
		return storageSvc.UploadResult{
			Name:         leaf,
			RelativePath: item.RelativePath,
			Status:       storageSvc.UploadStatusError,
			Error:        fmt.Sprintf("file of %d bytes exceeds the maximum of %d", item.Size, s.limits.MaxFileSize),
		}
	}

	parentID, err := s.ensureFolderChain(ctx, ownerID, folders, dirCache)
	if err != nil {
		return uploadFailure(item, err)
	}

	node, err := s.storeFile(ctx, ownerID, parentID, leaf, item)
	if err != nil {
		return uploadFailure(item, err)
	}

	return storageSvc.UploadResult{
		Name:         leaf,
		RelativePath: item.RelativePath,
		Status:       storageSvc.UploadStatusSuccess,
		ID:           node.ID,
	}
}

// ensureFolderChain walks the folder segments of a relative path, creating
// missing directories idempotently. Concurrent uploads racing on the same
// new subfolder reconcile inside CreateDirIfNotExists instead of failing.
func (s *uploadService) ensureFolderChain(ctx context.Context, ownerID string, folders []string, dirCache map[string]*string) (*string, error) {
	prefix := ""
	parentID := dirCache[""]
	for _, segment := range folders {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}

		if cached, ok := dirCache[prefix]; ok {
			parentID = cached
			continue
		}

		dir, err := s.nodeRepo.CreateDirIfNotExists(ctx, ownerID, parentID, segment)
		if err != nil {
			return nil, fmt.Errorf("failed to create folder %q: %w", segment, err)
		}
		parentID = &dir.ID
		dirCache[prefix] = parentID
	}

	return parentID, nil
}

// storeFile writes the blob, then inserts the row. Name collisions are
// overwritten: the old row goes first, then its blob, so the tree never
// references a missing row. A blob write failure leaves no row behind; a
// row failure after a successful write leaves an orphan blob, which is
// logged for out-of-band cleanup.
func (s *uploadService) storeFile(ctx context.Context, ownerID string, parentID *string, name string, item storageSvc.UploadItem) (*models.Node, error) {
	existing, err := s.nodeRepo.GetChildByName(ctx, ownerID, parentID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsDirectory() {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("a directory named %q already exists in this location", name),
				ResourceType: string(existing.Type),
				ResourceID:   existing.ID,
			}
		}
		if err := s.nodeRepo.Delete(ctx, existing.ID, ownerID); err != nil {
			return nil, fmt.Errorf("failed to replace existing file: %w", err)
		}
		if err := s.blobStore.Delete(ctx, existing.StorageKey); err != nil {
			s.logger.Error("orphan blob left in object store",
				"storage_key", existing.StorageKey,
				"node_id", existing.ID,
				"error", err,
			)
		}
	}

	now := time.Now()
	node := &models.Node{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		ParentID:    parentID,
		Type:        models.NodeTypeFile,
		Name:        name,
		SizeBytes:   item.Size,
		ContentType: item.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	node.StorageKey = BuildStorageKey(ownerID, node.ID)

	if err := s.blobStore.Put(ctx, node.StorageKey, item.Content, item.Size); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		s.logger.Error("orphan blob left in object store",
			"storage_key", node.StorageKey,
			"node_id", node.ID,
			"error", err,
		)
		return nil, err
	}

	return node, nil
}

func uploadFailure(item storageSvc.UploadItem, err error) storageSvc.UploadResult {
	return storageSvc.UploadResult{
		Name:         item.RelativePath,
		RelativePath: item.RelativePath,
		Status:       storageSvc.UploadStatusError,
		Error:        err.Error(),
	}
}
