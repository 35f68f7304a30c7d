package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Gichie/CloudFileStorage/internal/domain"
	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

const testOwner = "11111111-1111-1111-1111-111111111111"

func newTestTreeService(repo *fakeNodeRepo, blobs *fakeBlobStore) storageSvc.TreeService {
	resolver := NewPathResolver(repo)
	return NewTreeService(repo, blobs, resolver, fakeTxManager{}, testLogger())
}

func seedDir(t *testing.T, repo *fakeNodeRepo, ownerID string, parentID *string, name string) *models.Node {
	t.Helper()
	dir := &models.Node{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		ParentID: parentID,
		Type:     models.NodeTypeDirectory,
		Name:     name,
	}
	if err := repo.Create(context.Background(), dir); err != nil {
		t.Fatalf("seed dir %q: %v", name, err)
	}
	return dir
}

func seedFile(t *testing.T, repo *fakeNodeRepo, blobs *fakeBlobStore, ownerID string, parentID *string, name, content string) *models.Node {
	t.Helper()
	file := &models.Node{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ParentID:  parentID,
		Type:      models.NodeTypeFile,
		Name:      name,
		SizeBytes: int64(len(content)),
		UpdatedAt: time.Now(),
	}
	file.StorageKey = BuildStorageKey(ownerID, file.ID)
	if err := repo.Create(context.Background(), file); err != nil {
		t.Fatalf("seed file %q: %v", name, err)
	}
	if blobs != nil {
		blobs.objects[file.StorageKey] = []byte(content)
	}
	return file
}

func TestCreateFolder(t *testing.T) {
	tests := []struct {
		name      string
		folder    string
		wantErr   error
		wantField string
	}{
		{name: "valid name", folder: "Documents"},
		{name: "empty name", folder: "   ", wantErr: domain.ErrValidation},
		{name: "name with slash", folder: "a/b", wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeNodeRepo()
			svc := newTestTreeService(repo, newFakeBlobStore())

			folder, err := svc.CreateFolder(context.Background(), &storageSvc.CreateFolderRequest{
				OwnerID: testOwner,
				Name:    tt.folder,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateFolder failed: %v", err)
			}
			if folder.ID == "" {
				t.Error("expected folder to get an ID")
			}
			if folder.Path != "Documents" {
				t.Errorf("expected path 'Documents', got %q", folder.Path)
			}
		})
	}
}

func TestCreateFolder_DuplicateSibling(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	existing := seedDir(t, repo, testOwner, nil, "Documents")

	_, err := svc.CreateFolder(context.Background(), &storageSvc.CreateFolderRequest{
		OwnerID: testOwner,
		Name:    "Documents",
	})

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ResourceID != existing.ID {
		t.Errorf("expected conflict to reference %s, got %s", existing.ID, conflict.ResourceID)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}
}

func TestCreateFolder_ParentIsFile(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	file := seedFile(t, repo, blobs, testOwner, nil, "notes.txt", "hi")

	_, err := svc.CreateFolder(context.Background(), &storageSvc.CreateFolderRequest{
		OwnerID:  testOwner,
		ParentID: &file.ID,
		Name:     "sub",
	})

	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateNode_Rename(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	dir := seedDir(t, repo, testOwner, nil, "Docs")

	newName := "Documents"
	updated, err := svc.UpdateNode(context.Background(), testOwner, dir.ID, &storageSvc.UpdateNodeRequest{
		Name: &newName,
	})
	if err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}
	if updated.Name != "Documents" {
		t.Errorf("expected name 'Documents', got %q", updated.Name)
	}
	if updated.Path != "Documents" {
		t.Errorf("expected path 'Documents', got %q", updated.Path)
	}
}

func TestUpdateNode_RenamePreservesStorageKey(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	file := seedFile(t, repo, blobs, testOwner, nil, "a.txt", "data")
	originalKey := file.StorageKey

	newName := "b.txt"
	if _, err := svc.UpdateNode(context.Background(), testOwner, file.ID, &storageSvc.UpdateNodeRequest{
		Name: &newName,
	}); err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}

	stored := repo.nodes[file.ID]
	if stored.StorageKey != originalKey {
		t.Errorf("storage key changed on rename: %q -> %q", originalKey, stored.StorageKey)
	}
	if _, ok := blobs.objects[originalKey]; !ok {
		t.Error("blob must stay at its original key after rename")
	}
}

func TestUpdateNode_Move(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	docs := seedDir(t, repo, testOwner, nil, "Docs")
	file := seedFile(t, repo, blobs, testOwner, nil, "a.txt", "data")

	if _, err := svc.UpdateNode(context.Background(), testOwner, file.ID, &storageSvc.UpdateNodeRequest{
		ParentID: newPresentParent(&docs.ID),
	}); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	stored := repo.nodes[file.ID]
	if stored.ParentID == nil || *stored.ParentID != docs.ID {
		t.Errorf("expected parent %s, got %v", docs.ID, stored.ParentID)
	}
}

func TestUpdateNode_MoveToRoot(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	docs := seedDir(t, repo, testOwner, nil, "Docs")
	sub := seedDir(t, repo, testOwner, &docs.ID, "Sub")

	if _, err := svc.UpdateNode(context.Background(), testOwner, sub.ID, &storageSvc.UpdateNodeRequest{
		ParentID: newPresentParent(nil),
	}); err != nil {
		t.Fatalf("move to root failed: %v", err)
	}

	if repo.nodes[sub.ID].ParentID != nil {
		t.Error("expected parent to be nil after move to root")
	}
}

func TestUpdateNode_CycleDetection(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	a := seedDir(t, repo, testOwner, nil, "A")
	b := seedDir(t, repo, testOwner, &a.ID, "B")
	c := seedDir(t, repo, testOwner, &b.ID, "C")

	tests := []struct {
		name   string
		nodeID string
		destID string
	}{
		{name: "into itself", nodeID: a.ID, destID: a.ID},
		{name: "into direct child", nodeID: a.ID, destID: b.ID},
		{name: "into deep descendant", nodeID: a.ID, destID: c.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateNode(context.Background(), testOwner, tt.nodeID, &storageSvc.UpdateNodeRequest{
				ParentID: newPresentParent(&tt.destID),
			})
			if !errors.Is(err, domain.ErrCycle) {
				t.Fatalf("expected cycle error, got %v", err)
			}
			// Tree must be unchanged
			if repo.nodes[tt.nodeID].ParentID != nil {
				t.Error("node moved despite cycle rejection")
			}
		})
	}
}

func TestUpdateNode_FileMoveSkipsCycleCheck(t *testing.T) {
	// Files cannot create cycles; moving one into any directory is fine.
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	a := seedDir(t, repo, testOwner, nil, "A")
	b := seedDir(t, repo, testOwner, &a.ID, "B")
	file := seedFile(t, repo, blobs, testOwner, &a.ID, "f.txt", "x")

	if _, err := svc.UpdateNode(context.Background(), testOwner, file.ID, &storageSvc.UpdateNodeRequest{
		ParentID: newPresentParent(&b.ID),
	}); err != nil {
		t.Fatalf("file move failed: %v", err)
	}
}

func TestUpdateNode_CrossOwnerDestination(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	otherOwner := "22222222-2222-2222-2222-222222222222"
	theirs := seedDir(t, repo, otherOwner, nil, "Theirs")
	mine := seedDir(t, repo, testOwner, nil, "Mine")

	_, err := svc.UpdateNode(context.Background(), testOwner, mine.ID, &storageSvc.UpdateNodeRequest{
		ParentID: newPresentParent(&theirs.ID),
	})
	if !errors.Is(err, domain.ErrCrossOwner) {
		t.Fatalf("expected cross-owner error, got %v", err)
	}
}

func TestUpdateNode_SiblingConflictInDestination(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	docs := seedDir(t, repo, testOwner, nil, "Docs")
	seedFile(t, repo, blobs, testOwner, &docs.ID, "a.txt", "existing")
	file := seedFile(t, repo, blobs, testOwner, nil, "a.txt", "moving")

	_, err := svc.UpdateNode(context.Background(), testOwner, file.ID, &storageSvc.UpdateNodeRequest{
		ParentID: newPresentParent(&docs.ID),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateNode_NoFieldsProvided(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	dir := seedDir(t, repo, testOwner, nil, "Docs")

	_, err := svc.UpdateNode(context.Background(), testOwner, dir.ID, &storageSvc.UpdateNodeRequest{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteNode_File(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	file := seedFile(t, repo, blobs, testOwner, nil, "a.txt", "data")

	if err := svc.DeleteNode(context.Background(), testOwner, file.ID); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}

	if _, ok := repo.nodes[file.ID]; ok {
		t.Error("row still present after delete")
	}
	if _, ok := blobs.objects[file.StorageKey]; ok {
		t.Error("blob still present after delete")
	}
}

func TestDeleteNode_BlobFailureDoesNotFailDelete(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	file := seedFile(t, repo, blobs, testOwner, nil, "a.txt", "data")
	blobs.deleteErr[file.StorageKey] = errors.New("s3 unavailable")

	if err := svc.DeleteNode(context.Background(), testOwner, file.ID); err != nil {
		t.Fatalf("delete should succeed despite blob failure, got %v", err)
	}
	if _, ok := repo.nodes[file.ID]; ok {
		t.Error("row should be gone; the blob is an orphan, not a rollback")
	}
}

func TestDeleteNode_DirectoryCascade(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	root := seedDir(t, repo, testOwner, nil, "Root")
	sub := seedDir(t, repo, testOwner, &root.ID, "Sub")
	f1 := seedFile(t, repo, blobs, testOwner, &root.ID, "a.txt", "a")
	f2 := seedFile(t, repo, blobs, testOwner, &sub.ID, "b.txt", "b")

	if err := svc.DeleteNode(context.Background(), testOwner, root.ID); err != nil {
		t.Fatalf("cascade delete failed: %v", err)
	}

	if len(repo.nodes) != 0 {
		t.Errorf("expected empty tree, %d rows remain", len(repo.nodes))
	}
	for _, key := range []string{f1.StorageKey, f2.StorageKey} {
		if _, ok := blobs.objects[key]; ok {
			t.Errorf("blob %s still present after cascade", key)
		}
	}
	if len(blobs.deletes) != 2 {
		t.Errorf("expected 2 blob deletions, got %d", len(blobs.deletes))
	}
}

func TestDeleteNode_PartialFailureReportsRemaining(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	root := seedDir(t, repo, testOwner, nil, "Root")
	sub := seedDir(t, repo, testOwner, &root.ID, "Sub")
	deep := seedFile(t, repo, blobs, testOwner, &sub.ID, "deep.txt", "x")

	// Deepest-first: deep.txt goes first, then Sub fails.
	repo.deleteErr[sub.ID] = errors.New("connection reset")

	err := svc.DeleteNode(context.Background(), testOwner, root.ID)

	var partial *domain.PartialDeleteError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialDeleteError, got %v", err)
	}
	if _, ok := repo.nodes[deep.ID]; ok {
		t.Error("deepest file should have been deleted before the failure")
	}
	want := map[string]bool{sub.ID: true, root.ID: true}
	if len(partial.Remaining) != len(want) {
		t.Fatalf("expected %d remaining ids, got %v", len(want), partial.Remaining)
	}
	for _, id := range partial.Remaining {
		if !want[id] {
			t.Errorf("unexpected remaining id %s", id)
		}
	}
}

func TestDeleteNode_NotFound(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())

	err := svc.DeleteNode(context.Background(), testOwner, uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByPath(t *testing.T) {
	repo := newFakeNodeRepo()
	blobs := newFakeBlobStore()
	svc := newTestTreeService(repo, blobs)
	docs := seedDir(t, repo, testOwner, nil, "Docs")
	seedDir(t, repo, testOwner, &docs.ID, "Sub")
	seedFile(t, repo, blobs, testOwner, &docs.ID, "a.txt", "a")

	listing, err := svc.ListByPath(context.Background(), testOwner, "Docs")
	if err != nil {
		t.Fatalf("ListByPath failed: %v", err)
	}

	if listing.Directory == nil || listing.Directory.ID != docs.ID {
		t.Fatal("expected listing to resolve the Docs directory")
	}
	if len(listing.Nodes) != 2 {
		t.Fatalf("expected 2 children, got %d", len(listing.Nodes))
	}
	// Directories sort before files
	if listing.Nodes[0].Name != "Sub" || listing.Nodes[1].Name != "a.txt" {
		t.Errorf("unexpected child order: %s, %s", listing.Nodes[0].Name, listing.Nodes[1].Name)
	}
	if listing.Nodes[1].Path != "Docs/a.txt" {
		t.Errorf("expected child path 'Docs/a.txt', got %q", listing.Nodes[1].Path)
	}
}

func TestListByPath_Root(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())
	seedDir(t, repo, testOwner, nil, "Docs")

	listing, err := svc.ListByPath(context.Background(), testOwner, "")
	if err != nil {
		t.Fatalf("ListByPath failed: %v", err)
	}
	if listing.Directory != nil {
		t.Error("root listing should have no directory entity")
	}
	if len(listing.Breadcrumbs) != 0 {
		t.Errorf("root should have no breadcrumbs, got %d", len(listing.Breadcrumbs))
	}
	if len(listing.Nodes) != 1 {
		t.Errorf("expected 1 child at root, got %d", len(listing.Nodes))
	}
}

func TestListByPath_MissingDirectory(t *testing.T) {
	repo := newFakeNodeRepo()
	svc := newTestTreeService(repo, newFakeBlobStore())

	_, err := svc.ListByPath(context.Background(), testOwner, "nope/nothing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func newPresentParent(id *string) httputil.OptionalString {
	return httputil.OptionalString{Present: true, Value: id}
}
