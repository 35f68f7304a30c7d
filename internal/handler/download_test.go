package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	models "github.com/Gichie/CloudFileStorage/internal/domain/models/storage"
	storageSvc "github.com/Gichie/CloudFileStorage/internal/domain/services/storage"
	"github.com/Gichie/CloudFileStorage/internal/httputil"
)

// stubTreeService serves a single canned node; only GetNode matters here.
type stubTreeService struct {
	node *models.Node
	err  error
}

func (s *stubTreeService) CreateFolder(ctx context.Context, req *storageSvc.CreateFolderRequest) (*models.Node, error) {
	return nil, nil
}

func (s *stubTreeService) GetNode(ctx context.Context, ownerID, nodeID string) (*models.Node, error) {
	return s.node, s.err
}

func (s *stubTreeService) ListByPath(ctx context.Context, ownerID, path string) (*storageSvc.Listing, error) {
	return nil, nil
}

func (s *stubTreeService) UpdateNode(ctx context.Context, ownerID, nodeID string, req *storageSvc.UpdateNodeRequest) (*models.Node, error) {
	return nil, nil
}

func (s *stubTreeService) DeleteNode(ctx context.Context, ownerID, nodeID string) error {
	return nil
}

type stubDownloadService struct {
	archiveCalled bool
}

func (s *stubDownloadService) OpenFile(ctx context.Context, ownerID, fileID string) (*models.Node, io.ReadCloser, error) {
	return nil, nil, nil
}

func (s *stubDownloadService) WriteArchive(ctx context.Context, w io.Writer, ownerID, dirID string) error {
	s.archiveCalled = true
	_, err := w.Write([]byte("PK"))
	return err
}

func getArchive(t *testing.T, h *DownloadHandler, nodeID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/folders/"+nodeID+"/download", nil)
	req.SetPathValue("id", nodeID)
	req = httputil.WithUserID(req, "user-1")
	rr := httptest.NewRecorder()
	h.DownloadArchive(rr, req)
	return rr
}

func TestDownloadArchive_Directory(t *testing.T) {
	tree := &stubTreeService{node: &models.Node{ID: "dir-1", Name: "Docs", Type: models.NodeTypeDirectory}}
	dl := &stubDownloadService{}
	h := NewDownloadHandler(tree, dl, discardLogger())

	rr := getArchive(t, h, "dir-1")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", got)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "Docs.zip") {
		t.Errorf("Content-Disposition = %q, want it to name Docs.zip", got)
	}
	if !dl.archiveCalled {
		t.Error("WriteArchive was not called")
	}
}

func TestDownloadArchive_FileIDRejected(t *testing.T) {
	tree := &stubTreeService{node: &models.Node{ID: "file-1", Name: "report.txt", Type: models.NodeTypeFile}}
	dl := &stubDownloadService{}
	h := NewDownloadHandler(tree, dl, discardLogger())

	rr := getArchive(t, h, "file-1")

	// The check has to happen before any zip headers are committed, so the
	// client gets a problem document instead of a 200 with an empty body.
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", got)
	}
	if dl.archiveCalled {
		t.Error("WriteArchive should not be called for a file node")
	}
}
