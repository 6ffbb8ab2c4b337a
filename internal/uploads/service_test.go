package uploads

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OpenNSW/tradestats/internal/trade/model"
	"github.com/OpenNSW/tradestats/internal/uploads/drivers"
)

// MockDriver implements StorageDriver for testing
type MockDriver struct {
	SavedKey       string
	SavedBody      []byte
	SavedInfo      drivers.ObjectInfo
	GenerateURLErr error
	DeleteCalled   bool
	DeleteKey      string
}

func (m *MockDriver) Save(ctx context.Context, key string, body io.Reader, info drivers.ObjectInfo) error {
	m.SavedKey = key
	m.SavedInfo = info
	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.SavedBody = content
	return nil
}

func (m *MockDriver) Get(ctx context.Context, key string) (io.ReadCloser, drivers.ObjectInfo, error) {
	if _, err := drivers.CleanKey(key); err != nil {
		return nil, drivers.ObjectInfo{}, err
	}
	if key != m.SavedKey {
		return nil, drivers.ObjectInfo{}, io.EOF
	}
	return io.NopCloser(bytes.NewReader(m.SavedBody)), m.SavedInfo, nil
}

func (m *MockDriver) Delete(ctx context.Context, key string) error {
	m.DeleteCalled = true
	m.DeleteKey = key
	return nil
}

func (m *MockDriver) GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if m.GenerateURLErr != nil {
		return "", m.GenerateURLErr
	}
	return "/test/" + key, nil
}

func TestArchiveService_Store(t *testing.T) {
	mock := &MockDriver{}
	service := NewArchiveService(mock)

	ctx := context.Background()
	filename := "Exports-May.XLSX"
	content := []byte("workbook bytes")

	metadata, err := service.Store(ctx, model.TradeFlowExport, filename, bytes.NewReader(content), int64(len(content)), "application/octet-stream")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if metadata.Name != filename {
		t.Errorf("expected name %s, got %s", filename, metadata.Name)
	}
	if !strings.HasPrefix(mock.SavedKey, "EXPORT/") || !strings.HasSuffix(mock.SavedKey, ".xlsx") {
		t.Errorf("unexpected key: %s", mock.SavedKey)
	}
	if metadata.MimeType != ContentTypeXLSX || mock.SavedInfo.ContentType != ContentTypeXLSX {
		t.Errorf("expected xlsx content type, got %s", metadata.MimeType)
	}
	if mock.SavedInfo.OriginalName != filename {
		t.Errorf("expected original name to be recorded, got %q", mock.SavedInfo.OriginalName)
	}
	if !bytes.Equal(mock.SavedBody, content) {
		t.Error("saved body does not match input")
	}
	if metadata.URL != "/test/"+mock.SavedKey {
		t.Errorf("unexpected URL: %s", metadata.URL)
	}
}

func TestArchiveService_StoreRejectsUnknownFlow(t *testing.T) {
	service := NewArchiveService(&MockDriver{})
	_, err := service.Store(context.Background(), model.TradeFlow("TRANSIT"), "a.csv", strings.NewReader("x"), 1, "")
	if err == nil {
		t.Fatal("expected an error for an unknown flow")
	}
}

func TestArchiveService_GenerateURLFailure(t *testing.T) {
	mock := &MockDriver{
		GenerateURLErr: io.ErrUnexpectedEOF,
	}
	service := NewArchiveService(mock)

	_, err := service.Store(context.Background(), model.TradeFlowImport, "imports.csv", strings.NewReader("a,b"), 3, "")
	if err == nil {
		t.Fatal("expected Store to fail when GenerateURL fails")
	}
	if !mock.DeleteCalled {
		t.Error("expected Delete to be called to cleanup orphaned file")
	}
	if mock.DeleteKey != mock.SavedKey {
		t.Errorf("expected Delete to be called with key %s, got %s", mock.SavedKey, mock.DeleteKey)
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-9a38-4c8b-9d1e-1f4a0b3c2d10")
	got := ObjectKey(model.TradeFlowImport, id, "imports.CSV")
	if got != "IMPORT/6f1c2a52-9a38-4c8b-9d1e-1f4a0b3c2d10.csv" {
		t.Errorf("unexpected key: %s", got)
	}
}

func TestEndpointURL(t *testing.T) {
	cases := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"http://localhost:9000", true, "http://localhost:9000"},
	}
	for _, tc := range cases {
		if got := endpointURL(tc.endpoint, tc.useSSL); got != tc.want {
			t.Errorf("endpointURL(%q, %v) = %q, want %q", tc.endpoint, tc.useSSL, got, tc.want)
		}
	}
}

func TestHTTPHandler_Download(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &MockDriver{}
	service := NewArchiveService(mock)
	meta, err := service.Store(context.Background(), model.TradeFlowExport, "exports.csv", strings.NewReader("SHORT_DESC\n"), 11, "")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	router := gin.New()
	router.GET("/uploads/*key", NewHTTPHandler(service).Download)

	tests := []struct {
		path   string
		status int
	}{
		{"/uploads/" + meta.Key, http.StatusOK},
		{"/uploads/EXPORT/missing.csv", http.StatusNotFound},
		{"/uploads/EXPORT/../../etc/passwd", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/uploads/x", nil)
		req.URL.Path = tt.path
		router.ServeHTTP(w, req)
		if w.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.status, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+meta.Key, nil))
	if w.Body.String() != "SHORT_DESC\n" {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != ContentTypeCSV {
		t.Errorf("unexpected content type: %s", got)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "exports.csv") {
		t.Errorf("unexpected disposition: %s", w.Header().Get("Content-Disposition"))
	}
}
