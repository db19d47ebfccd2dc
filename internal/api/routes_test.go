package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/signdrop/internal/config"
	"github.com/signdrop/internal/geometry"
	"github.com/signdrop/internal/pdfengine"
	"github.com/signdrop/internal/services"
	"github.com/signdrop/internal/storage"
	"github.com/signdrop/internal/store"
	"github.com/signdrop/internal/utils"
	"github.com/signdrop/pkg/metrics"
	"go.uber.org/zap"
)

type stubEngine struct{}

func (stubEngine) PageCount(ctx context.Context, pdf []byte) (int, error) { return 1, nil }

func (stubEngine) PageHeight(ctx context.Context, pdf []byte, pageIndex int) (float64, error) {
	return 792, nil
}

func (stubEngine) Stamp(ctx context.Context, pdf, img []byte, pageIndex int, box geometry.Box) ([]byte, error) {
	return append(append([]byte{}, pdf...), img...), nil
}

var _ pdfengine.Engine = stubEngine{}

type testServer struct {
	engine   *httptest.Server
	workflow *services.Workflow
	clock    *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.InitializeDefaultConfig()
	hash, err := utils.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg.Security.OperatorPasswordHash = hash

	blobs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logger := zap.NewNop()
	workflow := services.NewWorkflow(
		store.NewMemoryStore(), blobs, stubEngine{}, logger,
		metrics.NewCollector(), 7*24*time.Hour,
	).WithClock(func() time.Time { return now })

	router := NewRouter(cfg, logger, metrics.NewCollector(), workflow, services.NewSessionService(cfg, logger))
	router.SetupRoutes()

	srv := httptest.NewServer(router.GetEngine())
	t.Cleanup(srv.Close)
	return &testServer{engine: srv, workflow: workflow, clock: &now}
}

func (ts *testServer) place(t *testing.T) *services.PlaceResult {
	t.Helper()
	res, err := ts.workflow.Place(context.Background(), services.PlaceRequest{
		FileName:     "nda.pdf",
		PDF:          []byte("%PDF-1.4 test"),
		PageIndex:    0,
		Box:          geometry.Box{X: 10, Y: 20, Width: 200, Height: 100},
		CanvasHeight: 1188,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	return res
}

func signaturePayload() *bytes.Buffer {
	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake-png"))
	body, _ := json.Marshal(map[string]string{"signatureData": data})
	return bytes.NewBuffer(body)
}

func TestSignerFetchStatuses(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.engine.URL + "/api/document/no-such-token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown token status = %d, want 404", resp.StatusCode)
	}

	placed := ts.place(t)
	resp, err = http.Get(ts.engine.URL + "/api/document/" + placed.SigningToken)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var view services.SignerView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pending fetch status = %d, want 200", resp.StatusCode)
	}
	if view.OriginalName != "nda.pdf" {
		t.Fatalf("view name = %q", view.OriginalName)
	}

	*ts.clock = ts.clock.Add(8 * 24 * time.Hour)
	resp, err = http.Get(ts.engine.URL + "/api/document/" + placed.SigningToken)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("expired fetch status = %d, want 410", resp.StatusCode)
	}
}

func TestSignerSubmitConsumesLink(t *testing.T) {
	ts := newTestServer(t)
	placed := ts.place(t)

	resp, err := http.Post(ts.engine.URL+"/api/sign/"+placed.SigningToken, "application/json", signaturePayload())
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(ts.engine.URL+"/api/sign/"+placed.SigningToken, "application/json", signaturePayload())
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("second submit status = %d, want 400", resp.StatusCode)
	}
}

func TestOperatorSurfaceRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.engine.URL + "/api/documents")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list status = %d, want 401", resp.StatusCode)
	}

	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	resp, err = http.Post(ts.engine.URL+"/api/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}

	body, _ = json.Marshal(map[string]string{"password": "hunter2"})
	resp, err = http.Post(ts.engine.URL+"/api/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || login.Token == "" {
		t.Fatalf("login status = %d token = %q", resp.StatusCode, login.Token)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.engine.URL+"/api/documents", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	var docs []services.DocumentSummary
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated list status = %d, want 200", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.engine.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
}
