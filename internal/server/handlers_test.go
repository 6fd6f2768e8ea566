package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/aether"
	"github.com/nocap-ai/nocap/internal/archive"
	"github.com/nocap-ai/nocap/internal/broadcastlog"
	"github.com/nocap-ai/nocap/internal/gateway"
	"github.com/nocap-ai/nocap/internal/lifecycle"
	"github.com/nocap-ai/nocap/internal/model"
	"github.com/nocap-ai/nocap/internal/notify"
	"github.com/nocap-ai/nocap/internal/oracle"
	"github.com/nocap-ai/nocap/internal/store"
	"github.com/nocap-ai/nocap/internal/worker"
)

// stubProvider returns a canned oracle response
type stubProvider struct {
	response string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, req oracle.GenerateRequest) (*oracle.GenerateResponse, error) {
	return &oracle.GenerateResponse{Text: p.response, Model: "stub"}, nil
}

func (p *stubProvider) IsAvailable(ctx context.Context) bool { return true }

// stubUploader returns a fixed cid or the missing-key error
type stubUploader struct {
	cid string
	err error
}

func (u *stubUploader) UploadText(ctx context.Context, text string) (string, error) {
	return u.UploadBuffer(ctx, "claim.json", []byte(text))
}

func (u *stubUploader) UploadBuffer(ctx context.Context, name string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.cid, nil
}

// inlineSched runs each job synchronously so tests observe the whole
// lifecycle within a single request
type inlineSched struct{}

func (inlineSched) Schedule(job worker.Job) error {
	return job.Execute(context.Background())
}

type testHarness struct {
	router  *gin.Engine
	store   store.Store
	logPath string
}

func newTestHarness(t *testing.T, provider oracle.Provider, uploader archive.Uploader) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	claimStore := store.NewMemoryStore()
	logPath := filepath.Join(t.TempDir(), "broadcast.log")

	engine := lifecycle.NewEngine(
		claimStore,
		oracle.NewAnalyzerWithProvider(provider),
		uploader,
		notify.NewDiscordNotifier(&model.NotifyConfig{}),
		broadcastlog.NewFileLog(logPath),
		inlineSched{},
		logger,
	)
	gw := gateway.New(claimStore, engine, inlineSched{}, logger)

	pipeline := aether.NewPipeline(uploader, provider, &model.AetherConfig{
		Gateways:          []string{"http://127.0.0.1:1/ipfs/"},
		RetrievalAttempts: 1,
		GatewayRate:       1000,
		GatewayBurst:      1000,
	}, logger)

	router := gin.New()
	SetupRoutes(router, Deps{
		Gateway:        gw,
		Engine:         engine,
		Aether:         pipeline,
		Logger:         logger,
		MaxUploadBytes: 10 << 20,
	})

	return &testHarness{router: router, store: claimStore, logPath: logPath}
}

func (h *testHarness) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestSubmitClaim_Validation(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing text", map[string]string{"source_url": "https://x"}},
		{"empty text", map[string]string{"claim_text": "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.postJSON(t, "/api/claim", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "claim_text is required", decodeBody(t, w)["error"])
		})
	}
}

func TestVerifyClaim_Validation(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	w := h.postJSON(t, "/api/verify", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.postJSON(t, "/api/verify", map[string]string{"id": "no-such-claim"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Claim not found", decodeBody(t, w)["error"])
}

func TestBroadcastClaim_NotFound(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	w := h.postJSON(t, "/api/broadcast", map[string]string{"id": "no-such-claim"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrchestrateEvent_Validation(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	w := h.postJSON(t, "/api/orchestrate", map[string]string{"cid": "bafy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing Event or CID", decodeBody(t, w)["error"])

	w = h.postJSON(t, "/api/orchestrate", map[string]string{"event": "FILE_DELETED", "cid": "bafy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown Event Type", decodeBody(t, w)["error"])
}

func TestComputeAsset_Validation(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	w := h.postJSON(t, "/api/compute", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing CID for compute", decodeBody(t, w)["error"])
}

func TestUploadAsset_NoFile(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file provided", decodeBody(t, w)["error"])
}

func TestUploadAsset_Success(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{cid: "bafyupload"})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "evidence.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("file payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "bafyupload", resp["cid"])
	assert.Equal(t, "File encrypted and anchored to Filecoin.", resp["message"])
}

func TestUploadAsset_MissingArchiveKey(t *testing.T) {
	h := newTestHarness(t, &stubProvider{}, &stubUploader{err: archive.ErrMissingAPIKey})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "evidence.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("x"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server configuration error", decodeBody(t, w)["error"])
}

// TestClaimLifecycle_EndToEnd drives a claim from submission through
// broadcast: the inline scheduler makes the whole chain run inside the
// submit request.
func TestClaimLifecycle_EndToEnd(t *testing.T) {
	provider := &stubProvider{
		response: `{"truth_score": 80, "propaganda_flags": [], "summary": "Independently confirmed."}`,
	}
	h := newTestHarness(t, provider, &stubUploader{err: archive.ErrMissingAPIKey})

	w := h.postJSON(t, "/api/claim", map[string]string{"claim_text": "X is true"})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody(t, w)
	id := created["id"].(string)
	require.NotEmpty(t, id)
	assert.True(t, strings.HasPrefix(created["cid"].(string), "pending-ipfs-"))

	// The chain already ran: the stored claim is terminal
	stored, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBroadcasted, stored.Status)
	require.NotNil(t, stored.AnalysisResults)
	assert.Equal(t, 80, stored.AnalysisResults.TruthScore)
	// No archive credentials, so the placeholder cid survives
	assert.True(t, strings.HasPrefix(stored.CID, "pending-ipfs-"))

	logContent, err := os.ReadFile(h.logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logContent), "✅ VERIFIED")
	assert.Contains(t, string(logContent), "Truth Score: 80/100")
	assert.Contains(t, string(logContent), `"X is true"`)

	// The feed shows the terminal claim
	req := httptest.NewRequest(http.MethodGet, "/api/claim", nil)
	feedW := httptest.NewRecorder()
	h.router.ServeHTTP(feedW, req)
	require.Equal(t, http.StatusOK, feedW.Code)

	var feed struct {
		Claims []model.Claim `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(feedW.Body.Bytes(), &feed))
	require.Len(t, feed.Claims, 1)
	assert.Equal(t, model.StatusBroadcasted, feed.Claims[0].Status)
}

// TestVerifyClaim_DebunkedFlow re-drives verification explicitly over
// the HTTP surface
func TestVerifyClaim_DebunkedFlow(t *testing.T) {
	provider := &stubProvider{
		response: `{"truth_score": 10, "propaganda_flags": ["FEAR_MONGERING"], "summary": "No supporting evidence."}`,
	}
	h := newTestHarness(t, provider, &stubUploader{cid: "bafyarchived"})

	w := h.postJSON(t, "/api/claim", map[string]string{"claim_text": "Doomsday is tomorrow"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["id"].(string)

	w = h.postJSON(t, "/api/verify", map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, string(model.StatusDebunked), resp["status"])

	w = h.postJSON(t, "/api/broadcast", map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code)

	resp = decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "logged", resp["broadcast"])
	assert.Equal(t, "bafyarchived", resp["cid"])

	logContent, err := os.ReadFile(h.logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logContent), "❌ DEBUNKED")
	assert.Contains(t, string(logContent), "   • FEAR_MONGERING")
}
