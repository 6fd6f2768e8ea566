// Package aether implements the simulated asset pipeline: file upload
// to the archive, a best-effort orchestration webhook, and a "secure
// enclave" compute step that retrieves the content back through public
// gateways and asks the Oracle for a report. Results are ephemeral and
// never persisted; every stage has a fallback so the pipeline always
// completes.
package aether

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/archive"
	"github.com/nocap-ai/nocap/internal/model"
	"github.com/nocap-ai/nocap/internal/oracle"
	"github.com/nocap-ai/nocap/internal/worker"
)

// Pipeline runs the upload/orchestrate/compute stages
type Pipeline struct {
	archive    archive.Uploader
	provider   oracle.Provider
	httpClient *http.Client
	limiter    *worker.Limiter
	cfg        *model.AetherConfig
	logger     *zap.Logger
}

// NewPipeline creates the aether pipeline
func NewPipeline(uploader archive.Uploader, provider oracle.Provider, cfg *model.AetherConfig, logger *zap.Logger) *Pipeline {
	rate := cfg.GatewayRate
	if rate <= 0 {
		rate = 1.0
	}

	return &Pipeline{
		archive:    uploader,
		provider:   provider,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    worker.NewLimiter(rate, cfg.GatewayBurst),
		cfg:        cfg,
		logger:     logger,
	}
}

// Upload pins the file bytes to the archive and fires the orchestration
// webhook without awaiting it. Unlike claim broadcasting, a failed
// archive upload here is fatal: there is nothing to compute without a
// cid.
func (p *Pipeline) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	cid, err := p.archive.UploadBuffer(ctx, fileName, data)
	if err != nil {
		return "", fmt.Errorf("archive upload: %w", err)
	}

	p.logger.Info("file anchored",
		zap.String("file", fileName),
		zap.String("cid", cid))

	// Best effort: orchestration failures are logged, never surfaced
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		p.triggerOrchestrator(ctx, cid, fileName)
	}()

	return cid, nil
}

// orchestratorEvent is the webhook payload announcing an anchored file
type orchestratorEvent struct {
	Event    string `json:"event"`
	CID      string `json:"cid"`
	FileName string `json:"fileName"`
	Protocol string `json:"protocol"`
}

// orchestratorTask is the workspace-API fallback payload
type orchestratorTask struct {
	Task     string            `json:"task"`
	Metadata map[string]string `json:"metadata"`
}

// triggerOrchestrator notifies the task router about an anchored file.
// The direct workflow webhook is preferred; the general workspace API
// is the fallback when a key and workspace id are configured.
func (p *Pipeline) triggerOrchestrator(ctx context.Context, cid, fileName string) {
	if p.cfg.OrchestratorWebhookURL != "" {
		event := orchestratorEvent{
			Event:    "FILE_ANCHORED",
			CID:      cid,
			FileName: fileName,
			Protocol: "Aether",
		}
		if err := p.postJSON(ctx, p.cfg.OrchestratorWebhookURL, "", event); err == nil {
			p.logger.Info("orchestrator webhook fired", zap.String("cid", cid))
			return
		} else {
			p.logger.Warn("orchestrator webhook failed, trying workspace API",
				zap.String("cid", cid),
				zap.Error(err))
		}
	}

	if p.cfg.OrchestratorAPIKey == "" || p.cfg.WorkspaceID == "" {
		p.logger.Warn("skipping orchestration: no webhook URL or API key/workspace id")
		return
	}

	task := orchestratorTask{
		Task: fmt.Sprintf("Aether Protocol: Process and summarize the decentralized file anchored at IPFS CID: %s. Source: %s", cid, fileName),
		Metadata: map[string]string{
			"cid":      cid,
			"fileName": fileName,
			"protocol": "Aether",
		},
	}
	url := fmt.Sprintf("%s/workspaces/%s/task", strings.TrimSuffix(p.cfg.OrchestratorAPIURL, "/"), p.cfg.WorkspaceID)
	if err := p.postJSON(ctx, url, p.cfg.OrchestratorAPIKey, task); err != nil {
		p.logger.Error("orchestrator workspace API failed",
			zap.String("cid", cid),
			zap.Error(err))
		return
	}
	p.logger.Info("orchestrator task dispatched", zap.String("cid", cid))
}

// postJSON posts a JSON body, optionally with a bearer token
func (p *Pipeline) postJSON(ctx context.Context, url, bearer string, body interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

// RouteResult acknowledges a routed orchestration event
type RouteResult struct {
	Status      string `json:"status"`
	RoutedAgent string `json:"routed_agent"`
	ComputeNode string `json:"compute_node"`
}

// routingDelay simulates the hub's routing latency
var routingDelay = 1500 * time.Millisecond

// Orchestrate simulates the event hub: it validates the event, delays
// as if routing, and acknowledges dispatch to the compute node. The
// hub never sees the data payload, only the cid.
func (p *Pipeline) Orchestrate(ctx context.Context, event, cid string) (*RouteResult, error) {
	if event != "FILE_ANCHORED" {
		return nil, fmt.Errorf("unknown event type: %s", event)
	}

	p.logger.Info("routing anchored file", zap.String("cid", cid))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(routingDelay):
	}

	return &RouteResult{
		Status:      "ROUTED_TO_COMPUTE",
		RoutedAgent: "Knowledge Sub-Agent",
		ComputeNode: "Aether Enclave 0x48fA...",
	}, nil
}
