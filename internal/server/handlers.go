package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/archive"
	"github.com/nocap-ai/nocap/internal/gateway"
	"github.com/nocap-ai/nocap/internal/lifecycle"
)

type submitRequest struct {
	ClaimText string `json:"claim_text"`
	SourceURL string `json:"source_url"`
}

type claimIDRequest struct {
	ID string `json:"id"`
}

type orchestrateRequest struct {
	Event string `json:"event"`
	CID   string `json:"cid"`
}

type computeRequest struct {
	CID          string `json:"cid"`
	OriginalName string `json:"original_name"`
}

// SubmitClaim ingests a new claim and returns 201 immediately;
// verification proceeds in the background
func SubmitClaim(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "claim_text is required"})
			return
		}

		claim, err := deps.Gateway.Submit(c.Request.Context(), req.ClaimText, req.SourceURL)
		if err != nil {
			if errors.Is(err, gateway.ErrEmptyClaim) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "claim_text is required"})
				return
			}
			deps.Logger.Error("submit failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create claim"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":     claim.ID,
			"cid":    claim.CID,
			"status": claim.Status,
		})
	}
}

// ListClaims returns the feed, newest first
func ListClaims(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := deps.Gateway.List(c.Request.Context())
		if err != nil {
			deps.Logger.Error("list failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch claims"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	}
}

// VerifyClaim runs the verify transition for a claim id
func VerifyClaim(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req claimIDRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		claim, err := deps.Engine.Verify(c.Request.Context(), req.ID)
		if err != nil {
			if errors.Is(err, lifecycle.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
				return
			}
			deps.Logger.Error("verify failed", zap.String("claim_id", req.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify claim"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":               claim.ID,
			"status":           claim.Status,
			"analysis_results": claim.AnalysisResults,
		})
	}
}

// BroadcastClaim runs the broadcast transition for a claim id
func BroadcastClaim(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req claimIDRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
			return
		}

		cid, err := deps.Engine.Broadcast(c.Request.Context(), req.ID)
		if err != nil {
			if errors.Is(err, lifecycle.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
				return
			}
			deps.Logger.Error("broadcast failed", zap.String("claim_id", req.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to broadcast claim"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"broadcast": "logged",
			"cid":       cid,
		})
	}
}

// UploadAsset accepts a multipart file and anchors it to the archive
func UploadAsset(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}
		if deps.MaxUploadBytes > 0 && fileHeader.Size > deps.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}

		cid, err := deps.Aether.Upload(c.Request.Context(), fileHeader.Filename, data)
		if err != nil {
			if errors.Is(err, archive.ErrMissingAPIKey) {
				deps.Logger.Error("upload rejected: archive key missing")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
				return
			}
			deps.Logger.Error("upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process Filecoin ingestion."})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"cid":     cid,
			"message": "File encrypted and anchored to Filecoin.",
		})
	}
}

// OrchestrateEvent simulates the task router hub
func OrchestrateEvent(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orchestrateRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Event == "" || req.CID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Event or CID"})
			return
		}

		result, err := deps.Aether.Orchestrate(c.Request.Context(), req.Event, req.CID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown Event Type"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"status":       result.Status,
			"routed_agent": result.RoutedAgent,
			"compute_node": result.ComputeNode,
		})
	}
}

// ComputeAsset runs the simulated enclave compute step
func ComputeAsset(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req computeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.CID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing CID for compute"})
			return
		}

		result, err := deps.Aether.Compute(c.Request.Context(), req.CID, req.OriginalName)
		if err != nil {
			deps.Logger.Error("compute failed", zap.String("cid", req.CID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute privacy-preserving compute."})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"result":  result,
		})
	}
}
