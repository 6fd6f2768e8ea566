package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nocap-ai/nocap/internal/model"
)

var (
	submitServerURL string
	submitSourceURL string
	submitWatch     bool
	submitTimeout   time.Duration
)

// submitCmd posts a claim to a running nocap server
var submitCmd = &cobra.Command{
	Use:   "submit <claim text>",
	Short: "Submit a claim to a running nocap server",
	Long: `Submit posts a claim to the ingestion endpoint of a running server
and prints the assigned id. With --watch it polls the feed until the
claim reaches a terminal state.

Example:
  nocap submit "The Eiffel Tower is in Berlin"
  nocap submit --watch --source https://example.com/article "X is true"`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitServerURL, "server", "http://localhost:8080", "base URL of the nocap server")
	submitCmd.Flags().StringVar(&submitSourceURL, "source", "", "optional source URL for the claim")
	submitCmd.Flags().BoolVar(&submitWatch, "watch", false, "poll the feed until the claim is broadcasted")
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 5*time.Minute, "overall watch timeout")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), submitTimeout)
	defer cancel()

	client := &http.Client{Timeout: 30 * time.Second}

	body, _ := json.Marshal(map[string]string{
		"claim_text": args[0],
		"source_url": submitSourceURL,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitServerURL+"/api/claim", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit claim: %w", err)
	}
	respBody, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("submit failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var created struct {
		ID     string `json:"id"`
		CID    string `json:"cid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	fmt.Printf("✓ Claim submitted: %s (status %s)\n", created.ID, created.Status)

	if !submitWatch {
		return nil
	}

	return watchClaim(ctx, client, created.ID)
}

// watchClaim polls the feed until the claim reaches BROADCASTED,
// printing each observed status change
func watchClaim(ctx context.Context, client *http.Client, id string) error {
	lastStatus := model.ClaimStatus("")

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("watch timed out")
		case <-time.After(2 * time.Second):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, submitServerURL+"/api/claim", nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "poll failed: %v\n", err)
			continue
		}

		var feed struct {
			Claims []model.Claim `json:"claims"`
		}
		err = json.NewDecoder(resp.Body).Decode(&feed)
		_ = resp.Body.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode feed: %v\n", err)
			continue
		}

		for _, claim := range feed.Claims {
			if claim.ID != id {
				continue
			}
			if claim.Status != lastStatus {
				lastStatus = claim.Status
				fmt.Printf("  → %s\n", claim.Status)
				if claim.AnalysisResults != nil {
					fmt.Printf("    truth score: %d/100\n", claim.AnalysisResults.TruthScore)
				}
			}
			if claim.Status == model.StatusBroadcasted {
				fmt.Printf("✓ Broadcast complete, cid: %s\n", claim.CID)
				return nil
			}
		}
	}
}
