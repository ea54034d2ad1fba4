// Package ledger posts final scores to the external value-transfer service.
// Submission is strictly best-effort: the caller logs failures and moves on.
package ledger

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Submitter is what the orchestrator calls once per participant at the end
// of a ranked match.
type Submitter interface {
	SubmitScore(ctx context.Context, matchID, address string, score int, playerID int64) (txRef string, err error)
}

// HTTPSubmitter talks to the score-posting bridge over plain HTTP.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSubmitter(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type submitReq struct {
	MatchID  string `json:"matchId"`
	Address  string `json:"address"`
	Score    int    `json:"score"`
	PlayerID int64  `json:"playerId"`
}

type submitResp struct {
	TxRef string `json:"txRef"`
}

func (s *HTTPSubmitter) SubmitScore(ctx context.Context, matchID, address string, score int, playerID int64) (string, error) {
	body, err := json.Marshal(submitReq{MatchID: matchID, Address: address, Score: score, PlayerID: playerID})
	if err != nil {
		return "", eris.Wrap(err, "ledger: marshal")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/scores", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "ledger: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ledger: post score")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", eris.Errorf("ledger: status %d", resp.StatusCode)
	}
	var out submitResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", eris.Wrap(err, "ledger: decode response")
	}
	return out.TxRef, nil
}

// Disabled is used when no ledger endpoint is configured.
type Disabled struct{}

func (Disabled) SubmitScore(context.Context, string, string, int, int64) (string, error) {
	return "", nil
}
