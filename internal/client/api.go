package client

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

	"wordbuilder/internal/models"
)

const (
	fetchTimeout = 30 * time.Second
	pushTimeout  = 45 * time.Second
)

// StatusError is a non-2xx response from the server. 4xx responses mean the
// request itself is wrong and will not succeed on retry.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Terminal reports whether retrying the same request is pointless.
func (e *StatusError) Terminal() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// APIClient talks to the progress server. It owns the translation between
// the server's snake_case wire shapes and the client's camelCase records.
type APIClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewAPIClient(baseURL string, log *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log,
	}
}

// FetchProgress reads the server's copy of a session's progress.
func (c *APIClient) FetchProgress(ctx context.Context, sessionID string) (*models.ProgressReadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/progress/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("building fetch request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching progress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result models.ProgressReadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding progress response: %w", err)
	}

	c.log.Debug("fetched progress",
		zap.String("sessionId", sessionID),
		zap.Int("levels", len(result.Levels)))
	return &result, nil
}

// PushProgress sends one delta update to the server.
func (c *APIClient) PushProgress(ctx context.Context, update *models.ProgressUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encoding progress update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/progress", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pushing progress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(data))

	var wire struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &wire) == nil && wire.Error != "" {
		msg = wire.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}

// recordFromWire converts a server level entry to the client record shape.
// The server does not serve raw attempts on this read, so the converted
// record carries none; local attempts survive the merge untouched.
func recordFromWire(sessionID string, lp models.LevelProgress) models.ProgressRecord {
	return models.ProgressRecord{
		SessionID:        sessionID,
		Level:            lp.Level,
		WordsCompleted:   lp.WordsCompleted,
		TotalAttempts:    lp.TotalAttempts,
		CorrectAttempts:  lp.CorrectAttempts,
		CurrentStreak:    lp.CurrentStreak,
		BestStreak:       lp.BestStreak,
		TimeSpentSeconds: lp.TimeSpent,
		LastPlayedAt:     lp.LastPlayedAt,
	}
}
