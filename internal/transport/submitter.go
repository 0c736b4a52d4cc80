package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"arguesurvey/models"
)

// HTTPSubmitter posts the final payload to the save endpoint.
type HTTPSubmitter struct {
	url    string
	client *http.Client
}

// NewHTTPSubmitter has no request timeout of its own; the caller's context
// bounds the call.
func NewHTTPSubmitter(url string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSubmitter{url: url, client: client}
}

// Submit returns an error for transport failures, non-2xx statuses and
// undecodable bodies. A decoded body is returned as-is so callers can read
// success and error.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload models.SubmissionPayload) (models.SaveResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if payload.SurveyMetadata.UserAgent != "" {
		req.Header.Set("User-Agent", payload.SurveyMetadata.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("server communication error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	var result models.SaveResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.SaveResult{}, fmt.Errorf("invalid response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("server returned status %d: %s", resp.StatusCode, result.Error)
	}
	return result, nil
}
