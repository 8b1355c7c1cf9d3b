package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// Client talks to the document-engine sidecar over HTTP. Open creates an
// engine-side session and returns the full object graph; Close releases it.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "http://localhost:7001"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		httpClient: config.HTTPClient,
	}
}

type openResponse struct {
	SessionID string           `json:"session_id"`
	Graph     *RawPresentation `json:"graph"`
}

func (c *Client) Open(ctx context.Context, filePath string) (Document, error) {
	payload, err := json.Marshal(map[string]string{"file_path": filePath})
	if err != nil {
		return nil, fmt.Errorf("marshal open payload: %w", err)
	}

	body, err := c.call(ctx, http.MethodPost, "/sessions", payload)
	if err != nil {
		return nil, err
	}

	var decoded openResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode open response: %w", err)
	}
	if decoded.Graph == nil {
		return nil, errors.New("engine returned session without object graph")
	}

	return &session{client: c, id: decoded.SessionID, graph: decoded.Graph}, nil
}

func (c *Client) Build(ctx context.Context, document json.RawMessage) ([]byte, error) {
	payload, err := json.Marshal(map[string]json.RawMessage{"document": document})
	if err != nil {
		return nil, fmt.Errorf("marshal build payload: %w", err)
	}

	body, err := c.call(ctx, http.MethodPost, "/build", payload)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Data []byte `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode build response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("engine build returned empty document")
	}
	return decoded.Data, nil
}

type session struct {
	client *Client
	id     string
	graph  *RawPresentation
}

func (s *session) Graph() *RawPresentation {
	return s.graph
}

func (s *session) Render(ctx context.Context, opts RenderOptions) ([]Asset, error) {
	payload, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}

	body, err := s.client.call(ctx, http.MethodPost, "/sessions/"+s.id+"/render", payload)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Assets []Asset `json:"assets"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode render response: %w", err)
	}
	return decoded.Assets, nil
}

func (s *session) Close(ctx context.Context) error {
	_, err := s.client.call(ctx, http.MethodDelete, "/sessions/"+s.id, nil)
	return err
}

func (c *Client) call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, callErr := c.doRequest(ctx, method, path, payload)
		if callErr == nil {
			return body, nil
		}
		lastErr = callErr

		if !isRetryableEngineError(callErr) || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(350*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(timeoutCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create engine request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("engine timeout: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read engine body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, engineStatusError(response.StatusCode, body)
	}
	return body, nil
}

func engineStatusError(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	if len(message) > 700 {
		message = message[:700]
	}

	switch statusCode {
	case http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, message)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrCorruptDocument, message)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, message)
	default:
		return &engineHTTPError{StatusCode: statusCode, Message: message}
	}
}

type engineHTTPError struct {
	StatusCode int
	Message    string
}

func (e *engineHTTPError) Error() string {
	return fmt.Sprintf("engine status %d: %s", e.StatusCode, e.Message)
}

func isRetryableEngineError(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *engineHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "timeout") || strings.Contains(message, "tempor")
}
