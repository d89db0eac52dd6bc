package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slate/internal/config"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// httpService implements Service against the site's HTTP JSON API.
type httpService struct {
	baseURL    string
	scriptName string
	apiKey     string
	client     HTTPDoer
}

// NewHTTPService constructs a site client from config. It returns the noop
// service when no base URL is configured.
func NewHTTPService(cfg config.Platform, client HTTPDoer) Service {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return NewNoop()
	}
	if client == nil {
		timeout := time.Duration(cfg.RequestTimeout) * time.Second
		client = &http.Client{Timeout: timeout}
	}
	return &httpService{
		baseURL:    baseURL,
		scriptName: cfg.ScriptName,
		apiKey:     cfg.APIKey,
		client:     client,
	}
}

func (s *httpService) Configured() bool { return true }

func (s *httpService) ResolveContext(ctx context.Context, documentPath string) (*Context, error) {
	body := map[string]string{"path": documentPath}
	var resp struct {
		Found   bool    `json:"found"`
		Context Context `json:"context"`
	}
	if err := s.doJSONRequest(ctx, http.MethodPost, "/api/v1/context/resolve", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &resp.Context, nil
}

func (s *httpService) CreateVersion(ctx context.Context, req CreateVersionRequest) (*Version, error) {
	var resp Version
	if err := s.doJSONRequest(ctx, http.MethodPost, "/api/v1/versions", req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, fmt.Errorf("platform: version create returned no id")
	}
	return &resp, nil
}

func (s *httpService) UploadMedia(ctx context.Context, versionID int, filePath string) error {
	path := fmt.Sprintf("/api/v1/versions/%d/media", versionID)
	return s.uploadFile(ctx, path, filePath)
}

func (s *httpService) UploadThumbnail(ctx context.Context, entityType string, entityID int, filePath string) error {
	path := fmt.Sprintf("/api/v1/entities/%s/%d/thumbnail", entityType, entityID)
	return s.uploadFile(ctx, path, filePath)
}

func (s *httpService) RegisterPublish(ctx context.Context, req RegisterPublishRequest) (*PublishRecord, error) {
	var resp PublishRecord
	if err := s.doJSONRequest(ctx, http.MethodPost, "/api/v1/publishes", req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, fmt.Errorf("platform: publish registration returned no id")
	}
	return &resp, nil
}

func (s *httpService) doJSONRequest(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	s.applyAuth(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("platform %s %s returned %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *httpService) uploadFile(ctx context.Context, path, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open upload %s: %w", filePath, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("stage upload %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	s.applyAuth(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("platform upload failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("platform upload %s returned %d: %s",
			path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *httpService) applyAuth(req *http.Request) {
	if s.scriptName != "" {
		req.Header.Set("X-Slate-Script", s.scriptName)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
