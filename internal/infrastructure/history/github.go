package history

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ofertas-ar/backend/internal/domain"
	"golang.org/x/time/rate"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubStore persists the document as a JSON file in a GitHub repository via
// the contents API. The blob SHA returned on read acts as an optimistic
// version token: a write presenting a stale SHA is rejected by GitHub, in
// which case the store refreshes the token and retries exactly once. A second
// conflict is reported as a failed write, not retried further.
type GitHubStore struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	token       string
	repo        string // "owner/name"
	path        string
	branch      string
	baseURL     string

	mu  sync.Mutex
	sha string // version token from the last read, "" when the file does not exist yet
}

// NewGitHubStore creates a store writing to the given repo/path on branch.
func NewGitHubStore(token, repo, path, branch string) *GitHubStore {
	// GitHub allows 5000 authenticated requests per hour; stay well under it.
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &GitHubStore{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		rateLimiter: limiter,
		token:       token,
		repo:        repo,
		path:        path,
		branch:      branch,
		baseURL:     defaultGitHubAPI,
	}
}

// SetBaseURL overrides the GitHub API endpoint. Used in tests.
func (s *GitHubStore) SetBaseURL(u string) {
	s.baseURL = strings.TrimSuffix(u, "/")
}

// Name implements domain.HistoryStore
func (s *GitHubStore) Name() string {
	return "github-json"
}

func (s *GitHubStore) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.baseURL, s.repo, s.path)
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "price-history-bot")
}

// contentsResponse is the subset of the contents API payload we use.
type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// putResponse carries the new blob SHA after a successful write.
type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// fetchContents retrieves the stored file and its version token. A 404 means
// the file does not exist yet and yields (nil, "", nil).
func (s *GitHubStore) fetchContents(ctx context.Context) (*contentsResponse, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL()+"?ref="+s.branch, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github contents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github contents: status %d, body: %s", resp.StatusCode, string(body))
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return nil, fmt.Errorf("decode contents: %w", err)
	}
	return &contents, nil
}

// Read loads the document and records the version token for the next write.
func (s *GitHubStore) Read(ctx context.Context) (*domain.Document, error) {
	contents, err := s.fetchContents(ctx)
	if err != nil {
		return nil, err
	}
	if contents == nil {
		s.setSHA("")
		return domain.NewDocument(), nil
	}
	s.setSHA(contents.SHA)

	// The contents API returns base64 with embedded newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if len(raw) == 0 {
		return domain.NewDocument(), nil
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Write submits the document together with the last-read version token. On a
// version conflict it re-reads the token once and retries once.
func (s *GitHubStore) Write(ctx context.Context, doc *domain.Document) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	status, err := s.put(ctx, payload, s.currentSHA())
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	if status != http.StatusConflict {
		return fmt.Errorf("github write: status %d", status)
	}

	// Optimistic lock race: refresh the token and retry exactly once.
	log.Printf("[GITHUB] write conflict on %s, retrying with fresh sha", s.path)
	contents, err := s.fetchContents(ctx)
	if err != nil {
		return fmt.Errorf("%w: refresh failed: %v", domain.ErrStoreConflict, err)
	}
	sha := ""
	if contents != nil {
		sha = contents.SHA
	}
	s.setSHA(sha)

	status, err = s.put(ctx, payload, sha)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return nil
	}
	return fmt.Errorf("%w: status %d after retry", domain.ErrStoreConflict, status)
}

// put performs one contents-API PUT and returns the HTTP status. A successful
// write refreshes the stored version token from the response.
func (s *GitHubStore) put(ctx context.Context, payload []byte, sha string) (int, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	body := map[string]string{
		"message": fmt.Sprintf("chore: update price history %s", time.Now().UTC().Format(time.RFC3339)),
		"content": base64.StdEncoding.EncodeToString(payload),
		"branch":  s.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("github write: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var put putResponse
		if err := json.NewDecoder(resp.Body).Decode(&put); err == nil && put.Content.SHA != "" {
			s.setSHA(put.Content.SHA)
		}
	}
	return resp.StatusCode, nil
}

func (s *GitHubStore) currentSHA() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sha
}

func (s *GitHubStore) setSHA(sha string) {
	s.mu.Lock()
	s.sha = sha
	s.mu.Unlock()
}
