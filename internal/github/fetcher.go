// SPDX-License-Identifier: AGPL-3.0-only
package github

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"

	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/pdfdoc"
)

const defaultTimeout = 30 * time.Second

// Request selects a repository listing or, with FilePath, a single file
type Request struct {
	Repository string `json:"repository"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	FilePath   string `json:"file_path,omitempty"`
}

// File is the decoded content of one repository file
type File struct {
	Repository string `json:"repository"`
	File       string `json:"file"`
	Content    string `json:"content"`
	Size       int    `json:"size"`
}

// Entry is one item of a repository listing
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// Listing is the root listing of a repository
type Listing struct {
	Repository string  `json:"repository"`
	Files      []Entry `json:"files"`
}

// Fetcher reads repositories through the GitHub contents API
type Fetcher struct {
	baseURL   *url.URL
	transport http.RoundTripper
	timeout   time.Duration
	logger    *logging.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another API root, such as a GitHub
// Enterprise instance or a test server
func WithBaseURL(raw string) Option {
	return func(f *Fetcher) {
		if raw == "" {
			return
		}
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		if u, err := url.Parse(raw); err == nil {
			f.baseURL = u
		}
	}
}

// WithTransport sets the underlying HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.transport = rt }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// NewFetcher creates a Fetcher
func NewFetcher(logger *logging.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	f := &Fetcher{timeout: defaultTimeout, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a File or Listing envelope. GitHub-side failures are
// reported inside the envelope, never as Go errors.
func (f *Fetcher) Fetch(ctx context.Context, req Request) model.Envelope {
	switch {
	case req.Repository == "":
		return model.Failure("Repository is required")
	case req.Username == "":
		return model.Failure("Username is required")
	case req.Password == "":
		return model.Failure("Password/Token is required")
	}
	owner, repo, ok := strings.Cut(req.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return model.Failure(fmt.Sprintf("Repository must be owner/name, got %q", req.Repository))
	}

	client := f.client(req.Username, req.Password)
	if req.FilePath != "" {
		return f.fetchFile(ctx, client, owner, repo, req)
	}
	return f.fetchListing(ctx, client, owner, repo, req)
}

func (f *Fetcher) client(username, password string) *gh.Client {
	httpClient := &http.Client{
		Timeout: f.timeout,
		Transport: &gh.BasicAuthTransport{
			Username:  username,
			Password:  password,
			Transport: f.transport,
		},
	}
	c := gh.NewClient(httpClient)
	if f.baseURL != nil {
		c.BaseURL = f.baseURL
	}
	return c
}

func (f *Fetcher) fetchFile(ctx context.Context, client *gh.Client, owner, repo string, req Request) model.Envelope {
	file, _, resp, err := client.Repositories.GetContents(ctx, owner, repo, req.FilePath, nil)
	if err != nil {
		switch statusOf(resp) {
		case http.StatusNotFound:
			return model.Failure(fmt.Sprintf("파일을 찾을 수 없습니다: %s", req.FilePath))
		case http.StatusUnauthorized:
			return model.Failure("GitHub 인증 실패")
		}
		return failure(resp, err)
	}
	if file == nil {
		return model.Failure(fmt.Sprintf("%s is a directory, not a file", req.FilePath))
	}

	var rawContent string
	if file.Content != nil {
		rawContent = *file.Content
	}

	var content string
	switch file.GetEncoding() {
	case "base64":
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(rawContent, "\n", ""))
		if err != nil {
			content = fmt.Sprintf("[파일 처리 오류: %v]", err)
			break
		}
		content = processContent(raw, req.FilePath)
	case "none":
		content = f.download(ctx, client, file.GetDownloadURL(), req.FilePath)
	default:
		f.logger.Warnf("Unexpected content encoding %q for %s", file.GetEncoding(), req.FilePath)
		content = rawContent
	}

	return model.Success(File{
		Repository: req.Repository,
		File:       req.FilePath,
		Content:    content,
		Size:       file.GetSize(),
	})
}

func (f *Fetcher) fetchListing(ctx context.Context, client *gh.Client, owner, repo string, req Request) model.Envelope {
	_, dir, resp, err := client.Repositories.GetContents(ctx, owner, repo, "", nil)
	if err != nil {
		switch statusOf(resp) {
		case http.StatusUnauthorized:
			return model.Failure("GitHub 인증 실패")
		case http.StatusNotFound:
			return model.Failure("저장소를 찾을 수 없습니다")
		}
		return failure(resp, err)
	}

	files := make([]Entry, 0, len(dir))
	for _, item := range dir {
		files = append(files, Entry{
			Name: item.GetName(),
			Path: item.GetPath(),
			Type: item.GetType(),
			Size: item.GetSize(),
		})
	}
	return model.Success(Listing{Repository: req.Repository, Files: files})
}

// download fetches a file too large for the contents API. Failures are
// reported inline in the content.
func (f *Fetcher) download(ctx context.Context, client *gh.Client, downloadURL, filePath string) string {
	if downloadURL == "" {
		return "[파일이 너무 커서 내용을 가져올 수 없습니다. GitHub 웹에서 직접 확인해주세요.]"
	}
	f.logger.Debugf("Downloading large file %s", filePath)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Sprintf("[파일 다운로드 오류: %v]", err)
	}
	resp, err := client.Client().Do(httpReq)
	if err != nil {
		return fmt.Sprintf("[파일 다운로드 오류: %v]", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("[파일 다운로드 오류: HTTP %d]", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("[파일 다운로드 오류: %v]", err)
	}
	return processContent(raw, filePath)
}

// processContent extracts PDF text or decodes other files as text
func processContent(raw []byte, filePath string) string {
	if strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		text, err := pdfdoc.ExtractOrPlaceholder(raw)
		if err != nil {
			return fmt.Sprintf("[파일 처리 오류: %v]", err)
		}
		return text
	}
	return DecodeText(raw)
}

func statusOf(resp *gh.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

func failure(resp *gh.Response, err error) model.Envelope {
	var rateErr *gh.RateLimitError
	if stderrors.As(err, &rateErr) {
		return model.Failure(fmt.Sprintf("GitHub rate limit exceeded until %s", rateErr.Rate.Reset.Time.Format(time.RFC3339)))
	}
	if status := statusOf(resp); status != 0 {
		return model.Failure(fmt.Sprintf("GitHub API 오류: HTTP %d", status))
	}
	return model.Failure(fmt.Sprintf("GitHub 연결 오류: %v", err))
}
