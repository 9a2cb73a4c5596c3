package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"project/backend/config"
	"strings"
	"time"
)

const (
	maxCommits     = 10
	maxTreeEntries = 100
)

var ErrInvalidRepoURL = errors.New("not a valid GitHub repository URL")

// UpstreamError carries the status code returned by the GitHub API so
// handlers can surface it (404 on a missing repo is a client error, not a
// server fault).
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github: %s (status %d)", e.Message, e.StatusCode)
}

// RepoAnalysis is the merged one-shot summary. Optional sections stay empty
// when their fetch fails; only the core metadata fetch is fatal.
type RepoAnalysis struct {
	Owner       string             `json:"owner"`
	Name        string             `json:"name"`
	FullName    string             `json:"full_name"`
	Description string             `json:"description"`
	URL         string             `json:"url"`
	Language    string             `json:"language"`
	Stars       int                `json:"stars"`
	Forks       int                `json:"forks"`
	OpenIssues  int                `json:"open_issues"`
	Languages   map[string]int     `json:"languages,omitempty"`
	Readme      string             `json:"readme,omitempty"`
	Commits     []CommitSummary    `json:"commits,omitempty"`
	Tree        []TreeEntrySummary `json:"tree,omitempty"`
	AnalyzedAt  time.Time          `json:"analyzed_at"`
}

type CommitSummary struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

type TreeEntrySummary struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}

type GitHubService struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewGitHubService(cfg *config.Config) *GitHubService {
	return &GitHubService{
		BaseURL: strings.TrimRight(cfg.GitHubAPIURL, "/"),
		Token:   cfg.GitHubToken,
		Client:  &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// ParseRepoURL extracts owner and repo from a github.com URL.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", ErrInvalidRepoURL
	}

	host := strings.TrimPrefix(u.Host, "www.")
	if host != "github.com" {
		return "", "", ErrInvalidRepoURL
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidRepoURL
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// AnalyzeRepository fetches repository metadata plus the optional sections
// (languages, readme, commits, tree) and merges them. Nothing is persisted;
// saving the snapshot is a separate explicit call.
func (s *GitHubService) AnalyzeRepository(ctx context.Context, repoURL string) (*RepoAnalysis, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	var meta struct {
		Name          string `json:"name"`
		FullName      string `json:"full_name"`
		Description   string `json:"description"`
		HTMLURL       string `json:"html_url"`
		Language      string `json:"language"`
		Stars         int    `json:"stargazers_count"`
		Forks         int    `json:"forks_count"`
		OpenIssues    int    `json:"open_issues_count"`
		DefaultBranch string `json:"default_branch"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &meta); err != nil {
		return nil, err
	}

	analysis := &RepoAnalysis{
		Owner:       owner,
		Name:        meta.Name,
		FullName:    meta.FullName,
		Description: meta.Description,
		URL:         meta.HTMLURL,
		Language:    meta.Language,
		Stars:       meta.Stars,
		Forks:       meta.Forks,
		OpenIssues:  meta.OpenIssues,
		AnalyzedAt:  time.Now(),
	}

	// Everything below is best-effort; a failed section stays empty.
	var languages map[string]int
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), &languages); err == nil {
		analysis.Languages = languages
	}

	var readme struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &readme); err == nil {
		if readme.Encoding == "base64" {
			if decoded, derr := base64.StdEncoding.DecodeString(
				strings.ReplaceAll(readme.Content, "\n", "")); derr == nil {
				analysis.Readme = string(decoded)
			}
		} else {
			analysis.Readme = readme.Content
		}
	}

	var commits []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", owner, repo, maxCommits)
	if err := s.getJSON(ctx, path, &commits); err == nil {
		for _, c := range commits {
			analysis.Commits = append(analysis.Commits, CommitSummary{
				SHA:     c.SHA,
				Message: c.Commit.Message,
				Author:  c.Commit.Author.Name,
				Date:    c.Commit.Author.Date,
			})
		}
	}

	branch := meta.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	var tree struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int64  `json:"size"`
		} `json:"tree"`
	}
	path = fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, branch)
	if err := s.getJSON(ctx, path, &tree); err == nil {
		for i, entry := range tree.Tree {
			if i >= maxTreeEntries {
				break
			}
			analysis.Tree = append(analysis.Tree, TreeEntrySummary{
				Path: entry.Path,
				Type: entry.Type,
				Size: entry.Size,
			})
		}
	}

	return analysis, nil
}

// getJSON issues one GET with a single retry on transport errors and 5xx.
// 4xx responses fail fast with the upstream status attached.
func (s *GitHubService) getJSON(ctx context.Context, path string, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if s.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.Token)
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &UpstreamError{StatusCode: resp.StatusCode, Message: "server error"}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return &UpstreamError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode github response: %w", err)
		}
		return nil
	}

	return lastErr
}
