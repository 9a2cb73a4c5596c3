package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		raw   string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/golang/go", "golang", "go", true},
		{"https://www.github.com/golang/go", "golang", "go", true},
		{"https://github.com/golang/go.git", "golang", "go", true},
		{"https://github.com/golang/go/tree/master/src", "golang", "go", true},
		{"https://gitlab.com/golang/go", "", "", false},
		{"https://github.com/golang", "", "", false},
		{"not a url at all ://", "", "", false},
	}

	for _, tc := range cases {
		owner, repo, err := ParseRepoURL(tc.raw)
		if tc.ok {
			require.NoError(t, err, tc.raw)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		} else {
			assert.ErrorIs(t, err, ErrInvalidRepoURL, tc.raw)
		}
	}
}

func fakeGitHub(t *testing.T, handler http.HandlerFunc) *GitHubService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &GitHubService{
		BaseURL: server.URL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestAnalyzeRepository(t *testing.T) {
	svc := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/golang/go":
			w.Write([]byte(`{"name":"go","full_name":"golang/go","description":"The Go language",
				"html_url":"https://github.com/golang/go","language":"Go",
				"stargazers_count":120000,"forks_count":17000,"open_issues_count":9000,
				"default_branch":"master"}`))
		case "/repos/golang/go/languages":
			w.Write([]byte(`{"Go":1000000,"Assembly":50000}`))
		case "/repos/golang/go/readme":
			// base64 of "# The Go Programming Language"
			w.Write([]byte(`{"content":"IyBUaGUgR28gUHJvZ3JhbW1pbmcgTGFuZ3VhZ2U=","encoding":"base64"}`))
		case "/repos/golang/go/commits":
			w.Write([]byte(`[{"sha":"abc123","commit":{"message":"runtime: fix","author":{"name":"gopher","date":"2024-01-02T03:04:05Z"}}}]`))
		case "/repos/golang/go/git/trees/master":
			w.Write([]byte(`{"tree":[{"path":"src/runtime","type":"tree"},{"path":"README.md","type":"blob","size":1234}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	analysis, err := svc.AnalyzeRepository(context.Background(), "https://github.com/golang/go")
	require.NoError(t, err)

	assert.Equal(t, "golang", analysis.Owner)
	assert.Equal(t, "go", analysis.Name)
	assert.Equal(t, "Go", analysis.Language)
	assert.Equal(t, 120000, analysis.Stars)
	assert.Equal(t, 1000000, analysis.Languages["Go"])
	assert.Equal(t, "# The Go Programming Language", analysis.Readme)
	require.Len(t, analysis.Commits, 1)
	assert.Equal(t, "abc123", analysis.Commits[0].SHA)
	assert.Equal(t, "gopher", analysis.Commits[0].Author)
	require.Len(t, analysis.Tree, 2)
	assert.Equal(t, "src/runtime", analysis.Tree[0].Path)
}

func TestAnalyzeRepositoryOptionalSectionsDegrade(t *testing.T) {
	svc := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/golang/go" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":"go","full_name":"golang/go","language":"Go","stargazers_count":1}`))
			return
		}
		// Every optional sub-fetch fails.
		http.NotFound(w, r)
	})

	analysis, err := svc.AnalyzeRepository(context.Background(), "https://github.com/golang/go")
	require.NoError(t, err)

	assert.Equal(t, "go", analysis.Name)
	assert.Empty(t, analysis.Languages)
	assert.Empty(t, analysis.Readme)
	assert.Empty(t, analysis.Commits)
	assert.Empty(t, analysis.Tree)
}

func TestAnalyzeRepositoryMissingRepoIsFatal(t *testing.T) {
	svc := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := svc.AnalyzeRepository(context.Background(), "https://github.com/nobody/nothing")
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	attempts := 0
	svc := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"name":"go"}`))
	})

	var out struct {
		Name string `json:"name"`
	}
	err := svc.getJSON(context.Background(), "/repos/golang/go", &out)
	require.NoError(t, err)
	assert.Equal(t, "go", out.Name)
	assert.Equal(t, 2, attempts)
}

func TestGetJSONFailsFastOnClientErrors(t *testing.T) {
	attempts := 0
	svc := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	})

	var out map[string]interface{}
	err := svc.getJSON(context.Background(), "/repos/golang/go", &out)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
