package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/gitsight/go-vcsurl"
	gh "github.com/google/go-github/v47/github"
)

const defaultAPIURL = "https://api.github.com"

// ErrNotFound is returned when GitHub answers 404.
var ErrNotFound = errors.New("not found")

// PRFile is a file changed in a pull request.
type PRFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// Removed reports whether the PR deletes the file.
func (f PRFile) Removed() bool { return f.Status == "removed" }

// Client provides access to the GitHub REST API.
type Client struct {
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a client for apiURL (api.github.com when empty).
func NewClient(apiURL string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewRESTClient returns a go-github client for apiURL that sends token as a
// bearer credential on every request.
func NewRESTClient(apiURL, token string) (*gh.Client, error) {
	return newRESTClient(apiURL, token, nil)
}

func newRESTClient(apiURL, token string, base *http.Client) (*gh.Client, error) {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	u, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing api url: %w", err)
	}
	httpCli := &http.Client{Timeout: 60 * time.Second}
	if base != nil {
		httpCli.Timeout = base.Timeout
		httpCli.Transport = base.Transport
	}
	httpCli.Transport = &tokenTransport{token: token, base: httpCli.Transport}

	client := gh.NewClient(httpCli)
	client.BaseURL = u
	return client, nil
}

func (c *Client) rest(token string) (*gh.Client, error) {
	return newRESTClient(c.apiURL, token, c.httpCli)
}

// ListPullRequestFiles returns every file of a pull request, following
// pagination.
func (c *Client) ListPullRequestFiles(ctx context.Context, token, owner, repo string, number int) ([]PRFile, error) {
	client, err := c.rest(token)
	if err != nil {
		return nil, err
	}

	var files []PRFile
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, wrapErr(resp, fmt.Sprintf("listing files of %s/%s#%d", owner, repo, number), err)
		}
		for _, f := range page {
			files = append(files, PRFile{Filename: f.GetFilename(), Status: f.GetStatus()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return files, nil
}

// FetchFileContent returns the decoded content of path at ref.
func (c *Client) FetchFileContent(ctx context.Context, token, owner, repo, path, ref string) (string, error) {
	client, err := c.rest(token)
	if err != nil {
		return "", err
	}

	var opts *gh.RepositoryContentGetOptions
	if ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, resp, err := client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return "", wrapErr(resp, "fetching "+path, err)
	}
	if file == nil {
		return "", fmt.Errorf("fetching %s: path is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}

// GetFileContent is FetchFileContent collapsed to a found flag.
func (c *Client) GetFileContent(ctx context.Context, token, owner, repo, path, ref string) (string, bool) {
	content, err := c.FetchFileContent(ctx, token, owner, repo, path, ref)
	if err != nil {
		return "", false
	}
	return content, true
}

// HeadSHA returns the head commit of a pull request.
func (c *Client) HeadSHA(ctx context.Context, token, owner, repo string, number int) (string, error) {
	client, err := c.rest(token)
	if err != nil {
		return "", err
	}
	pr, resp, err := client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", wrapErr(resp, fmt.Sprintf("fetching %s/%s#%d", owner, repo, number), err)
	}
	return pr.GetHead().GetSHA(), nil
}

// CreateComment posts body as an issue comment on the pull request.
func (c *Client) CreateComment(ctx context.Context, token, owner, repo string, number int, body string) error {
	client, err := c.rest(token)
	if err != nil {
		return err
	}
	_, resp, err := client.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return wrapErr(resp, fmt.Sprintf("commenting on %s/%s#%d", owner, repo, number), err)
	}
	return nil
}

func wrapErr(resp *gh.Response, op string, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	ownerRepoRe   = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)$`)
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// ParseRepo extracts owner and repo from "owner/repo" or any git remote URL.
func ParseRepo(s string) (owner, repo string, err error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".git")
	if m := ownerRepoRe.FindStringSubmatch(s); len(m) == 3 {
		return m[1], m[2], nil
	}
	if info, err := vcsurl.Parse(s); err == nil && info.Username != "" && info.Name != "" {
		return info.Username, info.Name, nil
	}
	// Enterprise hosts vcsurl does not know about.
	if m := httpsRemoteRe.FindStringSubmatch(s); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(s); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from %q", s)
}

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRepo(strings.TrimSpace(string(out)))
}
