package webhook

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/vulnscout/internal/github"
	"github.com/dshills/vulnscout/internal/model"
	"github.com/dshills/vulnscout/internal/output"
	"github.com/dshills/vulnscout/internal/pattern"
	"github.com/dshills/vulnscout/internal/scan"
)

// DefaultMaxConcurrency bounds the number of files fetched and scanned at once.
const DefaultMaxConcurrency = 4

// Repository is the subset of the GitHub client a PR scan needs.
type Repository interface {
	ListPullRequestFiles(ctx context.Context, token, owner, repo string, number int) ([]github.PRFile, error)
	GetFileContent(ctx context.Context, token, owner, repo, path, ref string) (string, bool)
	CreateComment(ctx context.Context, token, owner, repo string, number int, body string) error
}

// Scanner scans one file.
type Scanner interface {
	ScanCode(ctx context.Context, req scan.Request) *model.Scan
}

// PullRequest identifies the PR revision to scan.
type PullRequest struct {
	Owner   string
	Repo    string
	Number  int
	HeadSHA string
}

func (pr PullRequest) String() string {
	return fmt.Sprintf("%s/%s#%d", pr.Owner, pr.Repo, pr.Number)
}

// ProcessorOptions tunes a Processor.
type ProcessorOptions struct {
	MaxConcurrency int
	// CommentOnClean posts a comment even when no finding was produced.
	CommentOnClean bool
	// DryRun scans without posting the comment.
	DryRun  bool
	Version string
	Logger  hclog.Logger
}

// Processor scans the changed files of a pull request and posts the report.
type Processor struct {
	repo    Repository
	scanner Scanner
	opts    ProcessorOptions
	log     hclog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(repo Repository, scanner Scanner, opts ProcessorOptions) *Processor {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Processor{repo: repo, scanner: scanner, opts: opts, log: log.Named("pr")}
}

// Process scans pr with token and posts one comment. Files that cannot be
// fetched are skipped. Only a failure to list the PR's files is returned.
func (p *Processor) Process(ctx context.Context, token string, pr PullRequest) (*output.Report, error) {
	log := p.log.With("pr", pr.String())

	files, err := p.repo.ListPullRequestFiles(ctx, token, pr.Owner, pr.Repo, pr.Number)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	var targets []string
	for _, f := range files {
		if f.Removed() || !pattern.IsSourceFile(f.Filename) {
			continue
		}
		targets = append(targets, f.Filename)
	}
	log.Info("scanning pull request", "changed", len(files), "source_files", len(targets))

	repoName := pr.Owner + "/" + pr.Repo
	number := pr.Number
	scans := make([]*model.Scan, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrency)
	for i, path := range targets {
		g.Go(func() error {
			content, ok := p.repo.GetFileContent(gctx, token, pr.Owner, pr.Repo, path, pr.HeadSHA)
			if !ok {
				log.Warn("file content unavailable, skipping", "file", path)
				return nil
			}
			scans[i] = p.scanner.ScanCode(gctx, scan.Request{
				Code:     content,
				Filename: path,
				Repo:     repoName,
				PRNumber: &number,
			})
			return nil
		})
	}
	_ = g.Wait()

	report := output.NewReport(p.opts.Version, scans...)
	report.Repo = repoName
	report.PRNumber = &number
	for i, sc := range scans {
		if sc == nil {
			report.Skipped = append(report.Skipped, targets[i])
		}
	}
	total := len(report.Findings())
	log.Info("pull request scanned",
		"files", len(report.Scans), "skipped", len(report.Skipped),
		"findings", total, "risk", report.RiskScore)

	switch {
	case len(targets) == 0:
		log.Debug("no source files changed, not commenting")
	case total == 0 && !p.opts.CommentOnClean:
		log.Debug("no findings, not commenting")
	case p.opts.DryRun:
		log.Debug("dry run, not commenting")
	default:
		if err := p.repo.CreateComment(ctx, token, pr.Owner, pr.Repo, pr.Number, output.Comment(report)); err != nil {
			log.Error("posting comment failed", "error", err)
		}
	}
	return report, nil
}
