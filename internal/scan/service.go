package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/vulnscout/internal/audit"
	"github.com/dshills/vulnscout/internal/merge"
	"github.com/dshills/vulnscout/internal/model"
	"github.com/dshills/vulnscout/internal/pattern"
	"github.com/dshills/vulnscout/internal/store"
)

// ErrEmptyInput is reported when a scan request carries no code.
var ErrEmptyInput = errors.New("code is required")

// Auditor is the LLM half of a scan.
type Auditor interface {
	Analyze(ctx context.Context, code, filename, language string) audit.Result
}

// Request describes one piece of code to scan.
type Request struct {
	Code     string
	Filename string
	Repo     string
	PRNumber *int
	Language string
}

// Service runs scans and serves stored results.
type Service struct {
	patterns *pattern.Engine
	auditor  Auditor
	store    store.Store
	log      hclog.Logger
	now      func() time.Time
	newID    func() string
}

// New creates a Service.
func New(patterns *pattern.Engine, auditor Auditor, st store.Store, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{
		patterns: patterns,
		auditor:  auditor,
		store:    st,
		log:      log.Named("scan"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ScanCode scans req and returns the resulting Scan. It never returns nil.
func (s *Service) ScanCode(ctx context.Context, req Request) (result *model.Scan) {
	start := s.now()
	sc := &model.Scan{
		ID:        s.newID(),
		Repo:      req.Repo,
		PRNumber:  req.PRNumber,
		Filename:  req.Filename,
		Language:  pattern.NormalizeLanguage(req.Language),
		CodeHash:  hashCode(req.Code),
		Findings:  []model.Finding{},
		Provider:  model.ProviderNone,
		Timestamp: start.UTC(),
		Status:    model.StatusCompleted,
	}
	if sc.Language == "" {
		sc.Language = pattern.DetectLanguage(req.Filename)
	}
	log := s.log.With("scan", sc.ID, "file", req.Filename, "repo", req.Repo)

	defer func() {
		if r := recover(); r != nil {
			log.Error("scan panicked", "panic", r)
			sc.Status = model.StatusFailed
			sc.Error = fmt.Sprintf("internal error: %v", r)
			sc.Findings = []model.Finding{}
			sc.RiskScore = 0
			result = sc
		}
	}()

	if strings.TrimSpace(req.Code) == "" {
		sc.Status = model.StatusFailed
		sc.Error = ErrEmptyInput.Error()
		sc.ScanDuration = s.now().Sub(start).Milliseconds()
		log.Debug("rejected empty scan")
		return sc
	}

	patternFindings := s.patterns.Scan(req.Code, sc.Language)
	log.Debug("pattern scan done", "findings", len(patternFindings))

	llm := s.analyze(ctx, log, req.Code, req.Filename, sc.Language)

	merged := merge.Merge(patternFindings, llm.Findings)
	for i := range merged {
		if merged[i].Filename == "" {
			merged[i].Filename = req.Filename
		}
	}
	sc.Findings = merged
	sc.RiskScore = merge.Score(merged, llm.RiskScore)
	sc.Provider = llm.Provider
	sc.ScanDuration = s.now().Sub(start).Milliseconds()

	if s.store != nil {
		if err := s.store.Insert(ctx, sc); err != nil {
			log.Error("persisting scan failed", "error", err)
			sc.Status = model.StatusFailed
			sc.Error = err.Error()
		}
	}

	log.Info("scan complete",
		"status", sc.Status, "findings", len(sc.Findings), "risk", sc.RiskScore,
		"provider", sc.Provider, "duration_ms", sc.ScanDuration)
	return sc
}

// List returns up to limit stored scans, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]model.Scan, error) {
	if s.store == nil {
		return []model.Scan{}, nil
	}
	return s.store.List(ctx, limit)
}

// Get returns one stored scan.
func (s *Service) Get(ctx context.Context, id string) (*model.Scan, error) {
	if s.store == nil {
		return nil, store.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// analyze runs the auditor, degrading to an empty result if it is absent
// or panics.
func (s *Service) analyze(ctx context.Context, log hclog.Logger, code, filename, language string) (res audit.Result) {
	none := audit.Result{Findings: []model.Finding{}, Provider: model.ProviderNone}
	if s.auditor == nil {
		return none
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("llm analysis panicked", "panic", r)
			res = none
		}
	}()
	return s.auditor.Analyze(ctx, code, filename, language)
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
