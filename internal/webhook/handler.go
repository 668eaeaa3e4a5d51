package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	gh "github.com/google/go-github/v47/github"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/vulnscout/internal/githubapp"
)

// ErrParse reports a delivery whose payload could not be decoded.
var ErrParse = errors.New("malformed webhook payload")

const (
	maxPayloadBytes = 25 << 20

	// DefaultProcessTimeout bounds the work done for one pull request.
	DefaultProcessTimeout = 5 * time.Minute
)

// Delivery statuses reported in the response body.
const (
	StatusIgnored   = "ignored"
	StatusPong      = "pong"
	StatusAccepted  = "accepted"
	StatusProcessed = "processed"
	StatusError     = "error"
)

// TokenSource hands out installation tokens.
type TokenSource interface {
	InstallationToken(ctx context.Context, installationID int64) (string, error)
}

// Response is the JSON body of every webhook reply.
type Response struct {
	Status   string `json:"status"`
	Files    *int   `json:"files,omitempty"`
	Findings *int   `json:"findings,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Options configures a Handler.
type Options struct {
	Secret         string
	ProcessTimeout time.Duration
	Logger         hclog.Logger

	// Async acknowledges a triggering delivery once it is verified and
	// parsed, and processes the pull request in the background.
	Async bool
}

// Handler serves POST /webhook/github.
type Handler struct {
	secret  []byte
	timeout time.Duration
	async   bool
	tokens  TokenSource
	proc    *Processor
	log     hclog.Logger
	wg      sync.WaitGroup
}

// New creates a Handler.
func New(tokens TokenSource, proc *Processor, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = DefaultProcessTimeout
	}
	h := &Handler{
		secret:  []byte(opts.Secret),
		timeout: opts.ProcessTimeout,
		async:   opts.Async,
		tokens:  tokens,
		proc:    proc,
		log:     log.Named("webhook"),
	}
	if len(h.secret) == 0 {
		h.log.Error("webhook secret is not configured; every delivery will be rejected")
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	event := r.Header.Get("X-GitHub-Event")
	log := h.log.With("event", event, "delivery", r.Header.Get("X-GitHub-Delivery"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		log.Warn("reading delivery failed", "error", err)
		reply(w, Response{Status: StatusIgnored})
		return
	}

	if err := h.verify(r.Header.Get("X-Hub-Signature-256"), body); err != nil {
		log.Warn("delivery rejected", "error", err)
		reply(w, Response{Status: StatusIgnored})
		return
	}

	switch event {
	case "ping":
		reply(w, Response{Status: StatusPong})
		return
	case "pull_request":
	default:
		log.Debug("event not handled")
		reply(w, Response{Status: StatusIgnored})
		return
	}

	installationID, pr, err := parsePullRequest(body)
	if err != nil {
		if errors.Is(err, errNotTriggering) {
			log.Debug("pull request action not handled", "reason", err)
		} else {
			log.Warn("unparseable delivery", "error", err)
		}
		reply(w, Response{Status: StatusIgnored})
		return
	}
	log = log.With("pr", pr.String(), "installation", installationID)

	// Processing continues if the caller disconnects.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	if !h.async {
		defer cancel()
		reply(w, h.process(ctx, log, installationID, pr))
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		h.process(ctx, log, installationID, pr)
	}()
	log.Debug("delivery accepted")
	reply(w, Response{Status: StatusAccepted})
}

// Wait blocks until every background delivery has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) process(ctx context.Context, log hclog.Logger, installationID int64, pr PullRequest) Response {
	token, err := h.tokens.InstallationToken(ctx, installationID)
	if err != nil {
		if githubapp.IsAuthError(err) {
			log.Error("github app authentication failed", "error", err)
		} else {
			log.Error("obtaining installation token failed", "error", err)
		}
		return Response{Status: StatusError, Error: "authentication failed"}
	}

	report, err := h.proc.Process(ctx, token, pr)
	if err != nil {
		log.Error("processing pull request failed", "error", err)
		return Response{Status: StatusError, Error: "processing failed"}
	}
	files, findings := len(report.Scans), len(report.Findings())
	log.Info("delivery processed", "files", files, "findings", findings)
	return Response{Status: StatusProcessed, Files: &files, Findings: &findings}
}

func (h *Handler) verify(signature string, body []byte) error {
	if len(h.secret) == 0 {
		return errors.New("webhook secret not configured")
	}
	if signature == "" {
		return errors.New("missing X-Hub-Signature-256")
	}
	return gh.ValidateSignature(signature, body, h.secret)
}

var errNotTriggering = errors.New("action does not trigger a scan")

// parsePullRequest decodes a pull_request payload and reports whether its
// action triggers a scan.
func parsePullRequest(body []byte) (int64, PullRequest, error) {
	payload, err := gh.ParseWebHook("pull_request", body)
	if err != nil {
		return 0, PullRequest{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	ev, ok := payload.(*gh.PullRequestEvent)
	if !ok {
		return 0, PullRequest{}, ErrParse
	}

	switch ev.GetAction() {
	case "opened", "synchronize":
	default:
		return 0, PullRequest{}, fmt.Errorf("%w: %q", errNotTriggering, ev.GetAction())
	}

	pr := PullRequest{
		Owner:   ev.GetRepo().GetOwner().GetLogin(),
		Repo:    ev.GetRepo().GetName(),
		Number:  ev.GetNumber(),
		HeadSHA: ev.GetPullRequest().GetHead().GetSHA(),
	}
	if pr.Number == 0 {
		pr.Number = ev.GetPullRequest().GetNumber()
	}
	id := ev.GetInstallation().GetID()
	if pr.Owner == "" || pr.Repo == "" || pr.Number == 0 || id == 0 {
		return 0, PullRequest{}, fmt.Errorf("%w: missing repository, number or installation", ErrParse)
	}
	return id, pr, nil
}

func reply(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
