package githubapp

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/dshills/vulnscout/internal/github"
)

// Config carries the App credentials.
type Config struct {
	AppID          string
	PrivateKey     string
	PrivateKeyPath string
	APIURL         string
}

// Auth signs App JWTs and hands out cached installation tokens.
type Auth struct {
	appID  string
	key    *rsa.PrivateKey
	cfgErr error
	apiURL string
	tokens *TokenCache
	now    func() time.Time
	log    hclog.Logger
}

// New builds an Auth. A configuration error is not returned here; it is
// reported by every InstallationToken call instead.
func New(cfg Config, log hclog.Logger) *Auth {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	a := &Auth{
		appID:  strings.TrimSpace(cfg.AppID),
		apiURL: cfg.APIURL,
		tokens: NewTokenCache(),
		now:    time.Now,
		log:    log.Named("githubapp"),
	}
	a.key, a.cfgErr = loadKey(a.appID, cfg)
	if a.cfgErr != nil {
		a.log.Warn("github app not configured", "error", a.cfgErr)
	}
	return a
}

func loadKey(appID string, cfg Config) (*rsa.PrivateKey, error) {
	if appID == "" {
		return nil, ErrMissingAppID
	}
	pemText := cfg.PrivateKey
	if pemText == "" && cfg.PrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key: %w", err)
		}
		pemText = string(data)
	}
	if strings.TrimSpace(pemText) == "" {
		return nil, ErrMissingPrivateKey
	}
	// Keys passed through environment variables often carry literal \n.
	pemText = strings.ReplaceAll(pemText, `\n`, "\n")

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemText))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return key, nil
}

// Configured reports whether the App credentials loaded.
func (a *Auth) Configured() error {
	if a.cfgErr != nil {
		return &AuthError{Op: "configure", Err: a.cfgErr}
	}
	return nil
}

// AppJWT signs a JWT identifying the App.
func (a *Auth) AppJWT() (string, error) {
	if err := a.Configured(); err != nil {
		return "", err
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(600 * time.Second)),
		Issuer:    a.appID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	if err != nil {
		return "", &AuthError{Op: "sign", Err: err}
	}
	return signed, nil
}

// InstallationToken returns an access token for installationID.
func (a *Auth) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	if err := a.Configured(); err != nil {
		return "", err
	}
	return a.tokens.Get(ctx, installationID, a.exchange)
}

// Invalidate forgets the cached token for installationID.
func (a *Auth) Invalidate(installationID int64) {
	a.tokens.Invalidate(installationID)
}

func (a *Auth) exchange(ctx context.Context, installationID int64) (InstallationToken, error) {
	appJWT, err := a.AppJWT()
	if err != nil {
		return InstallationToken{}, err
	}
	client, err := github.NewRESTClient(a.apiURL, appJWT)
	if err != nil {
		return InstallationToken{}, &AuthError{Op: "exchange", Err: err}
	}

	tok, _, err := client.Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return InstallationToken{}, &AuthError{Op: "exchange", Err: err}
	}
	if tok.GetToken() == "" {
		return InstallationToken{}, &AuthError{Op: "exchange", Err: fmt.Errorf("empty token for installation %d", installationID)}
	}

	a.log.Debug("installation token issued", "installation", installationID, "expires", tok.GetExpiresAt())
	return InstallationToken{Token: tok.GetToken(), ExpiresAt: tok.GetExpiresAt()}, nil
}
