package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/dshills/vulnscout/internal/providers"
	"github.com/dshills/vulnscout/internal/store"
)

// Config represents the vulnscout configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	GitHub  GitHubConfig  `yaml:"github" json:"github"`
	Webhook WebhookConfig `yaml:"webhook" json:"webhook"`
	LLM     LLMConfig     `yaml:"llm" json:"llm"`
	Privacy PrivacyConfig `yaml:"privacy" json:"privacy"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
	Logger  LoggerConfig  `yaml:"logger" json:"logger"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr         string `yaml:"addr" json:"addr"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes" json:"maxBodyBytes"`
}

// StoreConfig selects the scan store.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
}

// GitHubConfig holds GitHub App credentials.
type GitHubConfig struct {
	AppID          string `yaml:"appId" json:"appId"`
	PrivateKey     string `yaml:"privateKey,omitempty" json:"-"`
	PrivateKeyPath string `yaml:"privateKeyPath,omitempty" json:"privateKeyPath,omitempty"`
	WebhookSecret  string `yaml:"webhookSecret,omitempty" json:"-"`
	APIURL         string `yaml:"apiURL" json:"apiURL"`
	// Token is a personal or installation token for one-off CLI scans.
	Token string `yaml:"-" json:"-"`
}

// WebhookConfig tunes pull request processing.
type WebhookConfig struct {
	MaxConcurrency int  `yaml:"maxConcurrency" json:"maxConcurrency"`
	CommentOnClean bool `yaml:"commentOnClean" json:"commentOnClean"`
	TimeoutSeconds int  `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	Async          bool `yaml:"async" json:"async"`
}

// LLMConfig lists providers in fallback order.
type LLMConfig struct {
	TimeoutSeconds int              `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	MaxTokens      int              `yaml:"maxTokens" json:"maxTokens"`
	Providers      []ProviderConfig `yaml:"providers" json:"providers"`
}

// ProviderConfig configures one LLM provider.
type ProviderConfig struct {
	Name    string `yaml:"name" json:"name"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL string `yaml:"baseURL,omitempty" json:"baseURL,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty" json:"-"`
}

// CacheConfig controls caching of LLM audits.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Dir        string `yaml:"dir,omitempty" json:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds" json:"ttlSeconds"`
}

// PrivacyConfig controls what code is sent to LLM providers.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets" json:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty" json:"redactPaths,omitempty"`
}

// ScanConfig holds CLI scan defaults.
type ScanConfig struct {
	Format string `yaml:"format" json:"format"`
	FailOn string `yaml:"failOn" json:"failOn"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level      string `yaml:"level" json:"level"`
	JSONFormat bool   `yaml:"jsonFormat" json:"jsonFormat"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":3000",
			MaxBodyBytes: 5 << 20,
		},
		Store: StoreConfig{
			Driver: store.DriverSQLite,
			Path:   "vulnscout.db",
		},
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
		Webhook: WebhookConfig{
			MaxConcurrency: 4,
			CommentOnClean: true,
			TimeoutSeconds: 300,
			Async:          true,
		},
		LLM: LLMConfig{
			TimeoutSeconds: 15,
			MaxTokens:      4096,
			Providers: []ProviderConfig{
				{Name: providers.NameGroq, Enabled: true},
				{Name: providers.NameOpenAI, Enabled: true},
				{Name: providers.NameAnthropic, Enabled: true},
				{Name: providers.NameGemini, Enabled: true},
				{Name: providers.NameOllama, Enabled: false},
				{Name: providers.NameLMStudio, Enabled: false},
			},
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Cache: CacheConfig{
			Enabled:    false,
			TTLSeconds: 86400,
		},
		Scan: ScanConfig{
			Format: "text",
			FailOn: "none",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
	}
}

// LLMTimeout returns the per-provider call timeout.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// WebhookTimeout returns the time budget for one pull request.
func (c Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}

// CacheTTL returns the audit cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ConfigDir returns the platform-appropriate config directory for vulnscout.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vulnscout"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "vulnscout"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "vulnscout"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "vulnscout"), nil
	default:
		return filepath.Join(home, ".config", "vulnscout"), nil
	}
}

// ConfigPath returns the config file path. VULNSCOUT_CONFIG wins over the
// platform default.
func ConfigPath() (string, error) {
	if p := os.Getenv("VULNSCOUT_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile decodes the YAML file at path on top of cfg. A missing file is
// not an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// An empty path means [ConfigPath]. The overrides map comes from CLI flags
// (only non-zero values should be set).
func Load(path string, overrides map[string]string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := LoadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(&cfg, key, value); err != nil {
			return Config{}, err
		}
	}
	return cfg, Validate(cfg)
}

func mergeEnv(cfg *Config) error {
	str := map[string]*string{
		"VULNSCOUT_ADDR":          &cfg.Server.Addr,
		"VULNSCOUT_STORE":         &cfg.Store.Driver,
		"VULNSCOUT_DB_PATH":       &cfg.Store.Path,
		"VULNSCOUT_LOG_LEVEL":     &cfg.Logger.Level,
		"GITHUB_APP_ID":           &cfg.GitHub.AppID,
		"GITHUB_PRIVATE_KEY":      &cfg.GitHub.PrivateKey,
		"GITHUB_PRIVATE_KEY_PATH": &cfg.GitHub.PrivateKeyPath,
		"GITHUB_WEBHOOK_SECRET":   &cfg.GitHub.WebhookSecret,
		"GITHUB_API_URL":          &cfg.GitHub.APIURL,
		"GITHUB_TOKEN":            &cfg.GitHub.Token,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("VULNSCOUT_LLM_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VULNSCOUT_LLM_TIMEOUT must be an integer number of seconds: %w", err)
		}
		cfg.LLM.TimeoutSeconds = n
	}

	for i := range cfg.LLM.Providers {
		p := &cfg.LLM.Providers[i]
		if p.APIKey == "" {
			p.APIKey = envFirst(keyEnv(p.Name)...)
		}
		if p.BaseURL == "" {
			p.BaseURL = envFirst(baseURLEnv(p.Name)...)
		}
	}
	return nil
}

// keyEnv lists the environment variables holding a provider credential.
func keyEnv(name string) []string {
	switch strings.ToLower(name) {
	case providers.NameGroq:
		return []string{"GROQ_API_KEY"}
	case providers.NameOpenAI:
		return []string{"OPENAI_API_KEY"}
	case providers.NameAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case providers.NameGemini, "google":
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case providers.NameOllama:
		return []string{"VULNSCOUT_OLLAMA_API_KEY"}
	default:
		return nil
	}
}

func baseURLEnv(name string) []string {
	switch strings.ToLower(name) {
	case providers.NameOllama:
		return []string{"OLLAMA_HOST"}
	case providers.NameLMStudio:
		return []string{"LMSTUDIO_HOST"}
	case providers.NameOpenAI:
		return []string{"OPENAI_BASE_URL"}
	default:
		return nil
	}
}

func envFirst(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

var (
	validFormats = map[string]bool{"text": true, "json": true, "markdown": true, "sarif": true}
	validFailOn  = map[string]bool{"none": true, "low": true, "medium": true, "high": true, "critical": true}
)

// Validate rejects configurations the service cannot run with.
func Validate(cfg Config) error {
	var errs []error
	switch cfg.Store.Driver {
	case store.DriverSQLite, store.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", cfg.Store.Driver))
	}
	if cfg.Store.Driver == store.DriverSQLite && cfg.Store.Path == "" {
		errs = append(errs, errors.New("store.path: required for sqlite"))
	}
	for i, p := range cfg.LLM.Providers {
		if !providers.Known(p.Name) {
			errs = append(errs, fmt.Errorf("llm.providers[%d]: unknown provider %q", i, p.Name))
		}
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("llm.timeoutSeconds: must be positive"))
	}
	if cfg.Webhook.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("webhook.maxConcurrency: must be positive"))
	}
	if !validFormats[cfg.Scan.Format] {
		errs = append(errs, fmt.Errorf("scan.format: unknown format %q", cfg.Scan.Format))
	}
	if !validFailOn[cfg.Scan.FailOn] {
		errs = append(errs, fmt.Errorf("scan.failOn: unknown severity %q", cfg.Scan.FailOn))
	}
	if hclog.LevelFromString(cfg.Logger.Level) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("logger.level: unknown level %q", cfg.Logger.Level))
	}
	return errors.Join(errs...)
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "server.addr":
		cfg.Server.Addr = value
	case "store.driver":
		cfg.Store.Driver = value
	case "store.path":
		cfg.Store.Path = value
	case "github.appId":
		cfg.GitHub.AppID = value
	case "github.privateKeyPath":
		cfg.GitHub.PrivateKeyPath = value
	case "github.apiURL":
		cfg.GitHub.APIURL = value
	case "github.token":
		cfg.GitHub.Token = value
	case "webhook.maxConcurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("webhook.maxConcurrency must be an integer: %w", err)
		}
		cfg.Webhook.MaxConcurrency = n
	case "webhook.commentOnClean":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("webhook.commentOnClean must be a boolean: %w", err)
		}
		cfg.Webhook.CommentOnClean = b
	case "webhook.async":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("webhook.async must be a boolean: %w", err)
		}
		cfg.Webhook.Async = b
	case "llm.timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("llm.timeoutSeconds must be an integer: %w", err)
		}
		cfg.LLM.TimeoutSeconds = n
	case "llm.providers":
		return setProviderOrder(cfg, value)
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "scan.format":
		cfg.Scan.Format = value
	case "scan.failOn":
		cfg.Scan.FailOn = strings.ToLower(value)
	case "logger.level":
		cfg.Logger.Level = value
	case "logger.jsonFormat":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("logger.jsonFormat must be a boolean: %w", err)
		}
		cfg.Logger.JSONFormat = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// setProviderOrder enables exactly the comma-separated providers, in that
// order, keeping any per-provider settings already configured.
func setProviderOrder(cfg *Config, value string) error {
	existing := make(map[string]ProviderConfig, len(cfg.LLM.Providers))
	for _, p := range cfg.LLM.Providers {
		existing[strings.ToLower(p.Name)] = p
	}

	var out []ProviderConfig
	seen := map[string]bool{}
	for _, name := range strings.Split(value, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		if !providers.Known(name) {
			return fmt.Errorf("llm.providers: unknown provider %q", name)
		}
		seen[name] = true
		p, ok := existing[name]
		if !ok {
			p = ProviderConfig{Name: name}
			p.APIKey = envFirst(keyEnv(name)...)
			p.BaseURL = envFirst(baseURLEnv(name)...)
		}
		p.Enabled = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return errors.New("llm.providers: at least one provider is required")
	}
	cfg.LLM.Providers = out
	return nil
}
