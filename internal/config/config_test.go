package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config file at a temp dir so the developer's own
// config never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("VULNSCOUT_CONFIG", path)
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Webhook.MaxConcurrency)
	assert.True(t, cfg.Webhook.CommentOnClean)
	assert.True(t, cfg.Webhook.Async)
	assert.Equal(t, 15, cfg.LLM.TimeoutSeconds)
	assert.True(t, cfg.Privacy.RedactSecrets)
	assert.Equal(t, []string{"**/.env", "**/*secrets*"}, cfg.Privacy.RedactPaths)
	assert.Equal(t, "text", cfg.Scan.Format)
	assert.Equal(t, "none", cfg.Scan.FailOn)

	require.Len(t, cfg.LLM.Providers, 6)
	assert.Equal(t, "groq", cfg.LLM.Providers[0].Name)
	assert.True(t, cfg.LLM.Providers[0].Enabled)
	assert.False(t, cfg.LLM.Providers[4].Enabled, "local providers are opt-in")

	assert.NoError(t, Validate(cfg))
	assert.Equal(t, "15s", cfg.LLMTimeout().String())
}

func TestConfigPath(t *testing.T) {
	t.Setenv("VULNSCOUT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "vulnscout", "config.yaml"), p)

	t.Setenv("VULNSCOUT_CONFIG", "/etc/vulnscout.yaml")
	p, err = ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/vulnscout.yaml", p)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := isolate(t)
	writeFile(t, path, `
server:
  addr: ":8080"
webhook:
  commentOnClean: false
llm:
  providers:
    - name: ollama
      enabled: true
      model: qwen2.5-coder
    - name: anthropic
      enabled: true
privacy:
  redactSecrets: false
`)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Webhook.CommentOnClean)
	assert.False(t, cfg.Privacy.RedactSecrets)
	assert.Equal(t, 4, cfg.Webhook.MaxConcurrency, "unset keys keep defaults")
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	require.Len(t, cfg.LLM.Providers, 2)
	assert.Equal(t, "ollama", cfg.LLM.Providers[0].Name)
	assert.Equal(t, "qwen2.5-coder", cfg.LLM.Providers[0].Model)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := isolate(t)
	writeFile(t, path, "server: [unclosed")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("VULNSCOUT_ADDR", ":9999")
	t.Setenv("VULNSCOUT_STORE", "memory")
	t.Setenv("VULNSCOUT_LOG_LEVEL", "debug")
	t.Setenv("VULNSCOUT_LLM_TIMEOUT", "30")
	t.Setenv("GITHUB_APP_ID", "1234")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "shh")
	t.Setenv("GITHUB_TOKEN", "ghp_x")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "aiza_test")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 30, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, "1234", cfg.GitHub.AppID)
	assert.Equal(t, "shh", cfg.GitHub.WebhookSecret)
	assert.Equal(t, "ghp_x", cfg.GitHub.Token)

	byName := map[string]ProviderConfig{}
	for _, p := range cfg.LLM.Providers {
		byName[p.Name] = p
	}
	assert.Equal(t, "gsk_test", byName["groq"].APIKey)
	assert.Equal(t, "aiza_test", byName["gemini"].APIKey)
	assert.Equal(t, "http://gpu:11434", byName["ollama"].BaseURL)
}

func TestLoad_BadEnvTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("VULNSCOUT_LLM_TIMEOUT", "soon")
	_, err := Load("", nil)
	assert.Error(t, err)
}

func TestLoad_OverridesWin(t *testing.T) {
	isolate(t)
	t.Setenv("VULNSCOUT_ADDR", ":9999")
	cfg, err := Load("", map[string]string{
		"server.addr":   ":7000",
		"scan.failOn":   "HIGH",
		"llm.providers": "anthropic, groq",
		"store.path":    "",
	})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "high", cfg.Scan.FailOn)
	require.Len(t, cfg.LLM.Providers, 2)
	assert.Equal(t, "anthropic", cfg.LLM.Providers[0].Name)
	assert.Equal(t, "groq", cfg.LLM.Providers[1].Name)
	assert.Equal(t, "vulnscout.db", cfg.Store.Path, "empty overrides are ignored")
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "store:\n  driver: memory\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"store driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"sqlite path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"provider", func(c *Config) { c.LLM.Providers[0].Name = "bard" }, "unknown provider"},
		{"timeout", func(c *Config) { c.LLM.TimeoutSeconds = 0 }, "llm.timeoutSeconds"},
		{"concurrency", func(c *Config) { c.Webhook.MaxConcurrency = 0 }, "webhook.maxConcurrency"},
		{"format", func(c *Config) { c.Scan.Format = "xml" }, "scan.format"},
		{"failOn", func(c *Config) { c.Scan.FailOn = "severe" }, "scan.failOn"},
		{"log level", func(c *Config) { c.Logger.Level = "loud" }, "logger.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, Validate(cfg), tt.want)
		})
	}

	cfg := Default()
	cfg.Store.Driver = "memory"
	cfg.Store.Path = ""
	assert.NoError(t, Validate(cfg))
}

func TestSetField(t *testing.T) {
	cfg := Default()
	for key, value := range map[string]string{
		"server.addr":            ":1",
		"store.driver":           "memory",
		"store.path":             "/tmp/x.db",
		"github.appId":           "7",
		"github.privateKeyPath":  "/k.pem",
		"github.apiURL":          "https://ghe/api/v3",
		"webhook.maxConcurrency": "8",
		"webhook.commentOnClean": "false",
		"webhook.async":          "false",
		"llm.timeoutSeconds":     "20",
		"privacy.redactSecrets":  "false",
		"cache.enabled":          "true",
		"cache.dir":              "/tmp/c",
		"scan.format":            "sarif",
		"scan.failOn":            "medium",
		"logger.level":           "warn",
		"logger.jsonFormat":      "true",
	} {
		require.NoError(t, SetField(&cfg, key, value), key)
	}
	assert.Equal(t, 8, cfg.Webhook.MaxConcurrency)
	assert.False(t, cfg.Webhook.CommentOnClean)
	assert.False(t, cfg.Webhook.Async)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "sarif", cfg.Scan.Format)
	assert.True(t, cfg.Logger.JSONFormat)
}

func TestSetField_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, SetField(&cfg, "nope", "x"))
	assert.Error(t, SetField(&cfg, "webhook.maxConcurrency", "many"))
	assert.Error(t, SetField(&cfg, "cache.enabled", "maybe"))
	assert.Error(t, SetField(&cfg, "llm.providers", "groq,bard"))
	assert.Error(t, SetField(&cfg, "llm.providers", " , "))
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Addr = ":4242"
	cfg.Webhook.CommentOnClean = false
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":4242", loaded.Server.Addr)
	assert.False(t, loaded.Webhook.CommentOnClean)
}
