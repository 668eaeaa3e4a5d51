package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dshills/vulnscout/internal/config"
	"github.com/dshills/vulnscout/internal/model"
	"github.com/dshills/vulnscout/internal/output"
)

// resetFlags resets all package-level flag variables to their zero values.
func resetFlags() {
	flagConfig = ""
	flagLogLevel = ""
	flagLanguage = ""
	flagFormat = ""
	flagOut = ""
	flagFailOn = ""
	flagStaged = false
	flagNoLLM = false
	flagNoRedact = false
	flagExclude = nil
	flagProviders = ""
	flagPRRepo = ""
	flagPRHeadSHA = ""
	flagPRInstallation = 0
	flagPRDryRun = false
	flagServeAddr = ""
	flagCheckProvider = ""
}

// isolate points config and cache at a temp dir and clears credentials.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags()
	dir := t.TempDir()
	t.Setenv("VULNSCOUT_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("XDG_CACHE_HOME", dir)
	t.Setenv("VULNSCOUT_LOG_LEVEL", "error")
	for _, key := range []string{
		"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"GOOGLE_API_KEY", "GITHUB_TOKEN", "GITHUB_APP_ID", "GITHUB_PRIVATE_KEY",
		"GITHUB_PRIVATE_KEY_PATH",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	return execute(args), out.String()
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readReport(t *testing.T, path string) output.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report output.Report
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

// --- version command tests ---

func TestVersionCmd(t *testing.T) {
	isolate(t)
	code, out := runCLI(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "vulnscout version "+version+"\n", out)
}

// --- scan command tests ---

func TestScan_NoInput(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "scan")
	assert.Equal(t, ExitUsageError, code)
}

func TestScan_FindingsMeetFailOn(t *testing.T) {
	dir := isolate(t)
	src := writeSource(t, dir, "src/app.js", "const x = eval(userInput);\n")
	out := filepath.Join(dir, "report.json")

	code, _ := runCLI(t, "scan", "--no-llm", "--format", "json", "--out", out, "--fail-on", "high", filepath.Join(dir, "src"))
	assert.Equal(t, ExitFindings, code)

	report := readReport(t, out)
	require.Len(t, report.Scans, 1)
	assert.Equal(t, src, report.Scans[0].Filename)
	assert.Equal(t, model.ProviderNone, report.Scans[0].Provider)
	assert.Equal(t, 1, report.Summary.Counts.Critical)
	require.Len(t, report.Scans[0].Findings, 1)
	assert.Equal(t, model.TypeRCE, report.Scans[0].Findings[0].Type)
	assert.Equal(t, 1, report.Scans[0].Findings[0].Line)
}

func TestScan_CleanFilePasses(t *testing.T) {
	dir := isolate(t)
	src := writeSource(t, dir, "ok.go", "package ok\n\nfunc Add(a, b int) int { return a + b }\n")
	out := filepath.Join(dir, "report.json")

	code, _ := runCLI(t, "scan", "--no-llm", "--format", "json", "--out", out, "--fail-on", "low", src)
	assert.Equal(t, ExitSuccess, code)

	report := readReport(t, out)
	assert.Equal(t, 0, report.Summary.Counts.Total())
	assert.Equal(t, 0.0, report.RiskScore)
}

func TestScan_FindingsBelowFailOn(t *testing.T) {
	dir := isolate(t)
	src := writeSource(t, dir, "app.js", "const x = eval(userInput);\n")
	out := filepath.Join(dir, "report.json")

	code, _ := runCLI(t, "scan", "--no-llm", "--format", "json", "--out", out, src)
	assert.Equal(t, ExitSuccess, code, "default failOn is none")
}

func TestScan_Stdin(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")
	rootCmd.SetIn(strings.NewReader("result = eval(data)\n"))

	code, _ := runCLI(t, "scan", "--no-llm", "--language", "py", "--format", "json", "--out", out, "-")
	assert.Equal(t, ExitSuccess, code)

	report := readReport(t, out)
	require.Len(t, report.Scans, 1)
	assert.Equal(t, "python", report.Scans[0].Language)
	assert.Equal(t, 1, report.Summary.Counts.Critical)
}

func TestScan_InvalidFormat(t *testing.T) {
	dir := isolate(t)
	src := writeSource(t, dir, "app.js", "x()\n")
	code, _ := runCLI(t, "scan", "--no-llm", "--format", "xml", src)
	assert.Equal(t, ExitUsageError, code)
}

func TestScan_MissingPath(t *testing.T) {
	dir := isolate(t)
	code, _ := runCLI(t, "scan", "--no-llm", filepath.Join(dir, "nope"))
	assert.Equal(t, ExitRuntimeError, code)
}

func TestExceedsThreshold(t *testing.T) {
	findings := []model.Finding{{Severity: model.SeverityMedium}}
	assert.True(t, exceedsThreshold(findings, "medium"))
	assert.True(t, exceedsThreshold(findings, "LOW"))
	assert.False(t, exceedsThreshold(findings, "high"))
	assert.False(t, exceedsThreshold(findings, "none"))
	assert.False(t, exceedsThreshold(nil, "low"))
}

func TestBuildProviders_EnabledInOrder(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.SetField(&cfg, "llm.providers", "anthropic,groq"))

	provs, err := buildProviders(cfg)
	require.NoError(t, err)
	require.Len(t, provs, 2)
	assert.Equal(t, "anthropic", provs[0].Name())
	assert.Equal(t, "groq", provs[1].Name())
}

// --- pr command tests ---

func TestPR_InvalidNumber(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "pr", "abc")
	assert.Equal(t, ExitUsageError, code)
}

func TestPR_MissingArg(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "pr")
	assert.Equal(t, ExitUsageError, code)
}

func TestPR_NoCredentials(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "pr", "--no-llm", "--repo", "owner/repo", "7")
	assert.Equal(t, ExitAuthError, code)
}

// --- providers command tests ---

func TestProvidersList(t *testing.T) {
	isolate(t)
	code, out := runCLI(t, "providers", "list")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "PROVIDER")
	assert.Contains(t, out, "groq")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "lmstudio")
}

func TestProvidersCheck_MissingKey(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "providers", "check", "--provider", "groq")
	assert.Equal(t, ExitRuntimeError, code)
}

func TestProvidersCheck_NoMatch(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "providers", "check", "--provider", "nope")
	assert.Equal(t, ExitUsageError, code)
}

// --- config command tests ---

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := isolate(t)

	code, out := runCLI(t, "config", "init")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Config file created")

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Len(t, cfg.LLM.Providers, 6)
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644))

	code, _ := runCLI(t, "config", "init")
	require.Equal(t, ExitSuccess, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":9000", "existing file must not be overwritten")
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	dir := isolate(t)

	code, out := runCLI(t, "config", "set", "scan.failOn", "high")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Set scan.failOn = high")

	cfg := config.Default()
	require.NoError(t, config.LoadFile(filepath.Join(dir, "config.yaml"), &cfg))
	assert.Equal(t, "high", cfg.Scan.FailOn)
}

func TestConfigSet_InvalidKey(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "config", "set", "unknownKey", "value")
	assert.Equal(t, ExitUsageError, code)
}

func TestConfigSet_InvalidValue(t *testing.T) {
	dir := isolate(t)
	code, _ := runCLI(t, "config", "set", "scan.format", "xml")
	assert.Equal(t, ExitUsageError, code)
	assert.NoFileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestConfigSet_MissingArgs(t *testing.T) {
	isolate(t)
	code, _ := runCLI(t, "config", "set", "scan.format")
	assert.Equal(t, ExitUsageError, code)
}

func TestConfigShow_HidesSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_WEBHOOK_SECRET", "hunter2")
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	code, out := runCLI(t, "config", "show")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, `"addr": ":3000"`)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "sk-test-123")
}

// --- cache command tests ---

func TestCacheShow_Disabled(t *testing.T) {
	isolate(t)
	code, out := runCLI(t, "cache", "show")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Cache is disabled.")
}

func TestCacheClear(t *testing.T) {
	dir := isolate(t)
	cacheDir := filepath.Join(dir, "vulnscout")
	require.NoError(t, os.MkdirAll(cacheDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "abc123.json"), []byte(`{"key":"test"}`), 0o644))

	code, out := runCLI(t, "cache", "clear")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "1 entries removed")
	assert.NoFileExists(t, filepath.Join(cacheDir, "abc123.json"))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitFindings)
	assert.Equal(t, 2, ExitUsageError)
	assert.Equal(t, 3, ExitAuthError)
	assert.Equal(t, 4, ExitRuntimeError)
}
