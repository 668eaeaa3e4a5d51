package pattern

import (
	"regexp"

	"github.com/dshills/vulnscout/internal/model"
)

// Rule is one entry of the static rule table.
type Rule struct {
	Name        string
	Severity    model.Severity
	Confidence  int
	Description string
	Fix         string
	Languages   map[string]bool
	Regexes     []*regexp.Regexp
}

func langs(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

var allLanguages = []string{
	"javascript", "typescript", "python", "go", "java", "kotlin", "php",
	"ruby", "csharp", "c", "cpp", "rust", "swift", "scala",
}

const (
	rceDescription    = "Dynamic code or OS command execution with potentially untrusted input"
	rceFix            = "Avoid dynamic evaluation; use a fixed command with an argument list and validate inputs against an allowlist."
	sqlDescription    = "SQL query built by string concatenation or interpolation"
	sqlFix            = "Use parameterized queries or prepared statements instead of building SQL strings."
	secretDescription = "Hardcoded credential or token in source code"
	secretFix         = "Move the credential to a secret manager or environment variable and rotate it."
	logicDescription  = "Weak cryptography or disabled security control"
	logicFix          = "Use a modern algorithm (SHA-256 or better, bcrypt/argon2 for passwords) and keep TLS verification and access checks enabled."
)

// DefaultRules is the built-in rule table. It is never mutated at runtime.
var DefaultRules = []Rule{
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 90,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("javascript", "typescript"),
		Regexes: compile(
			`\beval\s*\(`,
			`\bnew\s+Function\s*\(`,
			`\bchild_process\b.*\bexec(Sync)?\s*\(`,
			`\bexec(Sync)?\s*\([^)]*(\+|\$\{)`,
			`\b(setTimeout|setInterval)\s*\(\s*["'`+"`"+`]`,
			`\bvm\.runIn(New|This)?Context\s*\(`,
		),
	},
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 90,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("python"),
		Regexes: compile(
			`\beval\s*\(`,
			`\bexec\s*\(`,
			`\bos\.(system|popen)\s*\(`,
			`\bsubprocess\.\w+\(.*shell\s*=\s*True`,
			`\bpickle\.loads?\s*\(`,
			`\byaml\.load\s*\([^)]*\)\s*$`,
		),
	},
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 90,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("php"),
		Regexes: compile(
			`\beval\s*\(`,
			`\b(system|exec|shell_exec|passthru|popen|proc_open)\s*\(`,
			`\bassert\s*\(\s*\$`,
		),
	},
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 85,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("ruby"),
		Regexes: compile(
			`\b(eval|instance_eval|class_eval)\s*[\(\s]`,
			`\b(system|exec|spawn)\s*\(`,
			"`[^`]*#\\{",
		),
	},
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 80,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("go"),
		Regexes: compile(
			`\bexec\.Command(Context)?\s*\(\s*(ctx\s*,\s*)?"(sh|bash|cmd|powershell)"`,
		),
	},
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 85,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("java", "kotlin", "scala"),
		Regexes: compile(
			`Runtime\.getRuntime\(\)\.exec\s*\(`,
			`\bnew\s+ProcessBuilder\s*\(`,
			`\bScriptEngine\b.*\.eval\s*\(`,
		),
	},
	{
		Name: model.TypeRCE, Severity: model.SeverityCritical, Confidence: 80,
		Description: rceDescription, Fix: rceFix,
		Languages: langs("csharp"),
		Regexes: compile(
			`\bProcess\.Start\s*\(`,
		),
	},
	{
		Name: model.TypeSQLInjection, Severity: model.SeverityHigh, Confidence: 80,
		Description: sqlDescription, Fix: sqlFix,
		Languages: langs(allLanguages...),
		Regexes: compile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[^;]*["'`+"`"+`]\s*\+\s*\w`,
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[^;]*\$\{`,
			`(?i)\bf["'](SELECT|INSERT|UPDATE|DELETE)\b[^"']*\{`,
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[^;]*["']\s*%\s*[\w(]`,
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[^;]*["']\s*\.\s*\$\w`,
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[^;]*["']\s*\.format\s*\(`,
			`(?i)\bfmt\.Sprintf\s*\(\s*"(SELECT|INSERT|UPDATE|DELETE)\b`,
		),
	},
	{
		Name: model.TypeSecret, Severity: model.SeverityHigh, Confidence: 85,
		Description: secretDescription, Fix: secretFix,
		Languages: langs(allLanguages...),
		Regexes: compile(
			`(?i)\b\w*(password|passwd|pwd|secret|api[_-]?key|apikey|access[_-]?token|auth[_-]?token|client[_-]?secret|private[_-]?key)\w*["']?\s*(:=|[:=])\s*["'][^"'\s]{4,}["']`,
			`AKIA[0-9A-Z]{16}`,
			`AIza[0-9A-Za-z_\-]{35}`,
			`gh[pousr]_[A-Za-z0-9_]{36,}`,
			`xox[bporas]-[A-Za-z0-9-]{10,}`,
			`sk-(ant-)?[A-Za-z0-9_-]{20,}`,
			`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`,
			`(?i)(postgres|mysql|mongodb(\+srv)?)://[^:\s]+:[^@\s]+@`,
		),
	},
	{
		Name: model.TypeLogic, Severity: model.SeverityMedium, Confidence: 70,
		Description: logicDescription, Fix: logicFix,
		Languages: langs(allLanguages...),
		Regexes: compile(
			`(?i)\b(createHash|hashlib\.new|MessageDigest\.getInstance)\s*\(\s*["'](md5|sha-?1)["']`,
			`\bhashlib\.(md5|sha1)\s*\(`,
			`\b(md5|sha1)\.(New|Sum)\s*\(`,
			`\b(md5|sha1)\s*\(\s*\$`,
			`Cipher\.getInstance\s*\(\s*"(DES|RC4|AES/ECB)`,
			`rejectUnauthorized\s*:\s*false`,
			`\bverify\s*=\s*False\b`,
			`InsecureSkipVerify\s*:\s*true`,
			`NODE_TLS_REJECT_UNAUTHORIZED\s*=\s*["']?0`,
			`(?i)algorithms?\s*[:=]\s*\[?\s*["']none["']`,
			`(?i)Access-Control-Allow-Origin["']?\s*[:,]\s*["']\*["']`,
		),
	},
}
