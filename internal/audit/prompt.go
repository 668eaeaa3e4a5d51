package audit

import (
	"fmt"
	"strings"

	"github.com/dshills/vulnscout/internal/model"
)

const systemPrompt = `You are a senior application security auditor. You review one source file at a time and report exploitable vulnerabilities in strict JSON.

Rules:
1. Report only concrete security vulnerabilities. Ignore style, performance and general code quality.
2. Classify every finding with exactly one type from this list: %s.
   - RCE: dynamic code evaluation or OS command execution reachable by untrusted input.
   - SQL_INJECTION: SQL built from untrusted input without parameterization.
   - SECRET: hardcoded credentials, tokens or private keys.
   - LOGIC: broken authentication or authorization, weak cryptography, disabled TLS verification and similar flaws.
3. Cite the line number shown at the start of each code line. Never invent lines.
4. Rate severity as "critical", "high", "medium", or "low".
5. Give a short, concrete fix for each finding.
6. riskScore is your overall risk estimate for the file from 0 (clean) to 10 (critical).
7. Values shown as [REDACTED] were removed before review; treat the assignment itself as evidence.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.

The object must have this exact structure:
{
  "riskScore": 0,
  "findings": [
    {
      "line": 1,
      "severity": "critical|high|medium|low",
      "type": "%s",
      "issue": "What is wrong and how it can be exploited",
      "fix_instruction": "How to fix it"
    }
  ]
}

If there are no vulnerabilities, respond with: {"riskScore": 0, "findings": []}`

// SystemPrompt returns the system prompt for the LLM.
func SystemPrompt() string {
	return fmt.Sprintf(systemPrompt, strings.Join(model.Taxonomy, ", "), strings.Join(model.Taxonomy, "|"))
}

// BuildUserPrompt numbers the code line by line so the model can cite lines.
func BuildUserPrompt(code, filename, language string) string {
	var b strings.Builder

	b.WriteString("Audit the following source file.\n\n")
	if filename != "" {
		fmt.Fprintf(&b, "File: %s\n", filename)
	}
	if language != "" {
		fmt.Fprintf(&b, "Language: %s\n", language)
	}

	b.WriteString("\n--- BEGIN CODE ---\n")
	for i, line := range splitLines(code) {
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	b.WriteString("--- END CODE ---\n")

	return b.String()
}

func splitLines(code string) []string {
	lines := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
