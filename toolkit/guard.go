package toolkit

import (
	"regexp"
	"strings"

	"github.com/nexuscore/agentkit/message"
)

// builtinSecretPatterns are always applied when ResultGuard.SanitizeSecrets
// is set, independent of any caller-supplied RedactPatterns.
var builtinSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?[\w-]{20,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[\w\-.]+`),
	regexp.MustCompile(`(?i)(password|passwd|secret|token)\s*[:=]\s*['"]?[^\s'"]{8,}['"]?`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
}

// ResultGuard scrubs a tool's output Text blocks before act() appends them
// to Memory. The zero value is inert; engine.Engine.ResultGuard is nil
// (off) by default — a caller opts in by setting one.
type ResultGuard struct {
	MaxChars        int
	Denylist        []string
	RedactPatterns  []string
	RedactionText   string
	SanitizeSecrets bool
}

func (g ResultGuard) active() bool {
	return g.MaxChars > 0 || len(g.Denylist) > 0 || len(g.RedactPatterns) > 0 || g.SanitizeSecrets
}

// Apply redacts/truncates the Text blocks among blocks, which were produced
// by toolName; non-Text blocks (ToolUse, Image, ...) pass through untouched.
// When toolName matches Denylist, every block, Text or not, is replaced by
// the redaction text.
func (g ResultGuard) Apply(toolName string, blocks []message.ContentBlock) []message.ContentBlock {
	if !g.active() || len(blocks) == 0 {
		return blocks
	}

	redaction := g.RedactionText
	if redaction == "" {
		redaction = "[REDACTED]"
	}

	if matchesApprovalPattern(g.Denylist, toolName) {
		out := make([]message.ContentBlock, len(blocks))
		for i := range blocks {
			out[i] = message.Text{Text: redaction}
		}
		return out
	}

	out := make([]message.ContentBlock, len(blocks))
	for i, b := range blocks {
		text, ok := b.(message.Text)
		if !ok {
			out[i] = b
			continue
		}
		content := text.Text
		if g.SanitizeSecrets {
			for _, re := range builtinSecretPatterns {
				content = re.ReplaceAllString(content, redaction)
			}
		}
		for _, pattern := range g.RedactPatterns {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" {
				continue
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			content = re.ReplaceAllString(content, redaction)
		}
		if g.MaxChars > 0 && len(content) > g.MaxChars {
			content = content[:g.MaxChars] + "...[truncated]"
		}
		out[i] = message.Text{Text: content}
	}
	return out
}
