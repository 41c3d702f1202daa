package audit

import (
	"regexp"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

var (
	percentInMathRe  = regexp.MustCompile(`\$[^$]*%[^$]*\$`)
	currencyRe       = regexp.MustCompile(`\$\d`)
	mathPairRe       = regexp.MustCompile(`\$[^$]*\$`)
	mathCommandRe    = regexp.MustCompile(`\\(times|cdot|sum|frac|sqrt|left|right|hat|sigma|mu|in|le|ge)\b`)
	forbiddenTokenRe = regexp.MustCompile(`(^|\n)\s*#\s|/\*|\*/|(^|\s)//|\[\^\d+\]`)
)

func technicalRules() []Rule {
	return []Rule{
		{
			ID: "technical.latex",
			Hints: map[string]string{
				"TECH_LATEX": "Sanitize LaTeX: escape backslashes, keep percent signs outside $...$ and write currency amounts as text.",
			},
			Check: checkLatex,
		},
		{
			ID:           "technical.forbidden_tokens",
			ContentTypes: only(domain.ContentTypeDecoder),
			Hints: map[string]string{
				"TECH_JSON": "Remove Markdown headings, comment markers and citation tokens from display text.",
			},
			Check: checkForbiddenTokens,
		},
	}
}

func checkLatex(it Item) []domain.Issue {
	var out issues
	walkStrings(it.Value, it.Path, func(loc, s string) {
		if strings.TrimSpace(s) == "" {
			return
		}
		if HasUnsafeBackslash(s) {
			out.add(domain.SeverityBlocker, ModuleLatex, "TECH_LATEX_001", loc,
				"Unsafe backslash escape.", `Keep only valid LaTeX such as \\frac, \\hat, \\{ or \\(.`)
		}
		if HasPercentInMath(s) {
			out.add(domain.SeverityMinor, ModuleLatex, "TECH_LATEX_002", loc,
				"Percent sign inside math mode.", "Write $98%$ as 98%.")
		}
		if HasCurrencyMathMix(s) {
			out.add(domain.SeverityMajor, ModuleLatex, "TECH_LATEX_003", loc,
				"Currency $ mixed with $...$ math in one string.",
				`Write amounts as text (120 dollars) and put formulas in \(...\).`)
		}
	})
	return out
}

func checkForbiddenTokens(it Item) []domain.Issue {
	var out issues
	walkStrings(it.Value, it.Path, func(loc, s string) {
		if strings.TrimSpace(s) != "" && forbiddenTokenRe.MatchString(s) {
			out.add(domain.SeverityBlocker, ModuleJSONSafety, "TECH_JSON_002", loc,
				"Forbidden token (heading, comment or citation marker).", "Remove Markdown headings, comment markers and citation tokens.")
		}
	})
	return out
}

// HasUnsafeBackslash reports a backslash that is not itself escaped and is
// not followed by a letter, digit, underscore, brace, paren, bracket or
// another backslash.
func HasUnsafeBackslash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		if i > 0 && s[i-1] == '\\' {
			continue
		}
		if i+1 == len(s) || !isSafeEscape(s[i+1]) {
			return true
		}
	}
	return false
}

func isSafeEscape(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	return strings.IndexByte(`_{}()[]\`, b) >= 0
}

// HasPercentInMath reports a % between two $ delimiters.
func HasPercentInMath(s string) bool {
	return percentInMathRe.MatchString(s)
}

// HasCurrencyMathMix reports a string that uses $ both for an amount and
// for a math span containing a LaTeX command.
func HasCurrencyMathMix(s string) bool {
	return currencyRe.MatchString(s) && mathPairRe.MatchString(s) && mathCommandRe.MatchString(s)
}
