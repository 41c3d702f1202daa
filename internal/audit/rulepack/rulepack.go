// Package rulepack loads the heuristic audit rules. The default pack is
// embedded in the binary; operators may merge an extra YAML file on top.
package rulepack

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

//go:embed rules.yaml
var defaultRules []byte

// File is the YAML document layout.
type File struct {
	Rules []Rule `yaml:"rules"`
}

// Rule is one keyword co-occurrence check.
type Rule struct {
	ID                string               `yaml:"id"`
	ContentTypes      []domain.ContentType `yaml:"content_types"`
	Severity          domain.Severity      `yaml:"severity"`
	Fields            []string             `yaml:"fields"`
	TriggersAny       []string             `yaml:"triggers_any"`
	TriggersAllGroups [][]string           `yaml:"triggers_all_groups"`
	RequiresAny       []string             `yaml:"requires_any"`
	Description       string               `yaml:"description"`
	Fix               string               `yaml:"fix"`

	triggersAny []*regexp.Regexp
	triggerAll  [][]*regexp.Regexp
	requiresAny []*regexp.Regexp
}

// Default returns the embedded rule pack.
func Default() ([]Rule, error) {
	rules, err := Parse(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("embedded rule pack: %w", err)
	}
	return rules, nil
}

// Load returns the embedded pack merged with the rules in extraPath. A rule
// in the extra file replaces an embedded rule with the same ID.
func Load(extraPath string) ([]Rule, error) {
	rules, err := Default()
	if err != nil {
		return nil, err
	}
	if extraPath == "" {
		return rules, nil
	}

	data, err := os.ReadFile(extraPath)
	if err != nil {
		return nil, fmt.Errorf("read rule pack %s: %w", extraPath, err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule pack %s: %w", extraPath, err)
	}
	return Merge(rules, extra), nil
}

// Merge overlays extra on base by rule ID, keeping base order and appending
// new IDs.
func Merge(base, extra []Rule) []Rule {
	out := make([]Rule, len(base))
	copy(out, base)
	pos := make(map[string]int, len(out))
	for i, r := range out {
		pos[r.ID] = i
	}
	for _, r := range extra {
		if i, ok := pos[r.ID]; ok {
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// Parse decodes and compiles a YAML rule pack.
func Parse(data []byte) ([]Rule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal rule pack: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Rules))
	for i := range f.Rules {
		r := &f.Rules[i]
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return f.Rules, nil
}

func (r *Rule) compile() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("invalid severity %q", r.Severity)
	}
	for _, ct := range r.ContentTypes {
		if !ct.IsValid() {
			return fmt.Errorf("invalid content type %q", ct)
		}
	}
	if len(r.TriggersAny) == 0 && len(r.TriggersAllGroups) == 0 {
		return fmt.Errorf("rule needs triggers_any or triggers_all_groups")
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}

	r.triggersAny = compileTerms(r.TriggersAny)
	r.requiresAny = compileTerms(r.RequiresAny)
	r.triggerAll = make([][]*regexp.Regexp, 0, len(r.TriggersAllGroups))
	for _, group := range r.TriggersAllGroups {
		if len(group) == 0 {
			return fmt.Errorf("empty trigger group")
		}
		r.triggerAll = append(r.triggerAll, compileTerms(group))
	}
	return nil
}

// AppliesTo reports whether the rule checks items of content type ct.
// A rule without content types applies to all of them.
func (r Rule) AppliesTo(ct domain.ContentType) bool {
	if len(r.ContentTypes) == 0 {
		return true
	}
	for _, c := range r.ContentTypes {
		if c == ct {
			return true
		}
	}
	return false
}

// Match reports whether the rule fires on text.
func (r Rule) Match(text string) bool {
	if len(r.triggersAny) > 0 && !anyMatch(r.triggersAny, text) {
		return false
	}
	for _, group := range r.triggerAll {
		if !anyMatch(group, text) {
			return false
		}
	}
	return !anyMatch(r.requiresAny, text)
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// compileTerms builds case-insensitive matchers. ASCII terms that start and
// end with a word character match on word boundaries so "mb" does not hit
// "number".
func compileTerms(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		pattern := regexp.QuoteMeta(t)
		if isASCIIWord(t) {
			pattern = `\b` + pattern + `\b`
		}
		out = append(out, regexp.MustCompile(`(?i)`+pattern))
	}
	return out
}

func isASCIIWord(t string) bool {
	for _, r := range t {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return isWordByte(t[0]) && isWordByte(t[len(t)-1])
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
