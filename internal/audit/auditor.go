// Package audit is the content quality auditor: it normalizes raw JSON
// payloads into items and folds a registry of rules over them into an
// AuditReport. Auditing has no side effects.
package audit

import (
	"fmt"

	"github.com/heartmarshall/studyvault-backend/internal/audit/rulepack"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

const (
	ruleInputEmpty = "INPUT_EMPTY_001"
	readyHint      = "Content passed the audit and is ready to publish."
)

type penalty struct{ blocker, major, minor int }

func (p penalty) of(sev domain.Severity) int {
	switch sev {
	case domain.SeverityBlocker:
		return p.blocker
	case domain.SeverityMajor:
		return p.major
	}
	return p.minor
}

var (
	protocolPenalty        = penalty{blocker: 25, major: 10, minor: 3}
	teachingPenalty        = penalty{blocker: 20, major: 8, minor: 3}
	teachingModuleProtocol = penalty{blocker: 15, major: 5, minor: 2}
	teachingModuleTeaching = penalty{blocker: 30, major: 15, minor: 5}
)

// Auditor evaluates content against its rule registry.
type Auditor struct {
	rules []Rule
	hints map[string]string
}

// New builds an auditor with the built-in rules and the given heuristic rules.
func New(heuristics []rulepack.Rule) *Auditor {
	a := &Auditor{hints: map[string]string{
		Family(ruleInputEmpty): "Provide a non-empty JSON array of items; a single object or a cards/questions wrapper is also accepted.",
	}}
	for _, r := range builtinRules() {
		a.Register(r)
	}
	for _, h := range heuristics {
		a.Register(HeuristicRule(h))
	}
	return a
}

// Register appends a rule to the registry.
func (a *Auditor) Register(r Rule) {
	a.rules = append(a.rules, r)
	for family, hint := range r.Hints {
		a.hints[family] = hint
	}
}

// Rules returns the registry in evaluation order.
func (a *Auditor) Rules() []Rule {
	out := make([]Rule, len(a.rules))
	copy(out, a.rules)
	return out
}

// Audit normalizes raw and audits it. Content problems are reported as
// issues; an error is returned only for input that cannot be normalized.
func (a *Auditor) Audit(ct domain.ContentType, raw []byte) (domain.AuditReport, error) {
	if !ct.IsValid() {
		return domain.AuditReport{}, fmt.Errorf("%w: unknown content type %q", domain.ErrInvalidInput, ct)
	}
	p, err := Normalize(raw)
	if err != nil {
		return domain.AuditReport{}, err
	}
	return a.AuditPayload(ct, p), nil
}

// AuditPayload audits an already normalized payload.
func (a *Auditor) AuditPayload(ct domain.ContentType, p Payload) domain.AuditReport {
	var found issues
	if len(p.Items) == 0 {
		found.add(domain.SeverityBlocker, ModuleStructure, ruleInputEmpty, "input",
			"Input contains no items.", "Submit at least one item.")
	}

	prefix := itemPrefix(ct)
	for _, it := range p.Items {
		it.Path = fmt.Sprintf("%s[%d]", prefix, it.Index)
		for _, r := range a.rules {
			if r.AppliesTo(ct) {
				found = append(found, r.Check(it)...)
			}
		}
	}
	return a.report(found)
}

func (a *Auditor) report(found []domain.Issue) domain.AuditReport {
	protocol, teaching := 100, 100
	pass := true
	for _, is := range found {
		pp, tp := protocolPenalty, teachingPenalty
		if teachingModules[is.Module] {
			pp, tp = teachingModuleProtocol, teachingModuleTeaching
		}
		protocol -= pp.of(is.Severity)
		teaching -= tp.of(is.Severity)
		if is.Severity == domain.SeverityBlocker {
			pass = false
		}
	}

	if found == nil {
		found = []domain.Issue{}
	}
	return domain.AuditReport{
		OverallPass:   pass,
		ProtocolScore: max(protocol, 0),
		TeachingScore: max(teaching, 0),
		Issues:        found,
		Suggestions:   a.suggestions(found),
	}
}

// suggestions returns one hint per fired rule family in first-seen order.
func (a *Auditor) suggestions(found []domain.Issue) []string {
	if len(found) == 0 {
		return []string{readyHint}
	}
	seen := make(map[string]bool)
	var out []string
	for _, is := range found {
		hint, ok := a.hints[Family(is.RuleID)]
		if !ok {
			hint = is.FixSuggestion
		}
		if hint == "" || seen[hint] {
			continue
		}
		seen[hint] = true
		out = append(out, hint)
	}
	return out
}
