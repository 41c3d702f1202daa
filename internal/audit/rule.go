package audit

import (
	"slices"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// Module names. Issues from teaching modules weigh more against the
// teaching score than against the protocol score.
const (
	ModuleStructure  = "structure"
	ModuleSegments   = "segments"
	ModuleSolution   = "solution"
	ModuleTraps      = "traps"
	ModuleLogic      = "logic"
	ModuleFlow       = "flow"
	ModulePedagogy   = "pedagogy"
	ModuleLatex      = "latex"
	ModuleJSONSafety = "json_safety"
	ModuleHeuristic  = "heuristic"
)

var teachingModules = map[string]bool{
	ModulePedagogy:  true,
	ModuleLogic:     true,
	ModuleHeuristic: true,
	ModuleFlow:      true,
	ModuleTraps:     true,
}

// Rule is one independently testable check in the registry.
type Rule struct {
	// ID names the rule in the registry. Issues carry their own rule IDs.
	ID string
	// ContentTypes restricts the rule; empty means every type.
	ContentTypes []domain.ContentType
	// Hints maps rule families raised by this rule to remediation text.
	Hints map[string]string
	Check func(it Item) []domain.Issue
}

// AppliesTo reports whether the rule runs for content type ct.
func (r Rule) AppliesTo(ct domain.ContentType) bool {
	return len(r.ContentTypes) == 0 || slices.Contains(r.ContentTypes, ct)
}

// Family strips a trailing numeric segment from a rule ID:
// QA_SEG_004 becomes QA_SEG, HEUR_SUNK_COST stays as is.
func Family(ruleID string) string {
	i := strings.LastIndexByte(ruleID, '_')
	if i < 0 || i == len(ruleID)-1 {
		return ruleID
	}
	for _, c := range ruleID[i+1:] {
		if c < '0' || c > '9' {
			return ruleID
		}
	}
	return ruleID[:i]
}

// issues accumulates findings for one item.
type issues []domain.Issue

func (is *issues) add(sev domain.Severity, module, ruleID, location, description, fix string) {
	*is = append(*is, domain.Issue{
		Severity:      sev,
		Module:        module,
		RuleID:        ruleID,
		Location:      location,
		Description:   description,
		FixSuggestion: fix,
	})
}

func only(cts ...domain.ContentType) []domain.ContentType { return cts }
