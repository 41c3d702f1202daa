package audit

import (
	"github.com/heartmarshall/studyvault-backend/internal/audit/rulepack"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// HeuristicRule adapts a rule pack entry to the registry. Matching is
// lexical over the configured fields, or the whole item when none are set.
func HeuristicRule(h rulepack.Rule) Rule {
	return Rule{
		ID:           h.ID,
		ContentTypes: h.ContentTypes,
		Hints:        map[string]string{Family(h.ID): h.Fix},
		Check: func(it Item) []domain.Issue {
			if !h.Match(heuristicText(it, h.Fields)) {
				return nil
			}
			var out issues
			out.add(h.Severity, ModuleHeuristic, h.ID, it.Path, h.Description, h.Fix)
			return out
		},
	}
}

func heuristicText(it Item, fields []string) string {
	obj, ok := it.Object()
	if !ok || len(fields) == 0 {
		return collectText(it.Value)
	}
	scoped := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, present := obj[f]; present {
			scoped[f] = v
		}
	}
	return collectText(scoped)
}

func builtinRules() []Rule {
	var rules []Rule
	rules = append(rules, flashcardRules()...)
	rules = append(rules, decoderRules()...)
	rules = append(rules, practiceRules()...)
	rules = append(rules, technicalRules()...)
	return rules
}
