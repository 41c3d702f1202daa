package audit

import (
	"slices"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

var practiceTypes = []string{"choice", "bool", "essay"}

func practiceRules() []Rule {
	prac := only(domain.ContentTypePractice)
	return []Rule{
		{
			ID:           "practice.structure",
			ContentTypes: prac,
			Hints: map[string]string{
				"PRAC_STR": "Give every question an id, a valid type, the question text, an answer and an analysis object.",
			},
			Check: checkPracticeStructure,
		},
		{
			ID:           "practice.pedagogy",
			ContentTypes: prac,
			Hints: map[string]string{
				"PRAC_PED": "Deepen the analysis: decoding, conditions, at least two steps and, for choice questions, option analysis.",
			},
			Check: checkPracticePedagogy,
		},
	}
}

func checkPracticeStructure(it Item) []domain.Issue {
	var out issues
	q, ok := it.Object()
	if !ok {
		out.add(domain.SeverityBlocker, ModuleStructure, "PRAC_STR_001", it.Path,
			"Question must be an object.", "Make each question a JSON object.")
		return out
	}

	for _, f := range []string{"id", "type", "question", "analysis"} {
		if !truthy(q[f]) {
			out.add(domain.SeverityBlocker, ModuleStructure, "PRAC_STR_002", it.Path+"."+f,
				"Missing required field: "+f, "Add "+f+".")
		}
	}
	if a := q["answer"]; a == nil || a == "" {
		out.add(domain.SeverityBlocker, ModuleStructure, "PRAC_STR_002", it.Path+".answer",
			"answer is missing or empty.", "Add the answer.")
	}

	qtype, _ := q["type"].(string)
	if truthy(q["type"]) && !slices.Contains(practiceTypes, qtype) {
		out.add(domain.SeverityBlocker, ModuleStructure, "PRAC_STR_004", it.Path+".type",
			"type must be choice, bool or essay.", "Use choice, bool or essay.")
	}
	if qtype == "choice" {
		if opts, ok := asArray(q["options"]); !ok || len(opts) < 2 {
			out.add(domain.SeverityBlocker, ModuleStructure, "PRAC_STR_003", it.Path+".options",
				"Choice questions need at least two options.", "Provide at least two options.")
		}
	}
	if a, present := q["analysis"]; present && truthy(a) {
		if _, ok := asObject(a); !ok {
			out.add(domain.SeverityBlocker, ModuleStructure, "PRAC_STR_005", it.Path+".analysis",
				"analysis must be an object.", "Use an analysis object with decoding, conditions and steps.")
		}
	}
	return out
}

func checkPracticePedagogy(it Item) []domain.Issue {
	var out issues
	q, ok := it.Object()
	if !ok {
		return nil
	}
	qtype, _ := q["type"].(string)
	essay := qtype == "essay"
	analysis, _ := asObject(q["analysis"])
	loc := it.Path + ".analysis"

	scaled := domain.SeverityMinor
	if essay {
		scaled = domain.SeverityMajor
	}

	if !nonEmptyArray(analysis["decoding"], 1) {
		out.add(domain.SeverityMajor, ModulePedagogy, "PRAC_PED_001", loc+".decoding",
			"Provide a decoding of the question.", "Break the question into annotated parts.")
	}
	if !nonEmptyArray(analysis["conditions"], 1) {
		out.add(scaled, ModulePedagogy, "PRAC_PED_002", loc+".conditions",
			"Provide the known conditions or key knowledge points.", "List the formulas or background needed.")
	}
	if essay && !nonEmptyArray(analysis["traps"], 1) {
		out.add(domain.SeverityMajor, ModulePedagogy, "PRAC_PED_003", loc+".traps",
			"Essay questions should analyze common traps.", "Describe where students usually go wrong.")
	}
	if !nonEmptyArray(analysis["steps"], 2) {
		out.add(scaled, ModulePedagogy, "PRAC_PED_004", loc+".steps",
			"Use at least two solution steps.", "Split the derivation into steps.")
	}
	if qtype == "choice" && !nonEmptyArray(analysis["option_analysis"], 1) {
		out.add(domain.SeverityMajor, ModulePedagogy, "PRAC_PED_005", loc+".option_analysis",
			"Choice questions should explain each option.", "Explain why each wrong option is wrong.")
	}
	return out
}

func nonEmptyArray(v any, minLen int) bool {
	a, ok := asArray(v)
	return ok && len(a) >= minLen
}
