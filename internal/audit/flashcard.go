package audit

import (
	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

func flashcardRules() []Rule {
	return []Rule{{
		ID:           "flashcard.structure",
		ContentTypes: only(domain.ContentTypeFlashcard),
		Hints: map[string]string{
			"FC_STR": "Give every card a non-empty question and a string or object answer.",
		},
		Check: checkFlashcard,
	}}
}

func checkFlashcard(it Item) []domain.Issue {
	var out issues
	card, ok := it.Object()
	if !ok {
		out.add(domain.SeverityBlocker, ModuleStructure, "FC_STR_001", it.Path,
			"Card must be an object.", "Wrap each card in a JSON object.")
		return out
	}
	if !nonEmptyString(card["question"]) {
		out.add(domain.SeverityBlocker, ModuleStructure, "FC_STR_002", it.Path+".question",
			"question must be a non-empty string.", "Add the card question.")
	}
	switch card["answer"].(type) {
	case string, map[string]any, []any:
	default:
		out.add(domain.SeverityBlocker, ModuleStructure, "FC_STR_003", it.Path+".answer",
			"answer must be a string or an object.", "Add the card answer.")
	}
	return out
}
