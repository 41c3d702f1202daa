package audit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

var (
	decoderRequiredKeys = []string{"id", "title", "original_question", "segments", "traps", "solution"}
	decoderAllowedKeys  = append(slices.Clone(decoderRequiredKeys), "question_table")
	highlightColors     = []string{"green", "yellow", "red", "blue"}
	sourceTypes         = []string{"prompt_info", "external_knowledge"}
	infoFields          = []string{"highlight_text", "condition", "knowledge", "explanation", "highlight_color"}
	stepFields          = []string{"step_desc", "content", "source_type", "source_label"}
)

const (
	goalColor       = "blue"
	trapColor       = "red"
	maxSegmentRunes = 220
	narrativeProbe  = 12
	minTrapDesc     = 18
)

func decoderRules() []Rule {
	dec := only(domain.ContentTypeDecoder)
	return []Rule{
		{
			ID:           "decoder.structure",
			ContentTypes: dec,
			Hints: map[string]string{
				"QA_STRUCT": "Keep only the allowed top-level fields and fill every required field.",
				"QA_TABLE":  "Make question_table a {columns, rows} object whose rows match the column count.",
			},
			Check: checkDecoderStructure,
		},
		{
			ID:           "decoder.segments",
			ContentTypes: dec,
			Hints: map[string]string{
				"QA_SEG":   "Complete every has_info segment and copy highlight_text verbatim from original_question.",
				"QA_LOGIC": "Use blue only for the decision goal and green for structure, sample or design information.",
				"QA_FLOW":  "Mark the decision goal in blue, drop repeated segments and split long ones.",
			},
			Check: checkDecoderSegments,
		},
		{
			ID:           "decoder.traps",
			ContentTypes: dec,
			Hints: map[string]string{
				"QA_TRAP": "Add at least one realistic trap that describes the wrong reasoning path.",
			},
			Check: checkDecoderTraps,
		},
		{
			ID:           "decoder.solution",
			ContentTypes: dec,
			Hints: map[string]string{
				"QA_SOL": "Attribute every solution step to its source and state the conclusion in the last step.",
			},
			Check: checkDecoderSolution,
		},
	}
}

func checkDecoderStructure(it Item) []domain.Issue {
	var out issues
	p, ok := it.Object()
	if !ok {
		out.add(domain.SeverityBlocker, ModuleStructure, "QA_STRUCT_002", it.Path,
			"Problem must be an object.", "Make each problem a JSON object.")
		return out
	}

	for _, k := range decoderRequiredKeys {
		v := p[k]
		if v == nil || (isString(v) && !nonEmptyString(v)) {
			out.add(domain.SeverityBlocker, ModuleStructure, "QA_STRUCT_002", it.Path+"."+k,
				"Missing required field: "+k, "Provide a non-empty "+k+".")
		}
	}

	var extra []string
	for k := range p {
		if !slices.Contains(decoderAllowedKeys, k) {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		slices.Sort(extra)
		out.add(domain.SeverityBlocker, ModuleStructure, "QA_STRUCT_001", it.Path,
			"Unknown top-level fields: "+strings.Join(extra, ", "), "Remove fields outside the decoder schema.")
	}

	if qt, present := p["question_table"]; present && qt != nil {
		checkQuestionTable(&out, it.Path+".question_table", qt)
	}
	return out
}

func checkQuestionTable(out *issues, loc string, v any) {
	qt, ok := asObject(v)
	if !ok {
		out.add(domain.SeverityBlocker, ModuleStructure, "QA_TABLE_001", loc,
			"question_table must be an object.", "Use {columns, rows}.")
		return
	}
	cols, colsOK := asArray(qt["columns"])
	if !colsOK || len(cols) == 0 {
		out.add(domain.SeverityBlocker, ModuleStructure, "QA_TABLE_001", loc+".columns",
			"columns must be a non-empty array.", "List the table column names.")
	}
	rows, ok := asArray(qt["rows"])
	if !ok {
		out.add(domain.SeverityBlocker, ModuleStructure, "QA_TABLE_001", loc+".rows",
			"rows must be an array of arrays.", "List the table rows.")
		return
	}
	if !colsOK {
		return
	}
	for i, r := range rows {
		rowLoc := fmt.Sprintf("%s.rows[%d]", loc, i)
		row, ok := asArray(r)
		if !ok {
			out.add(domain.SeverityBlocker, ModuleStructure, "QA_TABLE_001", rowLoc,
				"Each row must be an array.", "Represent rows as arrays.")
			continue
		}
		if len(row) != len(cols) {
			out.add(domain.SeverityBlocker, ModuleStructure, "QA_TABLE_001", rowLoc,
				fmt.Sprintf("Row has %d cells, columns has %d.", len(row), len(cols)), "Align every row with the columns.")
		}
	}
}

func checkDecoderSegments(it Item) []domain.Issue {
	var out issues
	p, ok := it.Object()
	if !ok {
		return nil
	}
	loc := it.Path + ".segments"
	segments, ok := asArray(p["segments"])
	if !ok || len(segments) == 0 {
		out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_001", loc,
			"segments must be a non-empty array.", "Split the question into segments in reading order.")
		return out
	}

	question, _ := p["original_question"].(string)
	hasQuestion := strings.TrimSpace(question) != ""
	hasNarrative, hasGoal := false, false
	prevText := ""

	for i, s := range segments {
		segLoc := fmt.Sprintf("%s[%d]", loc, i)
		seg, ok := asObject(s)
		if !ok {
			out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_002", segLoc,
				"Segment must be an object.", "Use an object for every segment.")
			prevText = ""
			continue
		}

		text, _ := seg["text"].(string)
		if !nonEmptyString(seg["text"]) {
			out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_002", segLoc+".text",
				"text must be a non-empty string.", "Add the segment text.")
		}
		if _, isBool := seg["has_info"].(bool); !isBool {
			out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_002", segLoc+".has_info",
				"has_info must be a boolean.", "Set has_info to true or false.")
		}

		if info, _ := seg["has_info"].(bool); info {
			checkInfoSegment(&out, segLoc, seg, question, hasQuestion)
			if seg["highlight_color"] == goalColor {
				hasGoal = true
			}
		}

		if hasQuestion && strings.TrimSpace(text) != "" && strings.Contains(question, runePrefix(text, narrativeProbe)) {
			hasNarrative = true
		}
		if i > 0 && strings.TrimSpace(text) != "" && text == prevText {
			out.add(domain.SeverityMajor, ModuleFlow, "QA_FLOW_001", segLoc,
				"Adjacent segments repeat the same text.", "Remove the duplicate and keep the reading flow continuous.")
		}
		prevText = text
	}

	if !hasNarrative {
		out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_008", loc,
			"Segments do not cover the narrative of original_question.", "Add the scenario or decision-setting sentence.")
	}
	if !hasGoal {
		out.add(domain.SeverityBlocker, ModuleFlow, "QA_FLOW_003", loc,
			"No decision-goal segment (blue) found.", "Mark at least one decision-goal segment blue.")
	}
	return out
}

func checkInfoSegment(out *issues, segLoc string, seg map[string]any, question string, hasQuestion bool) {
	for _, f := range infoFields {
		if !nonEmptyString(seg[f]) {
			out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_003", segLoc+"."+f,
				"has_info=true requires "+f+".", "Add "+f+".")
		}
	}

	highlight, _ := seg["highlight_text"].(string)
	if hasQuestion && strings.TrimSpace(highlight) != "" && !strings.Contains(question, highlight) {
		out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_004", segLoc+".highlight_text",
			"highlight_text not a substring of original_question.", "Copy a contiguous span from original_question.")
	}

	color, _ := seg["highlight_color"].(string)
	if strings.TrimSpace(color) != "" && !slices.Contains(highlightColors, color) {
		out.add(domain.SeverityBlocker, ModuleSegments, "QA_SEG_005", segLoc+".highlight_color",
			"highlight_color must be one of: "+strings.Join(highlightColors, ", "), "Use green, yellow, red or blue.")
	}

	text, _ := seg["text"].(string)
	condition, _ := seg["condition"].(string)
	knowledge, _ := seg["knowledge"].(string)

	if isTrap, _ := seg["is_trap"].(bool); isTrap {
		if color != trapColor {
			out.add(domain.SeverityMajor, ModuleSegments, "QA_SEG_006", segLoc+".highlight_color",
				"Trap segments should be red.", "Set the trap segment color to red.")
		}
		if containsAny(condition+" "+knowledge, "goal", "decision", "target", "结论", "目标") {
			out.add(domain.SeverityMajor, ModuleSegments, "QA_SEG_007", segLoc,
				"Decision information looks mislabeled as a trap.", "Only mark misleading or irrelevant information as a trap.")
		}
		if color == goalColor {
			out.add(domain.SeverityMajor, ModuleSegments, "QA_SEG_009", segLoc,
				"Trap segments must not use the decision-goal color.", "Use red for traps and blue for the decision goal.")
		}
	}

	if color == goalColor && !containsAny(text+" "+condition+" "+knowledge,
		"goal", "decision", "target", "what", "should", "结论", "目标", "应", "多少") {
		out.add(domain.SeverityMajor, ModuleLogic, "QA_LOGIC_004", segLoc+".highlight_color",
			"Blue should mark the decision or inference goal.", "Mark the real decision goal blue.")
	}
	if color == "green" && !containsAny(text+" "+knowledge,
		"sample", "population", "structure", "design", "option", "alternative", "样本", "总体", "结构", "设计") {
		out.add(domain.SeverityMajor, ModuleLogic, "QA_LOGIC_004", segLoc+".highlight_color",
			"Green usually marks structure, sample or design information.",
			"Change "+segLoc+".highlight_color to yellow, or describe the structure in knowledge.")
	}

	if len([]rune(text)) > maxSegmentRunes {
		out.add(domain.SeverityMinor, ModuleFlow, "QA_FLOW_002", segLoc,
			"Segment is too long for step-by-step reading.", "Split it into smaller segments.")
	}
}

func checkDecoderTraps(it Item) []domain.Issue {
	var out issues
	p, ok := it.Object()
	if !ok {
		return nil
	}
	loc := it.Path + ".traps"
	traps, ok := asArray(p["traps"])
	if !ok || len(traps) == 0 {
		out.add(domain.SeverityBlocker, ModuleTraps, "QA_TRAP_001", loc,
			"traps needs at least one entry.", "Add at least one real student misconception.")
		return out
	}
	for i, t := range traps {
		trapLoc := fmt.Sprintf("%s[%d]", loc, i)
		trap, ok := asObject(t)
		if !ok {
			out.add(domain.SeverityBlocker, ModuleStructure, "QA_STRUCT_002", trapLoc,
				"Trap must be an object.", "Use {title, description}.")
			continue
		}
		desc, _ := trap["description"].(string)
		switch {
		case !nonEmptyString(trap["title"]) || !nonEmptyString(trap["description"]):
			out.add(domain.SeverityMajor, ModuleTraps, "QA_TRAP_002", trapLoc,
				"Trap needs a title and a description.", "Complete the trap title and explanation.")
		case len([]rune(strings.TrimSpace(desc))) < minTrapDesc:
			out.add(domain.SeverityMajor, ModuleTraps, "QA_TRAP_002", trapLoc,
				"Trap description is too short to be realistic.", "Describe how a student would get it wrong.")
		}
	}
	return out
}

func checkDecoderSolution(it Item) []domain.Issue {
	var out issues
	p, ok := it.Object()
	if !ok {
		return nil
	}
	loc := it.Path + ".solution"

	switch sol := p["solution"].(type) {
	case string:
		// Legacy free-text solutions are accepted when non-empty; emptiness
		// is reported by the structure rule.
		return nil
	case []any:
		if len(sol) == 0 {
			out.add(domain.SeverityBlocker, ModuleSolution, "QA_SOL_001", loc,
				"solution must contain at least one step.", "Write the solution as an array of steps.")
			return out
		}
		checkSolutionSteps(&out, loc, sol)
	default:
		out.add(domain.SeverityBlocker, ModuleSolution, "QA_SOL_001", loc,
			"solution must be an array of steps.", "Write the solution as an array of steps.")
	}
	return out
}

func checkSolutionSteps(out *issues, loc string, steps []any) {
	for i, s := range steps {
		stepLoc := fmt.Sprintf("%s[%d]", loc, i)
		step, ok := asObject(s)
		if !ok {
			out.add(domain.SeverityBlocker, ModuleSolution, "QA_SOL_002", stepLoc,
				"Solution step must be an object.", "Use an object for every step.")
			continue
		}
		for _, f := range stepFields {
			if !nonEmptyString(step[f]) {
				out.add(domain.SeverityBlocker, ModuleSolution, "QA_SOL_002", stepLoc+"."+f,
					"Missing "+f+".", "Add "+f+".")
			}
		}
		if st, _ := step["source_type"].(string); strings.TrimSpace(st) != "" && !slices.Contains(sourceTypes, st) {
			out.add(domain.SeverityBlocker, ModuleSolution, "QA_SOL_003", stepLoc+".source_type",
				"source_type must be one of: "+strings.Join(sourceTypes, ", "), "Use prompt_info or external_knowledge.")
		}
	}

	if len(steps) < 2 {
		out.add(domain.SeverityMajor, ModuleSolution, "QA_SOL_004", loc,
			"Use at least two solution steps.", "Add the intermediate reasoning and the final conclusion step.")
	}

	last, _ := asObject(steps[len(steps)-1])
	desc, _ := last["step_desc"].(string)
	content, _ := last["content"].(string)
	if !containsAny(desc+" "+content, "final", "answer", "therefore", "thus", "结果", "结论", "应", "should", "=") {
		out.add(domain.SeverityMajor, ModuleSolution, "QA_SOL_004", fmt.Sprintf("%s[%d]", loc, len(steps)-1),
			"The last step does not state the final result.", "End with an explicit answer or decision.")
	}
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
