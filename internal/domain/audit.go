package domain

// Issue is a single finding of the content auditor.
type Issue struct {
	Severity      Severity `json:"severity"`
	Module        string   `json:"module"`
	RuleID        string   `json:"ruleId"`
	Location      string   `json:"location"`
	Description   string   `json:"description"`
	FixSuggestion string   `json:"fixSuggestion"`
}

// AuditReport is the outcome of auditing one payload.
// OverallPass is true iff no Blocker issue is present.
type AuditReport struct {
	OverallPass   bool     `json:"overallPass"`
	ProtocolScore int      `json:"protocolScore"`
	TeachingScore int      `json:"teachingScore"`
	Issues        []Issue  `json:"issues"`
	Suggestions   []string `json:"suggestions"`
}

// CountBySeverity returns how many issues carry the given severity.
func (r AuditReport) CountBySeverity(sev Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

// HasRule reports whether any issue was raised by ruleID.
func (r AuditReport) HasRule(ruleID string) bool {
	for _, is := range r.Issues {
		if is.RuleID == ruleID {
			return true
		}
	}
	return false
}
