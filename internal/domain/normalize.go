package domain

import (
	"regexp"
	"strings"
)

var (
	unsafePartRe = regexp.MustCompile(`[^a-z0-9\x{4e00}-\x{9fa5}_-]+`)
	underscoreRe = regexp.MustCompile(`_+`)
	slugRe       = regexp.MustCompile(`^[a-z0-9_-]+$`)
	subjectIDRe  = regexp.MustCompile(`^[a-z0-9\x{4e00}-\x{9fa5}_-]+$`)
)

// UncategorizedSubject is the label used when a submission has no subject.
const UncategorizedSubject = "未分类"

// reservedIDs cannot be used as workspace IDs: they name system areas of
// the document layout.
var reservedIDs = map[string]struct{}{
	"inbox":    {},
	"verified": {},
	"tmp":      {},
	"system":   {},
	"catalog":  {},
	"shared":   {},
	"journal":  {},
}

// SanitizePart turns free text into a file-name fragment:
//   - trims and lowercases
//   - replaces every run of characters outside [a-z0-9_-] and CJK with "_"
//   - collapses repeated underscores and trims them from both ends
//
// An empty result becomes "untitled".
func SanitizePart(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = unsafePartRe.ReplaceAllString(s, "_")
	s = underscoreRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "untitled"
	}
	return s
}

// DatasetFileName derives the deterministic storage name of a dataset.
func DatasetFileName(ct ContentType, subjectLabel, displayName string) string {
	return string(ct) + "_" + SanitizePart(subjectLabel) + "_" + SanitizePart(displayName) + ".json"
}

// NormalizeSubjectLabel canonicalizes a free-text subject label through the
// known aliases. Unknown labels are returned trimmed.
func NormalizeSubjectLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	switch strings.ToLower(trimmed) {
	case "economics", "econ", "经济学", "经济":
		return "经济学"
	case "statistics", "stat", "统计学", "统计":
		return "统计学"
	case "":
		return UncategorizedSubject
	}
	return trimmed
}

// IsSlug reports whether s is a valid machine identifier.
func IsSlug(s string) bool {
	return slugRe.MatchString(s)
}

// IsSubjectID reports whether s can name a subject. Subject IDs also name
// shared directories, so they use the file-name alphabet, CJK included.
func IsSubjectID(s string) bool {
	return subjectIDRe.MatchString(s)
}

// NormalizeID lowercases and trims an identifier supplied by a caller.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IsReservedID reports whether id names a system area.
func IsReservedID(id string) bool {
	_, ok := reservedIDs[id]
	return ok
}

// SubjectIDFromLabel returns the subject ID to register for a label when
// auto-creating a subject: valid IDs are kept as is, anything else is
// sanitized. The result always satisfies IsSubjectID.
func SubjectIDFromLabel(label string) string {
	id := NormalizeID(label)
	if IsSubjectID(id) {
		return id
	}
	return SanitizePart(label)
}

// IsSafeFileName reports whether name can be used as a dataset file name.
func IsSafeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return strings.HasSuffix(name, ".json")
}
