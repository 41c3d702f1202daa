package storage

import (
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
)

// Document layout:
//
//	workspaces.json                                 workspace list
//	<tenant>/meta.json                              workspace metadata
//	<tenant>/<type>_topics.json                     personal catalog index
//	<tenant>/<file>                                 personal dataset body
//	shared/<school>/school.json                     school subject registry
//	shared/<school>/<subject>/<type>_topics.json    shared catalog index
//	shared/<school>/<subject>/<file>                shared dataset body
//	inbox/index.json                                inbox records
//	journal/<id>.json                               pending write intents
const (
	workspacesKey  = "workspaces.json"
	inboxKey       = "inbox/index.json"
	journalPrefix  = "journal/"
	sharedPrefix   = "shared/"
	metaFile       = "meta.json"
	schoolFile     = "school.json"
	dataVersionTag = "v1"
)

func metaKey(tenantID string) string { return tenantID + "/" + metaFile }

func tenantIndexKey(tenantID string, ct domain.ContentType) string {
	return tenantID + "/" + ct.IndexFileName()
}

func tenantDatasetKey(tenantID, fileName string) string { return tenantID + "/" + fileName }

func schoolKey(schoolID string) string { return sharedPrefix + schoolID + "/" + schoolFile }

func sharedDir(schoolID, subjectID string) string {
	return sharedPrefix + schoolID + "/" + subjectID
}

func sharedIndexKey(schoolID, subjectID string, ct domain.ContentType) string {
	return sharedDir(schoolID, subjectID) + "/" + ct.IndexFileName()
}

func sharedDatasetKey(schoolID, subjectID, fileName string) string {
	return sharedDir(schoolID, subjectID) + "/" + fileName
}

func journalKey(id string) string { return journalPrefix + id + ".json" }

// isIndexFile reports whether name is one of the per-scope catalog indexes.
func isIndexFile(name string) bool {
	for _, ct := range domain.ContentTypes {
		if name == ct.IndexFileName() {
			return true
		}
	}
	return false
}

// isSystemFile reports names that are not dataset bodies.
func isSystemFile(name string) bool {
	return name == metaFile || name == schoolFile || isIndexFile(name)
}

// validDatasetName accepts only plain JSON file names that do not shadow
// system documents.
func validDatasetName(name string) bool {
	return domain.IsSafeFileName(name) && !isSystemFile(name)
}

// contentTypeOfFile infers the content type from a derived dataset name.
func contentTypeOfFile(name string) (domain.ContentType, bool) {
	return domain.ContentTypeOfFile(name)
}

// keyKind labels a key for metrics.
func keyKind(key string) string {
	switch {
	case key == workspacesKey:
		return "workspaces"
	case key == inboxKey:
		return "inbox"
	case strings.HasPrefix(key, journalPrefix):
		return "journal"
	case strings.HasSuffix(key, "/"+metaFile):
		return "meta"
	case strings.HasSuffix(key, "/"+schoolFile):
		return "school"
	case isIndexFile(key[strings.LastIndex(key, "/")+1:]):
		if strings.HasPrefix(key, sharedPrefix) {
			return "shared_index"
		}
		return "index"
	}
	return "dataset"
}
