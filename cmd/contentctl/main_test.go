package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/service/moderation"
	"github.com/heartmarshall/studyvault-backend/internal/service/workspace"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAuditCmd_Pass(t *testing.T) {
	path := writeFile(t, "deck.json", `[{"question":"2+2?","answer":"4"}]`)

	out, err := runCmd(t, "audit", "flashcard", path)
	require.NoError(t, err)

	var report domain.AuditReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.OverallPass)
}

func TestAuditCmd_BlockerFails(t *testing.T) {
	path := writeFile(t, "deck.json", `[{"answer":"4"}]`)

	out, err := runCmd(t, "audit", "flashcard", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errAuditFailed))

	var report domain.AuditReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.HasRule("FC_STR_002"))
}

func TestAuditCmd_BadArgs(t *testing.T) {
	_, err := runCmd(t, "audit", "essay", "whatever.json")
	assert.Error(t, err)

	_, err = runCmd(t, "audit", "flashcard", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseSubjects(t *testing.T) {
	got, err := parseSubjects([]string{"econ=经济学", " stats ", "hist= "})
	require.NoError(t, err)
	assert.Equal(t, []workspace.SubjectInput{
		{ID: "econ", Label: "经济学"},
		{ID: "stats", Label: "stats"},
		{ID: "hist", Label: "hist"},
	}, got)

	_, err = parseSubjects([]string{"=label"})
	assert.Error(t, err)
}

func TestParseSources(t *testing.T) {
	got, err := parseSources([]string{"alice:flashcard_econ_deck.json", " bob : decoder_x.json"})
	require.NoError(t, err)
	assert.Equal(t, []moderation.PromoteSource{
		{TenantID: "alice", FileName: "flashcard_econ_deck.json"},
		{TenantID: "bob", FileName: "decoder_x.json"},
	}, got)

	for _, bad := range []string{"alice", ":file.json", "alice:"} {
		_, err := parseSources([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestFilterSameContent(t *testing.T) {
	groups := []storage.DuplicateGroup{
		{FileName: "a.json", SameContent: true},
		{FileName: "b.json", SameContent: false},
		{FileName: "c.json", SameContent: true},
	}

	got := filterSameContent(groups)

	require.Len(t, got, 2)
	assert.Equal(t, "a.json", got[0].FileName)
	assert.Equal(t, "c.json", got[1].FileName)
}

func TestWorkspaceAndFsckCmds(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeFile(t, "config.yaml", `
storage:
  backend: fs
  content_dir: `+filepath.Join(t.TempDir(), "content")+`
auth:
  jwt_secret: "this-is-a-very-long-jwt-secret-for-testing-32+"
log:
  level: error
`))

	out, err := runCmd(t, "workspace", "create", "alice", "--name", "Alice")
	require.NoError(t, err)
	var ws domain.Workspace
	require.NoError(t, json.Unmarshal([]byte(out), &ws))
	assert.Equal(t, "alice", ws.ID)

	_, err = runCmd(t, "workspace", "create", "alice")
	assert.ErrorIs(t, err, domain.ErrConflict)

	out, err = runCmd(t, "fsck")
	require.NoError(t, err)
	var report storage.FsckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Findings)

	out, err = runCmd(t, "token", "issue", "alice", "--role", "moderator")
	require.NoError(t, err)
	assert.NotEmpty(t, bytes.TrimSpace([]byte(out)))

	_, err = runCmd(t, "token", "issue", "alice", "--role", "root")
	assert.Error(t, err)
}
