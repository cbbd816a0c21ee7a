package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSegmentThenAssemble(t *testing.T) {
	src := filepath.Join(t.TempDir(), "module.html")
	require.NoError(t, os.WriteFile(src, []byte("<h2>A</h2><p>1</p><h2>B</h2><p>2</p>"), 0o600))

	out, err := runCLI(t, "", "segment", src)
	require.NoError(t, err)
	var seg struct {
		Strategy string            `json:"strategy"`
		Slides   []json.RawMessage `json:"slides"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &seg))
	assert.Equal(t, "headings", seg.Strategy)
	assert.Len(t, seg.Slides, 2)

	html, err := runCLI(t, out, "assemble", "-")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(html, `class="module-slide"`))
	assert.Equal(t, 1, strings.Count(html, `slide-separator`))
}

func TestSlug(t *testing.T) {
	out, err := runCLI(t, "", "slug", "Intro to Go!")
	require.NoError(t, err)
	assert.Regexp(t, `^intro-to-go-[a-z0-9]{3}\n$`, out)
}

func TestImportReportsPartialFailures(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{
  "path": {"name": "Go Basics"},
  "modules": [
    {"title": "Intro", "content": "<h2>One</h2><p>a</p>"},
    {"title": "Empty", "content": ""}
  ],
  "quizzes": [
    {"module_index": 0, "title": "Q1", "questions": [{"question_text": "pick b", "choices": ["a", "b"], "correct_answer": "b"}]},
    {"module_index": 1, "title": "Q2", "questions": []}
  ]
}`), 0o600))

	out, err := runCLI(t, "", "import", doc, "--db-dsn", filepath.Join(dir, "authoring.db"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "modules: 1/2 saved")
	assert.Contains(t, out, "quizzes: 1/2 saved")
	assert.Contains(t, out, "module 1: Please add content to all slides")
	assert.Contains(t, out, "quiz 1: Module not found for this quiz")
}

func TestImportNeedsPathName(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"path": {"name": " "}, "modules": []}`), 0o600))

	_, err := runCLI(t, "", "import", doc, "--db-dsn", filepath.Join(dir, "authoring.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Path name is required")
}
