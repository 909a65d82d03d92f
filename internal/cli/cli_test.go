package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/export"
	"github.com/mind-engage/mindengage-qti/internal/qti/parser"
	"github.com/mind-engage/mindengage-qti/internal/scoring"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func choice(id string) string {
	a := qti.Single("A")
	return export.BuildItem(qti.Item{
		ID: id, Title: id, Type: qti.InteractionChoice, Prompt: "Pick",
		Choices:         []qti.Choice{{Identifier: "A", Text: "a"}, {Identifier: "B", Text: "b"}},
		CorrectResponse: &a, MaxScore: 1,
	}, qti.V21)
}

func TestDetect(t *testing.T) {
	out, err := run(t, choice("q1"), "detect", "-")
	require.NoError(t, err)
	assert.Equal(t, "format=xml version=2.1\n", out)
}

func TestParse(t *testing.T) {
	out, err := run(t, "", "parse", writeFile(t, "q.xml", choice("q1")))
	require.NoError(t, err)
	var res qti.ParseResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "q1", res.Items[0].ID)

	_, err = run(t, "<broken", "parse", "--strict", "-")
	assert.Error(t, err)

	_, err = run(t, choice("q1"), "parse", "--qti-version", "4", "-")
	assert.Error(t, err)
}

func TestInsertReorderAnswer(t *testing.T) {
	doc := writeFile(t, "doc.xml", choice("q1"))
	item := writeFile(t, "new.xml", choice("q2"))

	out, err := run(t, "", "insert", doc, item)
	require.NoError(t, err)
	res := parser.QTI21.Parse(out)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "q2", res.Items[1].ID)

	out, err = run(t, out, "reorder", "--from", "1", "--to", "0", "-")
	require.NoError(t, err)
	res = parser.QTI21.Parse(out)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "q2", res.Items[0].ID)

	out, err = run(t, out, "answer", "--item", "q1", "--value", "B", "-")
	require.NoError(t, err)
	res = parser.QTI21.Parse(out)
	require.Len(t, res.Items, 2)
	assert.Equal(t, qti.Single("B"), *res.Items[1].CorrectResponse)
}

func TestConvertAndFormat(t *testing.T) {
	js, err := run(t, choice("q1"), "convert", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(js), "{"))

	xml, err := run(t, js, "convert", "--to", "xml", "-")
	require.NoError(t, err)
	res := parser.FromContent(xml).Parse(xml)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "q1", res.Items[0].ID)

	_, err = run(t, "<a/>", "convert", "--to", "yaml", "-")
	assert.Error(t, err)

	out, err := run(t, "<a><c>x</c></a>", "format", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  <c>x</c>")
}

func TestScore(t *testing.T) {
	doc := writeFile(t, "q.xml", choice("q1"))
	resp := writeFile(t, "r.json", `{"q1": "A"}`)
	out, err := run(t, "", "score", doc, "--responses", resp)
	require.NoError(t, err)
	var total scoring.TotalScore
	require.NoError(t, json.Unmarshal([]byte(out), &total))
	assert.Equal(t, 1.0, total.TotalScore)
	assert.Equal(t, 100.0, total.PercentageScore)

	bad := writeFile(t, "bad.json", `["q1"]`)
	_, err = run(t, "", "score", doc, "--responses", bad)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "out.zip")
	_, err := run(t, choice("q1"), "export", "-o", zipPath, "-")
	require.NoError(t, err)

	b, err := os.ReadFile(zipPath)
	require.NoError(t, err)
	pkg, err := parser.ReadPackage(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	require.Len(t, pkg.Items, 1)
	assert.Equal(t, "q1.xml", pkg.Items[0].Href)

	_, err = run(t, choice("q1"), "export", "-")
	assert.Error(t, err)
}
