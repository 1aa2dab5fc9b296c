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

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
)

func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LV_STORE_BACKEND", config.BackendSQLite)
	t.Setenv("LV_SQLITE_PATH", filepath.Join(dir, "vocab.db"))
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestThenInspect(t *testing.T) {
	dir := useSQLite(t)
	a := writeFile(t, dir, "a.txt", "the cat sat")
	b := writeFile(t, dir, "b.txt", "the dog ran")

	out, err := execute(t, "", "ingest", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt: status=ok documents=1 new_words=3")
	assert.Contains(t, out, "b.txt: status=ok documents=2 new_words=2")

	out, err = execute(t, "", "stats", "-o", "json")
	require.NoError(t, err)
	var stats ingestion.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 5, stats.CountWords)
	assert.Equal(t, 5, stats.WeightWords)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, "persisted", stats.CountState)

	out, err = execute(t, "", "words", "--limit", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "WORD")

	out, err = execute(t, "", "words", "-m", "weight", "-o", "json")
	require.NoError(t, err)
	var entries []ingestion.WordEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 5)
	assert.Nil(t, entries[0].ID)
}

func TestIngestBatchFromStdin(t *testing.T) {
	dir := useSQLite(t)
	a := writeFile(t, dir, "a.txt", "alpha beta")

	out, err := execute(t, "gamma delta", "ingest", "--batch", a, "-", "-o", "json")
	require.NoError(t, err)
	var resp ingestion.IngestResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.NewWords, 4)
	// a batch counts as one document
	assert.Equal(t, 1, resp.Documents)
}

func TestIngestErrors(t *testing.T) {
	dir := useSQLite(t)

	_, err := execute(t, "", "ingest")
	assert.Error(t, err)

	_, err = execute(t, "", "ingest", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = execute(t, "", "ingest", writeFile(t, dir, "blank.txt", "   "))
	assert.Error(t, err)

	_, err = execute(t, "", "stats", "-o", "yaml")
	assert.Error(t, err)

	_, err = execute(t, "", "words", "-m", "bogus")
	assert.Error(t, err)
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, "", "keygen", "loader", "-o", "json")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "loader", got["name"])
	assert.Equal(t, apikey.HashKey(got["key"]), got["hash"])
}
