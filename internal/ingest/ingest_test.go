package ingest

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const invoiceText = "Variabilní symbol: 2024001234\nDatum vystavení: 12.06.2025\nDatum splatnosti: 26.06.2025\nCelkem k úhradě: 12 100,00 Kč\n"

func put(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func newInbox(outDir string, formats ...export.Format) *Inbox {
	p := pipeline.New(quiet, pipeline.Config{}, nil, nil, nil)
	return NewInbox(extract.NewTextFile(quiet), p, nil, InboxConfig{OutDir: outDir, Formats: formats}, quiet)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	put(t, root, "b.txt", "x")
	put(t, root, "a.TXT", "x")
	put(t, root, "scan.pdf", "x")
	put(t, root, ".hidden/c.txt", "x")
	put(t, root, "sub/d.text", "x")

	paths, stats, err := Discover(root, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.TXT"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "sub", "d.text"),
	}, paths)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 4, stats.Scanned)

	paths, _, err = Discover(root, ParseExts([]string{".pdf"}), false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "scan.pdf")}, paths)

	_, _, err = Discover(" ", nil, false)
	assert.Error(t, err)
}

func TestInboxWritesOutputs(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := put(t, in, "inv-1.txt", invoiceText)

	res, err := newInbox(out, export.FormatJSON, export.FormatCSV).ProcessFile(t.Context(), src, false)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", res.Method)
	assert.Empty(t, res.Missing)
	require.Len(t, res.Outputs, 2)
	assert.Equal(t, filepath.Join(out, "inv-1.json"), res.Outputs[0])
	assert.Equal(t, filepath.Join(out, "inv-1.csv"), res.Outputs[1])

	data, err := os.ReadFile(res.Outputs[0])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "2024001234", m["variable_symbol"])
	assert.Equal(t, "2025-06-26", m["due_date"])

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestInboxDeduplicates(t *testing.T) {
	in := t.TempDir()
	a := put(t, in, "a.txt", invoiceText)
	b := put(t, in, "b.txt", invoiceText)
	inbox := newInbox("")

	first, err := inbox.ProcessFile(t.Context(), a, false)
	require.NoError(t, err)
	assert.False(t, first.Deduplicated)

	second, err := inbox.ProcessFile(t.Context(), b, false)
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.HashHex, second.HashHex)
	assert.Empty(t, second.Method)

	forced, err := inbox.ProcessFile(t.Context(), b, true)
	require.NoError(t, err)
	assert.False(t, forced.Deduplicated)
	assert.Equal(t, "heuristic", forced.Method)
}

func TestInboxReadError(t *testing.T) {
	_, err := newInbox("").ProcessFile(t.Context(), filepath.Join(t.TempDir(), "gone.txt"), false)
	assert.Error(t, err)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "watcher channel closed")
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}
	return ""
}

func TestWatcherEmitsExistingAndNewFiles(t *testing.T) {
	root := t.TempDir()
	existing := put(t, root, "old.txt", "x")

	events, _, err := StartWatcher(t.Context(), WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	}, quiet)
	require.NoError(t, err)

	assert.Equal(t, existing, receive(t, events))

	put(t, root, "ignored.pdf", "x")
	created := put(t, root, "new.txt", "x")
	assert.Equal(t, created, receive(t, events))
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(t.Context(), WatchConfig{}, quiet)
	assert.Error(t, err)
}
