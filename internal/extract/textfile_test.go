package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

func write(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestTextFileReadsUTF8(t *testing.T) {
	p := write(t, "inv.txt", append([]byte{0xEF, 0xBB, 0xBF}, "Faktura č. 1\nK úhradě: 1 210,00 Kč\n"...))

	res, err := NewTextFile(nil).Extract(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, "Faktura č. 1\nK úhradě: 1 210,00 Kč\n", res.Text)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "TEXT", res.SourceType)
}

func TestTextFileDropsInvalidBytes(t *testing.T) {
	p := write(t, "inv.txt", []byte("Celkem\xff 100\n"))

	res, err := NewTextFile(nil).Extract(t.Context(), p)
	require.NoError(t, err)
	assert.Equal(t, "Celkem 100\n", res.Text)
	assert.Len(t, res.Warnings, 1)
}

func TestTextFileRejectsOtherExtensions(t *testing.T) {
	p := write(t, "inv.pdf", []byte("%PDF-1.4"))

	_, err := NewTextFile(nil).Extract(t.Context(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestTextFileMissing(t *testing.T) {
	_, err := NewTextFile(nil).Extract(t.Context(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
