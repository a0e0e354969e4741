package fs

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelazar/fancy-forms/pkg/core"
)

func TestNoteRoundTrip(t *testing.T) {
	n := core.Note{
		Title:     "Plan: ship it",
		Body:      "---\nnot a fence inside the body?\n",
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}

	data, err := encodeNote(n)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("---\ntitle: ")))

	got, hadHeader, err := decodeNote(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, hadHeader)
	assert.Equal(t, n.Title, got.Title)
	assert.Equal(t, n.Body, got.Body)
	assert.True(t, n.CreatedAt.Equal(got.CreatedAt))
}

func TestDecodeNote(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantBody  string
		header    bool
		wantErr   bool
	}{
		{"plain markdown", "# hello\n", "", "# hello\n", false, false},
		{"crlf fences", "---\r\ntitle: win\r\n---\r\nbody", "win", "body", true, false},
		{"closing fence at eof", "---\ntitle: x\n---", "x", "", true, false},
		{"unterminated", "---\ntitle: x\n", "", "", false, true},
		{"bad yaml", "---\ntitle: [\n---\n", "", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, header, err := decodeNote(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.header, header)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantBody, got.Body)
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := dir + "/note.md"

	require.NoError(t, writeFileAtomic(target, []byte("one"), 0644))
	require.NoError(t, writeFileAtomic(target, []byte("two"), 0644))

	entries, err := readDirNames(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"note.md"}, entries, "no temp files left behind")
	assert.True(t, isTempFile(TempFilePrefix+"123"))
	assert.False(t, isTempFile("note.md"))
}
