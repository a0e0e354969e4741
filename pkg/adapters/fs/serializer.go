package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joelazar/fancy-forms/pkg/core"
)

// Extension is the file extension of note files.
const Extension = ".md"

var fence = []byte("---")

// frontmatter is the YAML header of a note file. The body follows it verbatim.
type frontmatter struct {
	Title     string    `yaml:"title"`
	CreatedAt time.Time `yaml:"created_at"`
}

// encodeNote renders a note as Markdown with a YAML frontmatter block.
func encodeNote(n core.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(fence)
	buf.WriteByte('\n')

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(frontmatter{Title: n.Title, CreatedAt: n.CreatedAt.UTC()}); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}

	buf.Write(fence)
	buf.WriteByte('\n')
	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// decodeNote parses a note file. Files without frontmatter are accepted: the
// whole file is the body and the caller supplies title and timestamp defaults.
func decodeNote(r io.Reader) (core.Note, bool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Note{}, false, err
	}

	header, rest, ok, err := splitFrontmatter(data)
	if err != nil {
		return core.Note{}, false, err
	}
	if !ok {
		return core.Note{Body: string(data)}, false, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return core.Note{}, false, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	return core.Note{
		Title:     fm.Title,
		Body:      string(rest),
		CreatedAt: fm.CreatedAt.UTC(),
	}, true, nil
}

// splitFrontmatter separates the YAML header from the body. The opening fence
// must be the first line and the closing fence must sit on its own line.
func splitFrontmatter(data []byte) (header, body []byte, ok bool, err error) {
	var rest []byte
	switch {
	case bytes.HasPrefix(data, []byte("---\n")):
		rest = data[4:]
	case bytes.HasPrefix(data, []byte("---\r\n")):
		rest = data[5:]
	default:
		return nil, nil, false, nil
	}

	offset := 0
	for offset <= len(rest) {
		line, next, found := bytes.Cut(rest[offset:], []byte("\n"))
		if bytes.Equal(bytes.TrimRight(line, "\r"), fence) {
			return rest[:offset], next, true, nil
		}
		if !found {
			break
		}
		offset += len(line) + 1
	}
	return nil, nil, false, errUnterminated
}

var errUnterminated = errors.New("frontmatter started but no closing delimiter found")
