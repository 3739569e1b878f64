package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(t *testing.T, maxBytes int64) *Extractor {
	t.Helper()
	e, err := New(config.ExtractionConfig{MaxResumeBytes: maxBytes}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return e
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestBytes_PlainText(t *testing.T) {
	e := newExtractor(t, 0)
	text, err := e.Bytes("resume.TXT", []byte("  Senior Go engineer, 6 years of experience.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Senior Go engineer, 6 years of experience.", text)
}

func TestBytes_Docx(t *testing.T) {
	e := newExtractor(t, 0)
	data := buildDocx(t,
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Go &amp; PostgreSQL</w:t></w:r></w:p>`)

	text, err := e.Bytes("resume.docx", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Go & PostgreSQL")
	assert.NotContains(t, text, "<w:")
}

func TestBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		data    []byte
		maxSize int64
		wantErr error
	}{
		{name: "unsupported", file: "resume.rtf", data: []byte("x"), wantErr: ErrUnsupportedFormat},
		{name: "too large", file: "resume.txt", data: bytes.Repeat([]byte("a"), 20), maxSize: 10, wantErr: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(t, tt.maxSize)
			_, err := e.Bytes(tt.file, tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBytes_CorruptPDF(t *testing.T) {
	e := newExtractor(t, 0)
	_, err := e.Bytes("resume.pdf", []byte("not a pdf at all"))
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Python, Django, REST APIs"), 0o600))

	e := newExtractor(t, 0)
	text, err := e.File(path)
	require.NoError(t, err)
	assert.Equal(t, "Python, Django, REST APIs", text)

	_, err = e.File(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
