// Package extract turns resume documents (PDF, DOCX, plain text) into text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/logger"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var (
	ErrUnsupportedFormat = errors.New("UNSUPPORTED_FORMAT")
	ErrFileTooLarge      = errors.New("FILE_TOO_LARGE")
	ErrNoText            = errors.New("NO_TEXT_EXTRACTED")
)

const defaultMaxBytes = 20 << 20

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// Extractor reads resume files from the local filesystem.
type Extractor struct {
	maxBytes int64
	logger   logger.Logger
}

func New(cfg config.ExtractionConfig, log logger.Logger) (*Extractor, error) {
	if cfg.UnipdfLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.UnipdfLicenseKey); err != nil {
			return nil, fmt.Errorf("set unipdf license: %w", err)
		}
	}

	maxBytes := cfg.MaxResumeBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	return &Extractor{
		maxBytes: maxBytes,
		logger:   log.WithFields(map[string]interface{}{"component": "extract"}),
	}, nil
}

// File extracts the text of the document at path. The format is chosen by
// extension.
func (e *Extractor) File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > e.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return e.Bytes(filepath.Base(path), data)
}

// Bytes extracts text from an in-memory document named name.
func (e *Extractor) Bytes(name string, data []byte) (string, error) {
	if int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, name, len(data))
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		text, err = e.pdfText(data)
	case ".docx":
		text, err = docxText(data)
	case ".txt":
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (e *Extractor) pdfText(data []byte) (string, error) {
	text, err := plainPDFText(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		e.logger.Debug("plain pdf extraction failed, trying unipdf", map[string]interface{}{"error": err.Error()})
	}

	text, uniErr := unipdfText(data)
	if uniErr != nil {
		if err != nil {
			return "", fmt.Errorf("read pdf: %v; unipdf: %w", err, uniErr)
		}
		return "", uniErr
	}
	return text, nil
}

func plainPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func unipdfText(data []byte) (string, error) {
	r, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages, err := r.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil || text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}

// docxText returns the visible text of a DOCX. The docx library hands back
// document.xml, so paragraphs are turned into newlines and tags dropped.
func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return blankLines.ReplaceAllString(content, "\n\n"), nil
}
