// Package pdf renders report markdown into PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// Service implements interfaces.PDFService over goldmark and fpdf.
type Service struct {
	config *common.PDFConfig
	logger arbor.ILogger
}

var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a PDF rendering service.
func NewService(config *common.PDFConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// pageSize maps the configured page size to fpdf's format name.
func (s *Service) pageSize() string {
	if s.config != nil && s.config.PageSize == "Letter" {
		return "Letter"
	}
	return "A4"
}

// ConvertMarkdownToPDF converts report markdown to a PDF byte slice. The
// title goes into the document metadata; the visible title is expected to be
// the markdown's H1. The generated bytes are validated before being returned.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Rendering markdown to PDF")

	doc := fpdf.New("P", "mm", s.pageSize(), "")
	doc.SetTitle(title, true)
	doc.SetMargins(10, 10, 10)
	doc.SetAutoPageBreak(true, 10)
	doc.AddPage()
	doc.SetFont("Arial", "", 9)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	source := []byte(markdown)
	tree := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:    doc,
		source: source,
		font:   "Arial",
		size:   9,
	}
	if err := renderer.render(tree); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF output: %w", err)
	}

	if err := validatePDF(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("generated PDF failed validation: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF rendered")
	return buf.Bytes(), nil
}

// RenderToFile converts markdown to PDF and writes it under the configured
// output directory. Returns the written path.
func (s *Service) RenderToFile(markdown, title, filename string) (string, error) {
	data, err := s.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		return "", err
	}

	outputDir := "."
	if s.config != nil && s.config.OutputDir != "" {
		outputDir = s.config.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write PDF file: %w", err)
	}

	s.logger.Info().Str("path", path).Int("bytes", len(data)).Msg("PDF report written")
	return path, nil
}
