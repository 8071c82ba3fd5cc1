package interfaces

// PDFService handles PDF rendering of report markdown
type PDFService interface {
	// ConvertMarkdownToPDF converts markdown content to a PDF byte slice
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
