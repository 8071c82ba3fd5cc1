package pdf

import (
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// pdfRenderer walks a goldmark AST and draws it with fpdf. Tables are drawn
// natively with measured column widths instead of preformatted text.
type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	font      string
	size      float64
	bold      bool
	italic    bool
	inList    bool
	listLevel int
}

func (r *pdfRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		return r.handleParagraph(entering)
	case ast.KindText:
		return r.handleText(n.(*ast.Text), entering)
	case ast.KindEmphasis:
		return r.handleEmphasis(n.(*ast.Emphasis), entering)
	case ast.KindCodeSpan:
		return r.handleCodeSpan(n.(*ast.CodeSpan), entering)
	case ast.KindFencedCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.FencedCodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindCodeBlock:
		if entering {
			r.renderCodeBlock(n.(*ast.CodeBlock).Lines())
			return ast.WalkSkipChildren, nil
		}
	case ast.KindList:
		return r.handleList(entering)
	case ast.KindListItem:
		return r.handleListItem(entering)
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			pageWidth, _ := r.pdf.GetPageSize()
			r.pdf.Line(15, r.pdf.GetY(), pageWidth-15, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	case extast.KindTable:
		return r.handleTable(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(6)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleParagraph(entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.pdf.Ln(7)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleText(n *ast.Text, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Write(5, string(n.Text(r.source)))
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleEmphasis(n *ast.Emphasis, entering bool) (ast.WalkStatus, error) {
	if n.Level == 2 {
		r.bold = entering
	} else {
		r.italic = entering
	}
	r.updateFont()
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleCodeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.SetFont("Courier", "", 10)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if textNode, ok := c.(*ast.Text); ok {
				r.pdf.Write(5, string(textNode.Segment.Value(r.source)))
			}
		}
	} else {
		r.updateFont()
	}
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) renderCodeBlock(lines *text.Segments) {
	r.pdf.Ln(2)
	r.pdf.SetFont("Courier", "", 9)
	r.pdf.SetFillColor(245, 245, 245)

	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.pdf.MultiCell(0, 5, string(line.Value(r.source)), "", "L", true)
	}

	r.pdf.SetFillColor(255, 255, 255)
	r.updateFont()
	r.pdf.Ln(2)
}

func (r *pdfRenderer) handleList(entering bool) (ast.WalkStatus, error) {
	if entering {
		r.inList = true
		r.listLevel++
	} else {
		r.listLevel--
		if r.listLevel == 0 {
			r.inList = false
			r.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleListItem(entering bool) (ast.WalkStatus, error) {
	if entering {
		// New line before the bullet so items never overlap the previous write.
		r.pdf.Ln(5)
		indent := float64(r.listLevel) * 5.0
		r.pdf.SetX(15 + indent)
		r.pdf.Write(5, "- ")
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch row := child.(type) {
			case *extast.TableRow:
				rows = append(rows, r.extractRow(row))
			case *extast.TableHeader:
				rows = append(rows, r.extractHeader(row))
			}
		}
	}
	collect(n)

	r.renderTable(rows)
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) extractRow(n *extast.TableRow) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}

func (r *pdfRenderer) extractHeader(n *extast.TableHeader) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}

func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	r.pdf.Ln(2)

	pageWidth, pageHeight := r.pdf.GetPageSize()
	tableWidth := pageWidth - 30
	numCols := len(rows[0])

	fontSize := 8.0
	lineHeight := 4.0

	colWidths := r.columnWidths(rows, numCols, tableWidth, fontSize)

	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", fontSize)
		} else {
			r.pdf.SetFont(r.font, "", fontSize)
		}

		maxLines := 1
		for j, cell := range row {
			if j < numCols {
				if lines := r.linesNeeded(cell, colWidths[j]-2); lines > maxLines {
					maxLines = lines
				}
			}
		}
		if maxLines > 8 {
			maxLines = 8
		}

		rowHeight := float64(maxLines)*lineHeight + 2
		startY := r.pdf.GetY()
		startX := r.pdf.GetX()

		if startY+rowHeight > pageHeight-15 {
			r.pdf.AddPage()
			startY = r.pdf.GetY()
		}

		for j, cell := range row {
			if j >= numCols {
				break
			}
			x := startX
			for k := 0; k < j; k++ {
				x += colWidths[k]
			}

			if i == 0 {
				r.pdf.SetFillColor(230, 230, 230)
				r.pdf.Rect(x, startY, colWidths[j], rowHeight, "FD")
			} else {
				r.pdf.Rect(x, startY, colWidths[j], rowHeight, "D")
			}

			r.pdf.SetXY(x+1, startY+1)
			r.renderCell(cell, colWidths[j]-2, lineHeight, maxLines)
		}

		r.pdf.SetXY(startX, startY+rowHeight)
	}

	r.pdf.Ln(3)
	r.updateFont()
}

// columnWidths measures each column's widest cell and scales the result to the
// usable table width. No column exceeds a third of the table.
func (r *pdfRenderer) columnWidths(rows [][]string, numCols int, tableWidth, fontSize float64) []float64 {
	widths := make([]float64, numCols)

	r.pdf.SetFont(r.font, "", fontSize)
	for _, row := range rows {
		for i, cell := range row {
			if i < numCols {
				if w := r.pdf.GetStringWidth(cell) + 4; w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	// Header row renders bold, measure it that way.
	r.pdf.SetFont(r.font, "B", fontSize)
	for i, cell := range rows[0] {
		if i < numCols {
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}
	r.pdf.SetFont(r.font, "", fontSize)

	minWidth := 12.0
	maxWidth := tableWidth / 3.0
	for i := range widths {
		if widths[i] < minWidth {
			widths[i] = minWidth
		}
		if widths[i] > maxWidth {
			widths[i] = maxWidth
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}

	if total > tableWidth {
		scale := tableWidth / total
		for i := range widths {
			widths[i] *= scale
			if widths[i] < minWidth*0.8 {
				widths[i] = minWidth * 0.8
			}
		}
	} else if total < tableWidth*0.9 {
		scale := (tableWidth * 0.95) / total
		if scale > 1.5 {
			scale = 1.5
		}
		for i := range widths {
			widths[i] *= scale
		}
	}

	return widths
}

// linesNeeded counts wrapped lines for a cell at the given width using
// measured string widths.
func (r *pdfRenderer) linesNeeded(cell string, width float64) int {
	if cell == "" || width <= 0 {
		return 1
	}
	words := strings.Fields(cell)
	if len(words) == 0 {
		return 1
	}

	lines := 1
	lineWidth := 0.0
	spaceWidth := r.pdf.GetStringWidth(" ")

	for _, word := range words {
		wordWidth := r.pdf.GetStringWidth(word)
		switch {
		case lineWidth == 0:
			lineWidth = wordWidth
		case lineWidth+spaceWidth+wordWidth <= width:
			lineWidth += spaceWidth + wordWidth
		default:
			lines++
			lineWidth = wordWidth
		}
	}
	return lines
}

// renderCell word-wraps a cell's text, truncating the last visible line with
// an ellipsis when content exceeds maxLines.
func (r *pdfRenderer) renderCell(cell string, width, lineHeight float64, maxLines int) {
	words := strings.Fields(cell)
	if len(words) == 0 {
		return
	}

	var lines []string
	current := ""
	currentWidth := 0.0
	spaceWidth := r.pdf.GetStringWidth(" ")

	for _, word := range words {
		wordWidth := r.pdf.GetStringWidth(word)
		switch {
		case current == "":
			current = word
			currentWidth = wordWidth
		case currentWidth+spaceWidth+wordWidth <= width:
			current += " " + word
			currentWidth += spaceWidth + wordWidth
		default:
			lines = append(lines, current)
			current = word
			currentWidth = wordWidth
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	for i := 0; i < len(lines) && i < maxLines; i++ {
		line := lines[i]
		if i == maxLines-1 && len(lines) > maxLines {
			for r.pdf.GetStringWidth(line+"...") > width && len(line) > 3 {
				line = line[:len(line)-1]
			}
			line += "..."
		}
		r.pdf.CellFormat(width, lineHeight, line, "", 2, "L", false, 0, "")
	}
}
