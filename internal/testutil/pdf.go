package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// PDFText returns a page content stream that shows text in one run.
func PDFText(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	return fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escaped)
}

// BuildPDF assembles an uncompressed PDF with one page per content stream,
// all sharing a WinAnsi Helvetica font named F1.
func BuildPDF(contents ...string) []byte {
	n := len(contents)
	// 1 catalog, 2 page tree, 3 font, then a page and its content per page
	objects := make([]string, 3+2*n)
	kids := make([]string, n)
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)
	objects[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	for i, c := range contents {
		pageObj, contentObj := 4+2*i, 5+2*i
		objects[pageObj-1] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			contentObj)
		objects[contentObj-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c), c)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n", len(objects)+1, xref)
	buf.WriteString("%%EOF\n")
	return buf.Bytes()
}
