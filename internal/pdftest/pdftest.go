// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds minimal, well-formed PDF documents for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// Build assembles a one-page PDF with correct xref offsets. A document
// information dictionary is written when title or author is non-empty.
func Build(title, author string) []byte {
	if title == "" && author == "" {
		return BuildWithInfo("")
	}
	return BuildWithInfo(fmt.Sprintf("/Title (%s) /Author (%s)", escape(title), escape(author)))
}

// BuildWithInfo is Build with the information dictionary entries written
// verbatim, so tests can include malformed values. An empty info omits the
// dictionary.
func BuildWithInfo(info string) []byte {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(body) Tj\nET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	withInfo := info != ""
	if withInfo {
		objects = append(objects, "<< "+info+" >>")
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R", len(objects)+1)
	if withInfo {
		fmt.Fprintf(&b, " /Info %d 0 R", len(objects))
	}
	fmt.Fprintf(&b, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
