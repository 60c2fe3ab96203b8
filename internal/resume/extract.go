// Package resume extracts candidate resume text from uploaded PDF files.
package resume

import (
	"errors"
	"fmt"
	"strings"

	"rsc.io/pdf"
)

// ErrNoText is returned when the PDF parses but yields no extractable text,
// typically a scanned image resume.
var ErrNoText = errors.New("resume: no extractable text")

// ExtractText pulls the plain text out of a resume PDF, page by page.
func ExtractText(path string) (string, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		parts := make([]string, 0, len(content.Text))
		for _, txt := range content.Text {
			if strings.TrimSpace(txt.S) == "" {
				continue
			}
			parts = append(parts, txt.S)
		}
		if len(parts) > 0 {
			pages = append(pages, strings.Join(parts, " "))
		}
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
