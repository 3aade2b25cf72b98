package parser

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	reParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>`)
	reTab          = regexp.MustCompile(`<w:tab\s*/>`)
	reTag          = regexp.MustCompile(`<[^>]+>`)
	reBlankLines   = regexp.MustCompile(`\n{3,}`)
)

// ParseDOCX extracts text content from a DOCX file
func ParseDOCX(filePath string) (string, error) {
	if err := ValidateFileSize(filePath); err != nil {
		return "", err
	}

	doc, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer doc.Close()

	return docxText(doc.Editable().GetContent())
}

func extractDOCX(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	return docxText(doc.Editable().GetContent())
}

// docxText turns WordprocessingML into plain text, one paragraph per line.
func docxText(xml string) (string, error) {
	text := reParagraphEnd.ReplaceAllString(xml, "\n")
	text = reTab.ReplaceAllString(text, "\t")
	text = reTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = reBlankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", fmt.Errorf("no text content found in DOCX")
	}
	return text, nil
}
