// Package parser extracts plain text from uploaded study material: PDF and
// DOCX documents, plain text files and web articles.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// FileType represents the type of document file
type FileType int

const (
	TypeUnknown FileType = iota
	TypePDF
	TypeDOCX
	TypeText
)

func (t FileType) String() string {
	switch t {
	case TypePDF:
		return "pdf"
	case TypeDOCX:
		return "docx"
	case TypeText:
		return "text"
	}
	return "unknown"
}

// MaxFileSize is the maximum allowed file size (10MB)
const MaxFileSize = 10 * 1024 * 1024

// DetectFileType determines the file type based on extension
func DetectFileType(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".txt", ".md":
		return TypeText
	default:
		return TypeUnknown
	}
}

// ValidateFileSize checks if a file is within the size limit
func ValidateFileSize(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	return checkSize(info.Size())
}

func checkSize(size int64) error {
	if size > MaxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", size, MaxFileSize)
	}
	return nil
}

// ValidateFilename checks for path traversal and other malicious patterns
func ValidateFilename(filename string) error {
	if strings.Contains(filename, "..") {
		return fmt.Errorf("filename contains path traversal: ..")
	}
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return fmt.Errorf("filename cannot be an absolute path")
	}
	if strings.ContainsRune(filename, '\x00') {
		return fmt.Errorf("filename contains null byte")
	}
	if strings.ContainsAny(filename, "\r\n") {
		return fmt.Errorf("filename contains newline character")
	}
	return nil
}

// Parse reads an uploaded document named filename from r and returns its text.
// At most MaxFileSize bytes are accepted.
func Parse(r io.Reader, filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	fileType := DetectFileType(filename)
	if fileType == TypeUnknown {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fileType, err)
	}
	if err := checkSize(int64(len(content))); err != nil {
		return "", err
	}
	return parseBytes(content, fileType)
}

// ParseDocument detects the file type from the path's extension and parses the file.
func ParseDocument(filePath string) (string, error) {
	if err := ValidateFileSize(filePath); err != nil {
		return "", err
	}
	fileType := DetectFileType(filePath)
	if fileType == TypeUnknown {
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return parseBytes(content, fileType)
}

func parseBytes(content []byte, fileType FileType) (string, error) {
	switch fileType {
	case TypePDF:
		return extractPDF(bytes.NewReader(content), int64(len(content)))
	case TypeDOCX:
		return extractDOCX(bytes.NewReader(content), int64(len(content)))
	case TypeText:
		return extractText(content)
	}
	return "", fmt.Errorf("unsupported file type: %s", fileType)
}

func extractText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	text := strings.TrimSpace(strings.TrimPrefix(string(content), "\ufeff"))
	if text == "" {
		return "", fmt.Errorf("no text content found in file")
	}
	return text, nil
}
