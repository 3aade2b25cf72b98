package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildDOCX assembles a minimal DOCX archive around body
func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
	return buf.Bytes()
}

// TestParseDOCX tests extracting paragraphs from a DOCX upload
func TestParseDOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>猫はかわいいです。</w:t></w:r></w:p><w:p><w:r><w:t>犬 &amp; 鳥</w:t></w:r></w:p>`
	text, err := Parse(bytes.NewReader(buildDOCX(t, body)), "lesson.docx")
	if err != nil {
		t.Fatalf("Failed to parse DOCX: %v", err)
	}
	if text != "猫はかわいいです。\n犬 & 鳥" {
		t.Errorf("Unexpected text: %q", text)
	}
}

// TestDocxText tests WordprocessingML flattening
func TestDocxText(t *testing.T) {
	text, err := docxText(`<w:p><w:r><w:t>一</w:t><w:tab/><w:t>二</w:t></w:r><w:br/><w:r><w:t>三</w:t></w:r></w:p>`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "一\t二\n三" {
		t.Errorf("Unexpected text: %q", text)
	}

	if _, err := docxText(`<w:p></w:p>`); err == nil {
		t.Error("Expected error for empty document")
	}
}

// TestParseInvalidFile tests handling corrupted files
func TestParseInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	corruptedPath := filepath.Join(tmpDir, "corrupted.pdf")

	if err := os.WriteFile(corruptedPath, []byte("This is not a valid PDF file"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := ParsePDF(corruptedPath); err == nil {
		t.Error("Expected error when parsing corrupted PDF, got nil")
	}
	if _, err := Parse(strings.NewReader("not a zip"), "corrupted.docx"); err == nil {
		t.Error("Expected error when parsing corrupted DOCX, got nil")
	}
}

// TestParseNonexistentFile tests handling missing files
func TestParseNonexistentFile(t *testing.T) {
	if _, err := ParsePDF("/nonexistent/file.pdf"); err == nil {
		t.Error("Expected error when parsing nonexistent file, got nil")
	}
	if _, err := ParseDOCX("/nonexistent/file.docx"); err == nil {
		t.Error("Expected error when parsing nonexistent file, got nil")
	}
}

// TestParseOversizedFile tests rejecting files over the size limit
func TestParseOversizedFile(t *testing.T) {
	oversized := make([]byte, MaxFileSize+1)

	tmpDir := t.TempDir()
	oversizedPath := filepath.Join(tmpDir, "oversize.pdf")
	if err := os.WriteFile(oversizedPath, oversized, 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := ParsePDF(oversizedPath)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Error should mention file size, got: %v", err)
	}

	_, err = Parse(bytes.NewReader(oversized), "oversize.txt")
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Upload error should mention file size, got: %v", err)
	}
}

// TestParseText tests plain text uploads
func TestParseText(t *testing.T) {
	text, err := Parse(strings.NewReader("\ufeff  猫がいる。\n"), "notes.txt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text != "猫がいる。" {
		t.Errorf("Unexpected text: %q", text)
	}

	if _, err := Parse(strings.NewReader("   "), "empty.md"); err == nil {
		t.Error("Expected error for empty text")
	}
	if _, err := Parse(bytes.NewReader([]byte{0xff, 0xfe, 0x00}), "binary.txt"); err == nil {
		t.Error("Expected error for invalid UTF-8")
	}
}

// TestDetectFileType tests file type detection
func TestDetectFileType(t *testing.T) {
	tests := []struct {
		filename string
		expected FileType
	}{
		{"document.pdf", TypePDF},
		{"notes.PDF", TypePDF},
		{"lesson.docx", TypeDOCX},
		{"file.DOCX", TypeDOCX},
		{"notes.txt", TypeText},
		{"notes.md", TypeText},
		{"image.png", TypeUnknown},
		{"no_extension", TypeUnknown},
		{"doc.pdf.bak", TypeUnknown},
	}

	for _, tc := range tests {
		if result := DetectFileType(tc.filename); result != tc.expected {
			t.Errorf("DetectFileType(%s) = %v, expected %v", tc.filename, result, tc.expected)
		}
	}
}

// TestValidateFileSize tests file size validation
func TestValidateFileSize(t *testing.T) {
	tmpDir := t.TempDir()

	smallPath := filepath.Join(tmpDir, "small.txt")
	if err := os.WriteFile(smallPath, []byte("small content"), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := ValidateFileSize(smallPath); err != nil {
		t.Errorf("Small file should pass validation: %v", err)
	}

	largePath := filepath.Join(tmpDir, "large.txt")
	if err := os.WriteFile(largePath, make([]byte, MaxFileSize+1), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := ValidateFileSize(largePath); err == nil {
		t.Error("Large file should fail validation")
	}

	if err := ValidateFileSize("/nonexistent/file.txt"); err == nil {
		t.Error("Nonexistent file should fail validation")
	}
}

// TestValidateFilename tests path traversal prevention
func TestValidateFilename(t *testing.T) {
	tests := []struct {
		input    string
		safe     bool
		contains string
	}{
		{"normal.pdf", true, ""},
		{"my-document.docx", true, ""},
		{"日本語ノート.txt", true, ""},
		{"../../etc/passwd", false, ".."},
		{"/etc/passwd", false, "absolute"},
		{"file\x00.pdf", false, "null"},
		{"file\n.pdf", false, "newline"},
		{".hidden.pdf", true, ""},
		{"file with spaces.pdf", true, ""},
	}

	for _, tc := range tests {
		err := ValidateFilename(tc.input)
		if tc.safe && err != nil {
			t.Errorf("ValidateFilename(%q) should be safe but got error: %v", tc.input, err)
		}
		if !tc.safe && err == nil {
			t.Errorf("ValidateFilename(%q) should be unsafe but got no error", tc.input)
		}
		if !tc.safe && err != nil && !strings.Contains(strings.ToLower(err.Error()), tc.contains) {
			t.Errorf("ValidateFilename(%q) error should mention %q, got: %v", tc.input, tc.contains, err)
		}
	}
}

// TestParseDocument tests the path based entry point
func TestParseDocument(t *testing.T) {
	tests := []struct {
		filename    string
		content     string
		expectError bool
	}{
		{"test.pdf", "test content", true},
		{"test.docx", "test content", true},
		{"test.txt", "猫がいる。", false},
		{"test.png", "test content", true},
	}

	for _, tc := range tests {
		filePath := filepath.Join(t.TempDir(), tc.filename)
		if err := os.WriteFile(filePath, []byte(tc.content), 0600); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		_, err := ParseDocument(filePath)
		if (err != nil) != tc.expectError {
			t.Errorf("ParseDocument(%s): expected error=%v, got %v", tc.filename, tc.expectError, err)
		}
	}
}

const articleHTML = `<!DOCTYPE html><html><head><title>猫の話</title></head><body>
<nav>ホーム | ニュース</nav>
<article><h1>猫の話</h1>
<p><ruby>猫<rp>(</rp><rt>ねこ</rt><rp>)</rp></ruby>はとてもかわいい動物です。多くの家庭で<ruby>猫<rt>ねこ</rt></ruby>が飼われています。猫は静かで、きれい好きで、一人の時間を大切にします。</p>
<p>日本では昔から猫が人々に愛されてきました。招き猫という置物もあり、商売繁盛のお守りとして店先に飾られています。</p>
<p>猫と暮らすと毎日が楽しくなります。朝は猫に起こされ、夜は猫と一緒に眠ります。</p>
</article></body></html>`

// TestSanitizeRuby tests furigana removal
func TestSanitizeRuby(t *testing.T) {
	got := string(SanitizeRuby([]byte(`<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>`)))
	if got != "<ruby>漢字</ruby>" {
		t.Errorf("Unexpected sanitized HTML: %s", got)
	}
}

// TestFetchArticle tests downloading and extracting an article
func TestFetchArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	article, err := FetchArticle(context.Background(), srv.Client(), srv.URL+"/news")
	if err != nil {
		t.Fatalf("Failed to fetch article: %v", err)
	}
	if !strings.Contains(article.Text, "猫はとてもかわいい動物です") {
		t.Errorf("Article text missing body: %q", article.Text)
	}
	if strings.Contains(article.Text, "ねこ") {
		t.Errorf("Furigana should be stripped: %q", article.Text)
	}

	if _, err := FetchArticle(context.Background(), srv.Client(), srv.URL+"/missing"); err == nil {
		t.Error("Expected error for 404")
	}
}

// TestFetchArticleRejectsBadURL tests URL validation
func TestFetchArticleRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com/a", "not a url", "http://"} {
		if _, err := FetchArticle(context.Background(), nil, raw); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

// TestParseArticleEmpty tests pages without readable text
func TestParseArticleEmpty(t *testing.T) {
	u, _ := url.Parse("https://example.com/")
	if _, err := ParseArticle([]byte("<html><body></body></html>"), u); err == nil {
		t.Error("Expected error for empty page")
	}
}
