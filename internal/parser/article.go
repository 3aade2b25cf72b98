package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
)

// MaxArticleSize bounds the HTML read from a web page.
const MaxArticleSize = 10 * 1024 * 1024

const userAgent = "Mozilla/5.0 (compatible; kotoba/1.0; +https://github.com/kotoba-study/kotoba)"

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// Article is the readable content of a web page.
type Article struct {
	Title string
	Text  string
	URL   string
}

// SanitizeRuby drops furigana (<rt>) and ruby parentheses (<rp>) so the
// extracted text does not repeat every reading after its kanji.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}

// FetchArticle downloads rawURL and extracts its main text.
func FetchArticle(ctx context.Context, client *http.Client, rawURL string) (Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Article{}, fmt.Errorf("invalid article URL %q", rawURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return Article{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("failed to fetch article: status %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxArticleSize {
		return Article{}, fmt.Errorf("article too large: %d bytes (max: %d bytes)", resp.ContentLength, MaxArticleSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxArticleSize+1))
	if err != nil {
		return Article{}, fmt.Errorf("failed to read article: %w", err)
	}
	if len(body) > MaxArticleSize {
		return Article{}, fmt.Errorf("article exceeds %d bytes", MaxArticleSize)
	}

	return ParseArticle(body, parsed)
}

// ParseArticle extracts the readable text from an HTML page.
func ParseArticle(body []byte, pageURL *url.URL) (Article, error) {
	article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(body)), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("failed to extract article: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Article{}, fmt.Errorf("no readable text found")
	}

	a := Article{Title: strings.TrimSpace(article.Title), Text: text}
	if pageURL != nil {
		a.URL = pageURL.String()
	}
	return a, nil
}
