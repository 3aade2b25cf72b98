package core

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/kotoba-study/kotoba/internal/db"
	"github.com/kotoba-study/kotoba/internal/japanese"
	"github.com/kotoba-study/kotoba/internal/parser"
)

// ImportResult summarizes a document or article import.
type ImportResult struct {
	Source            string    `json:"source"`
	NewWords          int       `json:"newWords"`
	SkippedDuplicates int       `json:"skippedDuplicates"`
	TotalProcessed    int       `json:"totalProcessed"`
	Words             []db.Word `json:"words"`
}

// ImportDocument extracts vocabulary from an uploaded PDF, DOCX or text file.
func (s *Service) ImportDocument(ctx context.Context, ownerID string, r io.Reader, filename string) (*ImportResult, error) {
	text, err := parser.Parse(r, filename)
	if err != nil {
		return nil, &ValidationError{Field: "file", Message: err.Error()}
	}
	return s.importText(ctx, ownerID, filename, text)
}

// ImportFile extracts vocabulary from a document on the local filesystem.
func (s *Service) ImportFile(ctx context.Context, ownerID, path string) (*ImportResult, error) {
	text, err := parser.ParseDocument(path)
	if err != nil {
		return nil, &ValidationError{Field: "path", Message: err.Error()}
	}
	return s.importText(ctx, ownerID, filepath.Base(path), text)
}

// ImportURL extracts vocabulary from the readable text of a web article.
func (s *Service) ImportURL(ctx context.Context, ownerID, rawURL string) (*ImportResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ValidationError{Field: "url", Message: "must be an http or https URL"}
	}
	article, err := parser.FetchArticle(ctx, s.opts.HTTPClient, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to import article: %w", err)
	}
	source := article.URL
	if article.Title != "" {
		source = article.Title
	}
	return s.importText(ctx, ownerID, source, article.Text)
}

func (s *Service) importText(ctx context.Context, ownerID, source, text string) (*ImportResult, error) {
	vocabulary, err := s.AI.ExtractVocabulary(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to extract vocabulary: %w", err)
	}

	sentences := japanese.SplitSentences(text)
	result := &ImportResult{Source: source, Words: []db.Word{}}

	for _, headword := range vocabulary {
		exists, err := s.DB.HeadwordExists(ctx, ownerID, headword)
		if err != nil {
			return nil, err
		}
		if exists {
			result.SkippedDuplicates++
			continue
		}

		w := db.Word{
			OwnerID:          ownerID,
			Headword:         headword,
			ExampleSentences: sentencesContaining(sentences, headword, s.opts.MaxSentences),
		}
		if s.Analyzer != nil {
			w.Reading = s.Analyzer.Reading(headword)
		}
		inserted, err := s.DB.InsertWord(ctx, w)
		if err != nil {
			return nil, err
		}
		result.NewWords++
		result.Words = append(result.Words, inserted)
	}

	result.TotalProcessed = len(vocabulary)
	s.logger.Info("vocabulary imported",
		"owner_id", ownerID,
		"source", source,
		"new", result.NewWords,
		"skipped", result.SkippedDuplicates,
	)
	return result, nil
}

// sentencesContaining returns up to limit sentences mentioning headword.
func sentencesContaining(sentences []string, headword string, limit int) []string {
	out := []string{}
	for _, s := range sentences {
		if len(out) == limit {
			break
		}
		if strings.Contains(s, headword) {
			out = append(out, s)
		}
	}
	return out
}
