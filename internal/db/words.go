package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const wordColumns = `id, owner_id, headword, reading, definition, example_sentences, learned, difficulty, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWord(row rowScanner) (Word, error) {
	var (
		w         Word
		sentences string
		createdAt int64
		learned   int
	)
	err := row.Scan(
		&w.ID,
		&w.OwnerID,
		&w.Headword,
		&w.Reading,
		&w.Definition,
		&sentences,
		&learned,
		&w.Difficulty,
		&createdAt,
	)
	if err != nil {
		return Word{}, err
	}
	w.ExampleSentences, err = decodeStrings(sentences)
	if err != nil {
		return Word{}, err
	}
	w.Learned = learned != 0
	w.CreatedAt = fromMillis(createdAt)
	return w, nil
}

// InsertWord stores a new word for its owner. ID and CreatedAt are assigned when empty.
// The stored word is returned and a fresh snapshot is published to subscribers.
func (db *Database) InsertWord(ctx context.Context, w Word) (Word, error) {
	if w.OwnerID == "" {
		return Word{}, fmt.Errorf("word owner must be set")
	}
	if w.ID == "" {
		w.ID = newID()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	if w.Difficulty == "" {
		w.Difficulty = DifficultyMedium
	}
	if w.ExampleSentences == nil {
		w.ExampleSentences = []string{}
	}
	sentences, err := encodeStrings(w.ExampleSentences)
	if err != nil {
		return Word{}, err
	}

	query := `INSERT INTO words (` + wordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.conn.ExecContext(ctx, query,
		w.ID,
		w.OwnerID,
		w.Headword,
		w.Reading,
		w.Definition,
		sentences,
		boolToInt(w.Learned),
		w.Difficulty,
		toMillis(w.CreatedAt),
	)
	if err != nil {
		return Word{}, fmt.Errorf("failed to insert word: %w", err)
	}

	w.CreatedAt = fromMillis(toMillis(w.CreatedAt))
	db.publishWords(ctx, w.OwnerID)
	return w, nil
}

// GetWord retrieves a single word owned by ownerID.
func (db *Database) GetWord(ctx context.Context, ownerID, id string) (*Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE owner_id = ? AND id = ?`
	w, err := scanWord(db.conn.QueryRowContext(ctx, query, ownerID, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("word with ID %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word: %w", err)
	}
	return &w, nil
}

// ListWords retrieves every word of ownerID ordered by creation date (newest first).
func (db *Database) ListWords(ctx context.Context, ownerID string) ([]Word, error) {
	query := `SELECT ` + wordColumns + ` FROM words WHERE owner_id = ? ORDER BY created_at DESC, id`

	rows, err := db.conn.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	words := []Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return words, nil
}

// UpdateWord replaces the editable fields of a word. CreatedAt and owner never change.
func (db *Database) UpdateWord(ctx context.Context, w Word) error {
	sentences, err := encodeStrings(w.ExampleSentences)
	if err != nil {
		return err
	}
	query := `UPDATE words
		SET headword = ?, reading = ?, definition = ?, example_sentences = ?, learned = ?, difficulty = ?
		WHERE owner_id = ? AND id = ?`
	result, err := db.conn.ExecContext(ctx, query,
		w.Headword,
		w.Reading,
		w.Definition,
		sentences,
		boolToInt(w.Learned),
		w.Difficulty,
		w.OwnerID,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	if err := checkAffected(result, "word", w.ID); err != nil {
		return err
	}

	db.publishWords(ctx, w.OwnerID)
	return nil
}

// SetLearned updates only the learned flag of a word.
func (db *Database) SetLearned(ctx context.Context, ownerID, id string, learned bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE words SET learned = ? WHERE owner_id = ? AND id = ?`,
		boolToInt(learned), ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set learned flag: %w", err)
	}
	if err := checkAffected(result, "word", id); err != nil {
		return err
	}

	db.publishWords(ctx, ownerID)
	return nil
}

// DeleteWord removes a word by ID
func (db *Database) DeleteWord(ctx context.Context, ownerID, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM words WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	if err := checkAffected(result, "word", id); err != nil {
		return err
	}

	db.publishWords(ctx, ownerID)
	return nil
}

// HeadwordExists checks whether ownerID already has a word with the given headword.
func (db *Database) HeadwordExists(ctx context.Context, ownerID, headword string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM words WHERE owner_id = ? AND headword = ?`,
		ownerID, headword,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if headword exists: %w", err)
	}
	return count > 0, nil
}

// CountWords returns the number of words owned by ownerID.
func (db *Database) CountWords(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM words WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// ExportWords writes every word of ownerID to a JSON file
func (db *Database) ExportWords(ctx context.Context, ownerID, filePath string) error {
	words, err := db.ListWords(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list words for export: %w", err)
	}

	// Create file with secure permissions (0600 - owner read/write only)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(words); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
