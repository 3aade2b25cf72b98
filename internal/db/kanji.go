package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const kanjiColumns = `id, owner_id, character, meaning, onyomi, kunyomi, stroke_count, examples, learned, difficulty, created_at`

func scanKanji(row rowScanner) (Kanji, error) {
	var (
		k         Kanji
		examples  string
		createdAt int64
		learned   int
	)
	err := row.Scan(
		&k.ID,
		&k.OwnerID,
		&k.Character,
		&k.Meaning,
		&k.Onyomi,
		&k.Kunyomi,
		&k.StrokeCount,
		&examples,
		&learned,
		&k.Difficulty,
		&createdAt,
	)
	if err != nil {
		return Kanji{}, err
	}
	k.Examples, err = decodeStrings(examples)
	if err != nil {
		return Kanji{}, err
	}
	k.Learned = learned != 0
	k.CreatedAt = fromMillis(createdAt)
	return k, nil
}

// InsertKanji stores a new kanji entry.
func (db *Database) InsertKanji(ctx context.Context, k Kanji) (Kanji, error) {
	if k.OwnerID == "" {
		return Kanji{}, fmt.Errorf("kanji owner must be set")
	}
	if k.ID == "" {
		k.ID = newID()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}
	if k.Difficulty == "" {
		k.Difficulty = DifficultyMedium
	}
	if k.Examples == nil {
		k.Examples = []string{}
	}
	examples, err := encodeStrings(k.Examples)
	if err != nil {
		return Kanji{}, err
	}

	query := `INSERT INTO kanji (` + kanjiColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.conn.ExecContext(ctx, query,
		k.ID,
		k.OwnerID,
		k.Character,
		k.Meaning,
		k.Onyomi,
		k.Kunyomi,
		k.StrokeCount,
		examples,
		boolToInt(k.Learned),
		k.Difficulty,
		toMillis(k.CreatedAt),
	)
	if err != nil {
		return Kanji{}, fmt.Errorf("failed to insert kanji: %w", err)
	}
	k.CreatedAt = fromMillis(toMillis(k.CreatedAt))
	return k, nil
}

// GetKanji retrieves one kanji entry of ownerID.
func (db *Database) GetKanji(ctx context.Context, ownerID, id string) (*Kanji, error) {
	query := `SELECT ` + kanjiColumns + ` FROM kanji WHERE owner_id = ? AND id = ?`
	k, err := scanKanji(db.conn.QueryRowContext(ctx, query, ownerID, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("kanji with ID %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kanji: %w", err)
	}
	return &k, nil
}

// ListKanji retrieves all kanji of ownerID, newest first.
func (db *Database) ListKanji(ctx context.Context, ownerID string) ([]Kanji, error) {
	query := `SELECT ` + kanjiColumns + ` FROM kanji WHERE owner_id = ? ORDER BY created_at DESC, id`
	rows, err := db.conn.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list kanji: %w", err)
	}
	defer rows.Close()

	items := []Kanji{}
	for rows.Next() {
		k, err := scanKanji(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kanji: %w", err)
		}
		items = append(items, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}

// UpdateKanji replaces the editable fields of a kanji entry.
func (db *Database) UpdateKanji(ctx context.Context, k Kanji) error {
	examples, err := encodeStrings(k.Examples)
	if err != nil {
		return err
	}
	result, err := db.conn.ExecContext(ctx, `UPDATE kanji
		SET character = ?, meaning = ?, onyomi = ?, kunyomi = ?, stroke_count = ?, examples = ?, learned = ?, difficulty = ?
		WHERE owner_id = ? AND id = ?`,
		k.Character,
		k.Meaning,
		k.Onyomi,
		k.Kunyomi,
		k.StrokeCount,
		examples,
		boolToInt(k.Learned),
		k.Difficulty,
		k.OwnerID,
		k.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update kanji: %w", err)
	}
	return checkAffected(result, "kanji", k.ID)
}

// SetKanjiLearned updates only the learned flag of a kanji entry.
func (db *Database) SetKanjiLearned(ctx context.Context, ownerID, id string, learned bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE kanji SET learned = ? WHERE owner_id = ? AND id = ?`,
		boolToInt(learned), ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set kanji learned flag: %w", err)
	}
	return checkAffected(result, "kanji", id)
}

// DeleteKanji removes a kanji entry.
func (db *Database) DeleteKanji(ctx context.Context, ownerID, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM kanji WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete kanji: %w", err)
	}
	return checkAffected(result, "kanji", id)
}
