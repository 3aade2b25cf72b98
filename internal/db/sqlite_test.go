package db

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestInitializeDatabase tests database initialization
func TestInitializeDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	if _, err := db.InsertWord(context.Background(), Word{OwnerID: "u1", Headword: "猫"}); err != nil {
		t.Errorf("Table creation failed: %v", err)
	}
}

// TestInMemoryDatabasesAreIsolated tests that two in-memory databases do not share rows
func TestInMemoryDatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()
	first := setupTestDB(t)
	defer first.Close()
	second := setupTestDB(t)
	defer second.Close()

	if _, err := first.InsertWord(ctx, Word{OwnerID: "u1", Headword: "犬"}); err != nil {
		t.Fatalf("Failed to insert word: %v", err)
	}

	count, err := second.CountWords(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to count words: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected isolated database, got %d words", count)
	}
}

// TestInsertWord tests inserting and retrieving a word
func TestInsertWord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	created := time.Date(2025, 3, 1, 10, 30, 0, 123_000_000, time.UTC)
	word, err := db.InsertWord(ctx, Word{
		OwnerID:          "u1",
		Headword:         "猫",
		Reading:          "ねこ",
		Definition:       "cat",
		ExampleSentences: []string{"猫はかわいいです。 Cats are cute."},
		Learned:          true,
		Difficulty:       DifficultyEasy,
		CreatedAt:        created,
	})
	if err != nil {
		t.Fatalf("Failed to insert word: %v", err)
	}
	if word.ID == "" {
		t.Fatal("Expected an ID to be assigned")
	}

	got, err := db.GetWord(ctx, "u1", word.ID)
	if err != nil {
		t.Fatalf("Failed to get word: %v", err)
	}
	if got.Headword != "猫" || got.Reading != "ねこ" || got.Definition != "cat" {
		t.Errorf("Unexpected word fields: %+v", got)
	}
	if !got.Learned {
		t.Error("Expected learned flag to round-trip")
	}
	if got.Difficulty != DifficultyEasy {
		t.Errorf("Expected difficulty easy, got %s", got.Difficulty)
	}
	if len(got.ExampleSentences) != 1 {
		t.Fatalf("Expected 1 example sentence, got %d", len(got.ExampleSentences))
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, got.CreatedAt)
	}
}

// TestInsertWordDefaults tests defaults applied on insert
func TestInsertWordDefaults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	word, err := db.InsertWord(context.Background(), Word{OwnerID: "u1", Headword: "水"})
	if err != nil {
		t.Fatalf("Failed to insert word: %v", err)
	}
	if word.Difficulty != DifficultyMedium {
		t.Errorf("Expected default difficulty medium, got %s", word.Difficulty)
	}
	if word.ExampleSentences == nil {
		t.Error("Expected non-nil example sentences")
	}
	if word.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
}

// TestInsertWordRequiresOwner tests that an owner is mandatory
func TestInsertWordRequiresOwner(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.InsertWord(context.Background(), Word{Headword: "水"}); err == nil {
		t.Error("Expected error for word without owner")
	}
}

// TestListWordsOrderAndOwnership tests ordering and owner scoping
func TestListWordsOrderAndOwnership(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, hw := range []string{"一", "二", "三"} {
		if _, err := db.InsertWord(ctx, Word{OwnerID: "u1", Headword: hw, CreatedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Failed to insert word: %v", err)
		}
	}
	if _, err := db.InsertWord(ctx, Word{OwnerID: "u2", Headword: "他"}); err != nil {
		t.Fatalf("Failed to insert word: %v", err)
	}

	words, err := db.ListWords(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list words: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("Expected 3 words, got %d", len(words))
	}
	if words[0].Headword != "三" || words[2].Headword != "一" {
		t.Errorf("Expected newest first, got %s ... %s", words[0].Headword, words[2].Headword)
	}
}

// TestGetWordOtherOwner tests that words are invisible to other owners
func TestGetWordOtherOwner(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	word, _ := db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "山"})

	_, err := db.GetWord(ctx, "u2", word.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestUpdateWord tests updating editable fields
func TestUpdateWord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	word, _ := db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "川"})
	word.Definition = "river"
	word.ExampleSentences = []string{"川で泳ぐ。 I swim in the river."}
	word.Difficulty = DifficultyHard

	if err := db.UpdateWord(ctx, word); err != nil {
		t.Fatalf("Failed to update word: %v", err)
	}

	got, _ := db.GetWord(ctx, "u1", word.ID)
	if got.Definition != "river" || got.Difficulty != DifficultyHard || len(got.ExampleSentences) != 1 {
		t.Errorf("Update not persisted: %+v", got)
	}

	missing := Word{ID: "nope", OwnerID: "u1"}
	if err := db.UpdateWord(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing word, got %v", err)
	}
}

// TestSetLearned tests the single-field learned update
func TestSetLearned(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	word, _ := db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "空", Learned: true})

	if err := db.SetLearned(ctx, "u1", word.ID, false); err != nil {
		t.Fatalf("Failed to set learned: %v", err)
	}
	got, _ := db.GetWord(ctx, "u1", word.ID)
	if got.Learned {
		t.Error("Expected learned to be false")
	}

	if err := db.SetLearned(ctx, "u2", word.ID, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for other owner, got %v", err)
	}
}

// TestDeleteWord tests deleting a word
func TestDeleteWord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	word, _ := db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "木"})

	if err := db.DeleteWord(ctx, "u1", word.ID); err != nil {
		t.Fatalf("Failed to delete word: %v", err)
	}
	if _, err := db.GetWord(ctx, "u1", word.ID); !errors.Is(err, ErrNotFound) {
		t.Error("Word should have been deleted")
	}
	if err := db.DeleteWord(ctx, "u1", word.ID); !errors.Is(err, ErrNotFound) {
		t.Error("Deleting twice should report not found")
	}
}

// TestHeadwordExists tests duplicate detection per owner
func TestHeadwordExists(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "花"})

	exists, err := db.HeadwordExists(ctx, "u1", "花")
	if err != nil {
		t.Fatalf("Failed to check headword: %v", err)
	}
	if !exists {
		t.Error("Expected headword to exist")
	}

	exists, _ = db.HeadwordExists(ctx, "u2", "花")
	if exists {
		t.Error("Headword should not exist for another owner")
	}
}

// TestExportWords tests exporting words to JSON
func TestExportWords(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "雨"})
	db.InsertWord(ctx, Word{OwnerID: "u1", Headword: "雪"})

	exportPath := filepath.Join(t.TempDir(), "export.json")
	if err := db.ExportWords(ctx, "u1", exportPath); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}

	var words []Word
	if err := json.Unmarshal(data, &words); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}
	if len(words) != 2 {
		t.Errorf("Expected 2 exported words, got %d", len(words))
	}

	info, _ := os.Stat(exportPath)
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

// TestKanjiLifecycle tests kanji CRUD
func TestKanjiLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	k, err := db.InsertKanji(ctx, Kanji{
		OwnerID:     "u1",
		Character:   "日",
		Meaning:     "sun, day",
		Onyomi:      "ニチ, ジツ",
		Kunyomi:     "ひ, か",
		StrokeCount: 4,
		Examples:    []string{"日本"},
	})
	if err != nil {
		t.Fatalf("Failed to insert kanji: %v", err)
	}

	items, err := db.ListKanji(ctx, "u1")
	if err != nil {
		t.Fatalf("Failed to list kanji: %v", err)
	}
	if len(items) != 1 || items[0].StrokeCount != 4 || items[0].Examples[0] != "日本" {
		t.Fatalf("Unexpected kanji list: %+v", items)
	}

	k.Meaning = "sun"
	if err := db.UpdateKanji(ctx, k); err != nil {
		t.Fatalf("Failed to update kanji: %v", err)
	}
	if err := db.SetKanjiLearned(ctx, "u1", k.ID, true); err != nil {
		t.Fatalf("Failed to set kanji learned: %v", err)
	}

	got, err := db.GetKanji(ctx, "u1", k.ID)
	if err != nil {
		t.Fatalf("Failed to get kanji: %v", err)
	}
	if got.Meaning != "sun" || !got.Learned {
		t.Errorf("Unexpected kanji after update: %+v", got)
	}

	if err := db.DeleteKanji(ctx, "u1", k.ID); err != nil {
		t.Fatalf("Failed to delete kanji: %v", err)
	}
	if _, err := db.GetKanji(ctx, "u1", k.ID); !errors.Is(err, ErrNotFound) {
		t.Error("Kanji should have been deleted")
	}
}

// TestUsersAndSettings tests accounts and settings persistence
func TestUsersAndSettings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	u, err := db.CreateUser(ctx, User{Name: "Aki", Email: " Aki@Example.com ", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if u.Email != "aki@example.com" {
		t.Errorf("Expected normalized email, got %q", u.Email)
	}

	if _, err := db.CreateUser(ctx, User{Name: "Other", Email: "aki@example.com", PasswordHash: "x"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}

	byEmail, err := db.GetUserByEmail(ctx, "AKI@example.com")
	if err != nil {
		t.Fatalf("Failed to get user by email: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Error("Expected same user by email")
	}

	settings, err := db.GetSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("Failed to get settings: %v", err)
	}
	if settings != DefaultSettings {
		t.Errorf("Expected default settings, got %+v", settings)
	}

	want := Settings{DailyGoal: 10, Timezone: "Asia/Tokyo"}
	if err := db.SaveSettings(ctx, u.ID, want); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}
	got, _ := db.GetSettings(ctx, u.ID)
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *Database {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
