package db

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("Snapshot channel closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for snapshot")
	}
	return Snapshot{}
}

// TestSubscribeInitialSnapshot tests that subscribers receive the current state first
func TestSubscribeInitialSnapshot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	db.InsertWord(context.Background(), Word{OwnerID: "u1", Headword: "猫"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap := receive(t, db.Subscribe(ctx, "u1"))
	if snap.Err != nil {
		t.Fatalf("Unexpected snapshot error: %v", snap.Err)
	}
	if len(snap.Words) != 1 || snap.Words[0].Headword != "猫" {
		t.Errorf("Unexpected initial snapshot: %+v", snap.Words)
	}
}

// TestSubscribeReceivesMutations tests that each mutation publishes a full snapshot
func TestSubscribeReceivesMutations(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := db.Subscribe(ctx, "u1")
	receive(t, ch)

	word, err := db.InsertWord(context.Background(), Word{OwnerID: "u1", Headword: "犬", Learned: true})
	if err != nil {
		t.Fatalf("Failed to insert word: %v", err)
	}
	snap := receive(t, ch)
	if len(snap.Words) != 1 {
		t.Fatalf("Expected 1 word after insert, got %d", len(snap.Words))
	}

	if err := db.SetLearned(context.Background(), "u1", word.ID, false); err != nil {
		t.Fatalf("Failed to set learned: %v", err)
	}
	snap = receive(t, ch)
	if snap.Words[0].Learned {
		t.Error("Expected snapshot to reflect learned=false")
	}
}

// TestSubscribeLatestWins tests that an unread snapshot is replaced by a newer one
func TestSubscribeLatestWins(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := db.Subscribe(ctx, "u1")
	for _, hw := range []string{"一", "二", "三"} {
		if _, err := db.InsertWord(context.Background(), Word{OwnerID: "u1", Headword: hw}); err != nil {
			t.Fatalf("Failed to insert word: %v", err)
		}
	}

	snap := receive(t, ch)
	if len(snap.Words) != 3 {
		t.Errorf("Expected only the latest snapshot with 3 words, got %d", len(snap.Words))
	}

	select {
	case extra := <-ch:
		t.Errorf("Expected no backlog, got snapshot with %d words", len(extra.Words))
	default:
	}
}

// TestSubscribeInitialSnapshotNotStale tests that a mutation racing the first read
// still leaves the subscriber holding the newest snapshot
func TestSubscribeInitialSnapshotNotStale(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	word, err := db.InsertWord(context.Background(), Word{OwnerID: "u1", Headword: "猫", Learned: true})
	if err != nil {
		t.Fatalf("Failed to insert word: %v", err)
	}

	done := make(chan error, 1)
	db.testHookInitialRead = func() {
		db.testHookInitialRead = nil
		go func() {
			done <- db.SetLearned(context.Background(), "u1", word.ID, false)
		}()
		// Give the mutation time to commit and publish before the first snapshot is delivered.
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := db.Subscribe(ctx, "u1")
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Failed to set learned: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for mutation")
	}

	snap := receive(t, ch)
	if len(snap.Words) != 1 || snap.Words[0].Learned {
		t.Errorf("Expected the latest snapshot with learned=false, got %+v", snap.Words)
	}

	db.feed.mu.Lock()
	pending := len(db.feed.reads)
	db.feed.mu.Unlock()
	if pending != 0 {
		t.Errorf("Expected read locks to be released, got %d", pending)
	}
}

// TestSubscribeOwnerIsolation tests that owners only see their own snapshots
func TestSubscribeOwnerIsolation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := db.Subscribe(ctx, "u1")
	receive(t, ch)

	db.InsertWord(context.Background(), Word{OwnerID: "u2", Headword: "他"})

	select {
	case snap := <-ch:
		t.Errorf("Unexpected snapshot for other owner: %+v", snap.Words)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestSubscribeClosesOnCancel tests that cancelling the context closes the channel
func TestSubscribeClosesOnCancel(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := db.Subscribe(ctx, "u1")
	receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Channel was not closed after cancel")
	}

	if n := db.Feed().Subscribers("u1"); n != 0 {
		t.Errorf("Expected 0 subscribers after cancel, got %d", n)
	}
}

// TestSnapshotsAreCopies tests that mutating a received snapshot does not leak
func TestSnapshotsAreCopies(t *testing.T) {
	feed := NewFeed()
	a := feed.add("u1")
	b := feed.add("u1")

	words := []Word{{ID: "1", Headword: "猫", ExampleSentences: []string{"猫です。"}}}
	feed.Publish("u1", Snapshot{Words: words})

	first := <-a.ch
	first.Words[0].ExampleSentences[0] = "changed"
	second := <-b.ch

	if second.Words[0].ExampleSentences[0] != "猫です。" {
		t.Error("Subscribers should receive independent copies")
	}
	if words[0].ExampleSentences[0] != "猫です。" {
		t.Error("Publisher slice should not be modified")
	}
}
