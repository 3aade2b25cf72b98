package db

import (
	"context"
	"sync"
)

// Snapshot is one complete view of an owner's words. Err is set when the
// snapshot could not be read; Words is then empty.
type Snapshot struct {
	Words []Word
	Err   error
}

type subscriber struct {
	ch chan Snapshot
}

// Feed fans out full word snapshots per owner. A subscriber holds at most one
// undelivered snapshot: a newer one replaces it, so slow readers always see the latest.
//
// Reading a snapshot and delivering it happen under a per-owner lock, so snapshots
// reach subscribers in the order they were read.
type Feed struct {
	mu    sync.Mutex
	subs  map[string]map[*subscriber]struct{}
	reads map[string]*ownerLock
}

type ownerLock struct {
	sync.Mutex
	refs int
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		subs:  make(map[string]map[*subscriber]struct{}),
		reads: make(map[string]*ownerLock),
	}
}

// lockOwner serializes snapshot reads for ownerID. Call the returned func to release.
func (f *Feed) lockOwner(ownerID string) func() {
	f.mu.Lock()
	l := f.reads[ownerID]
	if l == nil {
		l = &ownerLock{}
		f.reads[ownerID] = l
	}
	l.refs++
	f.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		f.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(f.reads, ownerID)
		}
		f.mu.Unlock()
	}
}

func (f *Feed) add(ownerID string) *subscriber {
	s := &subscriber{ch: make(chan Snapshot, 1)}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[ownerID] == nil {
		f.subs[ownerID] = make(map[*subscriber]struct{})
	}
	f.subs[ownerID][s] = struct{}{}
	return s
}

func (f *Feed) remove(ownerID string, s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set, ok := f.subs[ownerID]; ok {
		if _, ok := set[s]; ok {
			delete(set, s)
			close(s.ch)
		}
		if len(set) == 0 {
			delete(f.subs, ownerID)
		}
	}
}

// Subscribers returns the number of live subscribers for ownerID.
func (f *Feed) Subscribers(ownerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[ownerID])
}

// Publish delivers snap to every subscriber of ownerID without blocking.
func (f *Feed) Publish(ownerID string, snap Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs[ownerID] {
		deliver(s, Snapshot{Words: CloneWords(snap.Words), Err: snap.Err})
	}
}

func deliver(s *subscriber, snap Snapshot) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	// Drop the stale pending snapshot.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

// Subscribe streams snapshots of ownerID's words, starting with the current one.
// The channel is closed once ctx is done.
func (db *Database) Subscribe(ctx context.Context, ownerID string) <-chan Snapshot {
	s := db.feed.add(ownerID)

	unlock := db.feed.lockOwner(ownerID)
	words, err := db.ListWords(ctx, ownerID)
	if db.testHookInitialRead != nil {
		db.testHookInitialRead()
	}
	db.feed.mu.Lock()
	deliver(s, Snapshot{Words: words, Err: err})
	db.feed.mu.Unlock()
	unlock()

	go func() {
		<-ctx.Done()
		db.feed.remove(ownerID, s)
	}()
	return s.ch
}

// Feed exposes the database's snapshot feed.
func (db *Database) Feed() *Feed {
	return db.feed
}

// publishWords re-reads ownerID's words and publishes them when anyone listens.
func (db *Database) publishWords(ctx context.Context, ownerID string) {
	if db.feed.Subscribers(ownerID) == 0 {
		return
	}
	unlock := db.feed.lockOwner(ownerID)
	defer unlock()
	words, err := db.ListWords(context.WithoutCancel(ctx), ownerID)
	if err != nil {
		words = []Word{}
	}
	db.feed.Publish(ownerID, Snapshot{Words: words, Err: err})
}
