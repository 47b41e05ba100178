package main

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func hit(shooter, name, victim string) CombatEvent {
	return CombatEvent{Type: EvtHit, EntityID: shooter, Name: name, OtherID: victim, At: time.Second}
}

func TestLeaderboardOrdering(t *testing.T) {
	db := openTestDB(t)
	events := []CombatEvent{
		hit("b", "Bravo", "a"),
		hit("a", "Alpha", "b"),
		hit("b", "Bravo", "c"),
		hit("c", "Charlie", "b"),
		{Type: EvtDeath, EntityID: "a"},
		{Type: EvtJoin, EntityID: "a", Name: "Alpha"},
	}
	if err := db.InsertEvents("run1", events); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.InsertEvents("run2", []CombatEvent{hit("z", "Zulu", "a")}); err != nil {
		t.Fatalf("insert other run: %v", err)
	}

	board, err := db.Leaderboard("run1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 shooters, got %d", len(board))
	}
	if board[0].EntityID != "b" || board[0].Hits != 2 || board[0].Rank != 1 {
		t.Errorf("unexpected leader %+v", board[0])
	}
	// ties break on entity id
	if board[1].EntityID != "a" || board[2].EntityID != "c" || board[2].Rank != 3 {
		t.Errorf("unexpected tie order %+v", board[1:])
	}

	board, err = db.Leaderboard("run1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 1 || board[0].Name != "Bravo" {
		t.Errorf("limit not applied: %+v", board)
	}
}

func TestEventCounts(t *testing.T) {
	db := openTestDB(t)
	events := []CombatEvent{
		hit("a", "Alpha", "b"),
		hit("a", "Alpha", "b"),
		{Type: EvtClash, X: 4, Y: 5},
		{Type: EvtCollision, EntityID: "a", OtherID: "b", X: 3, Y: 3},
	}
	if err := db.InsertEvents("run1", events); err != nil {
		t.Fatal(err)
	}
	counts, err := db.EventCounts("run1")
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtHit] != 2 || counts[EvtClash] != 1 || counts[EvtCollision] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if counts[EvtDeath] != 0 {
		t.Errorf("unexpected deaths %d", counts[EvtDeath])
	}
}

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	if a.RunID() == "" {
		t.Fatal("expected a run id")
	}
	for i := 0; i < 3; i++ {
		a.Record(hit("a", "Alpha", "b"))
	}
	a.Stop()

	board, err := a.Leaderboard(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 1 || board[0].Hits != 3 {
		t.Errorf("expected 3 hits flushed on stop, got %+v", board)
	}
	if a.Dropped() != 0 {
		t.Errorf("no events should be dropped, got %d", a.Dropped())
	}
}

func TestAnalyticsRecordsGameEvents(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	g, clk := newTestGame(t, testConfig())
	g.SetRecorder(a)

	place(g, "a", 10, 10, OrientUp)
	place(g, "b", 10, 5, OrientDown)
	g.Shoot("a")
	advance(g, clk, 3*step)
	advance(g, clk, time.Second)
	a.Stop()

	counts, err := a.EventCounts()
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtHit] != 1 || counts[EvtDeath] != 1 {
		t.Errorf("expected one hit and one death, got %v", counts)
	}
}

func TestAnalyticsWithoutDB(t *testing.T) {
	a := NewAnalytics(nil)
	a.Record(hit("a", "Alpha", "b"))
	a.Stop()

	board, err := a.Leaderboard(10)
	if err != nil || board != nil {
		t.Errorf("expected empty leaderboard, got %v %v", board, err)
	}
}
