package main

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
)

// Combat event types
const (
	EvtJoin      = "join"
	EvtLeave     = "leave"
	EvtHit       = "hit"
	EvtCollision = "collision"
	EvtDeath     = "death"
	EvtClash     = "clash"
	EvtRestart   = "restart"
)

// CombatEvent is one entry of the combat log. At is game time.
type CombatEvent struct {
	Type     string
	EntityID string
	OtherID  string
	Name     string
	X, Y     int
	At       time.Duration
}

// Recorder receives combat events from inside the simulation. Record is
// called with the world lock held and must not block.
type Recorder interface {
	Record(evt CombatEvent)
}

type nopRecorder struct{}

func (nopRecorder) Record(CombatEvent) {}

const (
	analyticsQueueSize = 1024
	analyticsBatchSize = 50
	analyticsFlushRate = 5 * time.Second
)

// Analytics persists combat events with batched background writes. Each
// process run gets its own run id so leaderboards cover the current run.
type Analytics struct {
	db     *DB
	runID  string
	events chan CombatEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		runID:  ksuid.New().String(),
		events: make(chan CombatEvent, analyticsQueueSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	log.WithField("run", a.runID).Info("combat log started")
	return a
}

// RunID identifies the events written by this process
func (a *Analytics) RunID() string {
	return a.runID
}

// Record enqueues an event for async persistence (non-blocking)
func (a *Analytics) Record(evt CombatEvent) {
	select {
	case a.events <- evt:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// Dropped returns how many events were lost to a full queue
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop drains the queue and shuts down the writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]CombatEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlushRate)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
		drain:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

func (a *Analytics) flush(events []CombatEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	if err := a.db.InsertEvents(a.runID, events); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"events": len(events)}).Error("combat log flush")
	}
}

// Leaderboard returns the top shooters of the current run
func (a *Analytics) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.Leaderboard(a.runID, limit)
}

// EventCounts returns how many events of each type the current run logged
func (a *Analytics) EventCounts() (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.EventCounts(a.runID)
}
