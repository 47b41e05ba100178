package main

import (
	"container/heap"
	"time"
)

// TaskKind identifies what a scheduled task does when it fires
type TaskKind int

const (
	TaskTick TaskKind = iota
	TaskProjectileStep
	TaskBotDecision
	TaskExplosionFrame
	TaskBotRespawn
)

// TaskKey names the single pending task of a kind for an entity or
// projectile. Scheduling a key that is already pending replaces it.
type TaskKey struct {
	Kind       TaskKind
	Entity     string
	Projectile uint32
}

// Task is one entry of the schedule
type Task struct {
	Key   TaskKey
	At    time.Duration
	Frame int // explosion frame index for TaskExplosionFrame

	seq   uint64
	index int
}

// taskHeap orders tasks by fire time, then insertion order
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].At != h[j].At {
		return h[i].At < h[j].At
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Schedule is the single time-indexed queue of every timed simulation task.
// It is not safe for concurrent use; Game guards it with its mutex.
type Schedule struct {
	heap    taskHeap
	pending map[TaskKey]*Task
	seq     uint64
}

// NewSchedule creates an empty Schedule
func NewSchedule() *Schedule {
	return &Schedule{pending: make(map[TaskKey]*Task)}
}

// Add schedules key to fire at `at`, replacing any pending task with the
// same key
func (s *Schedule) Add(key TaskKey, at time.Duration, frame int) *Task {
	s.Cancel(key)
	s.seq++
	t := &Task{Key: key, At: at, Frame: frame, seq: s.seq}
	heap.Push(&s.heap, t)
	s.pending[key] = t
	return t
}

// Cancel removes the pending task for key. It reports whether one existed.
func (s *Schedule) Cancel(key TaskKey) bool {
	t, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	if t.index >= 0 {
		heap.Remove(&s.heap, t.index)
	}
	return true
}

// CancelEntity drops every entity-scoped task of id
func (s *Schedule) CancelEntity(id string) {
	for _, kind := range []TaskKind{TaskBotDecision, TaskExplosionFrame, TaskBotRespawn} {
		s.Cancel(TaskKey{Kind: kind, Entity: id})
	}
}

// Pending reports whether key has a task waiting
func (s *Schedule) Pending(key TaskKey) bool {
	_, ok := s.pending[key]
	return ok
}

// Next returns the fire time of the earliest task
func (s *Schedule) Next() (time.Duration, bool) {
	if len(s.heap) == 0 {
		return 0, false
	}
	return s.heap[0].At, true
}

// PopDue removes and returns the earliest task if it is due at now
func (s *Schedule) PopDue(now time.Duration) (*Task, bool) {
	if len(s.heap) == 0 || s.heap[0].At > now {
		return nil, false
	}
	t := heap.Pop(&s.heap).(*Task)
	delete(s.pending, t.Key)
	return t, true
}

// Len returns the number of pending tasks
func (s *Schedule) Len() int {
	return len(s.heap)
}
