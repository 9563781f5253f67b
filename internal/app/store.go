package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/lanes/internal/domain"
)

// ColumnsUpdate computes the next column list from the last committed one.
// The argument is a private copy and may be modified in place.
type ColumnsUpdate func(prev []domain.Column) []domain.Column

// TasksUpdate computes the next task list from the last committed one.
// The argument is a private copy and may be modified in place.
type TasksUpdate func(prev []domain.Task) []domain.Task

// ReplaceColumns returns an update that ignores the previous list.
func ReplaceColumns(next []domain.Column) ColumnsUpdate {
	return func([]domain.Column) []domain.Column {
		return slices.Clone(next)
	}
}

// ReplaceTasks returns an update that ignores the previous list.
func ReplaceTasks(next []domain.Task) TasksUpdate {
	return func([]domain.Task) []domain.Task {
		return slices.Clone(next)
	}
}

// StoreOptions holds configuration for NewStore.
type StoreOptions struct {
	// Key is the blob key; DefaultSnapshotKey when blank.
	Key    string
	Logger *log.Logger
}

// Store owns the board's columns and tasks and writes the full snapshot after every change.
//
// Updates run against the last committed value, so several updates issued while handling one
// event compose instead of overwriting each other. Update functions must not call back into
// the store; observers may read it but must not update it.
type Store struct {
	// writeMu serializes update+commit so snapshots reach the blob store in the order they
	// were taken. mu guards the in-memory lists only.
	writeMu   sync.Mutex
	mu        sync.Mutex
	blobs     BlobStore
	key       string
	logger    *log.Logger
	columns   []domain.Column
	tasks     []domain.Task
	observers []func(Snapshot)
}

// NewStore loads the board from blobs. A missing or corrupt snapshot yields an empty board;
// only a failing blob store is an error.
func NewStore(ctx context.Context, blobs BlobStore, opts StoreOptions) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultSnapshotKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Store{
		blobs:   blobs,
		key:     key,
		logger:  logger,
		columns: []domain.Column{},
		tasks:   []domain.Task{},
	}

	raw, ok, err := blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load board snapshot %q: %w", key, err)
	}
	if !ok {
		logger.Info("no stored board, starting empty", "key", key)
		return s, nil
	}
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		logger.Warn("stored board unreadable, starting empty", "key", key, "err", err)
		return s, nil
	}
	snap, report := snap.Normalize()
	if report.Dropped() > 0 {
		logger.Warn("dropped invalid board entries", "key", key, "blank_ids", report.BlankIDs, "duplicate_ids", report.DuplicateIDs, "orphan_tasks", report.OrphanTasks)
	}
	s.columns = snap.Columns
	s.tasks = snap.Tasks
	logger.Info("board loaded", "key", key, "columns", len(s.columns), "tasks", len(s.tasks))
	return s, nil
}

// Key returns the blob key the store writes to.
func (s *Store) Key() string {
	return s.key
}

// Columns returns a copy of the columns in display order.
func (s *Store) Columns() []domain.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.columns)
}

// Tasks returns a copy of the tasks in display order.
func (s *Store) Tasks() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Snapshot returns a copy of the full board.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Columns: s.columns, Tasks: s.tasks}.clone()
}

// SetColumns applies one column update and persists.
func (s *Store) SetColumns(ctx context.Context, update ColumnsUpdate) error {
	return s.Update(ctx, update, nil)
}

// SetTasks applies one task update and persists.
func (s *Store) SetTasks(ctx context.Context, update TasksUpdate) error {
	return s.Update(ctx, nil, update)
}

// Update applies a column update and a task update as one transition with a single write.
// Either update may be nil.
func (s *Store) Update(ctx context.Context, columns ColumnsUpdate, tasks TasksUpdate) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if columns != nil {
		s.columns = nonNil(columns(slices.Clone(s.columns)))
	}
	if tasks != nil {
		s.tasks = nonNil(tasks(slices.Clone(s.tasks)))
	}
	snap := Snapshot{Columns: s.columns, Tasks: s.tasks}.clone()
	s.mu.Unlock()

	return s.commit(ctx, snap)
}

// Replace swaps the whole board for snap after normalizing it.
func (s *Store) Replace(ctx context.Context, snap Snapshot) (NormalizeReport, error) {
	normalized, report := snap.Normalize()
	err := s.Update(ctx, ReplaceColumns(normalized.Columns), ReplaceTasks(normalized.Tasks))
	return report, err
}

// Subscribe registers fn to run after every committed change.
func (s *Store) Subscribe(fn func(Snapshot)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// commit writes snap and notifies observers. In-memory state is kept even when the write fails.
func (s *Store) commit(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	var persistErr error
	encoded, err := EncodeSnapshot(snap)
	if err == nil {
		err = s.blobs.Put(ctx, s.key, encoded)
	}
	if err != nil {
		s.logger.Error("board persist failed", "key", s.key, "err", err)
		persistErr = fmt.Errorf("%w: %w", ErrPersist, err)
	}
	for _, fn := range observers {
		fn(snap)
	}
	return persistErr
}

// nonNil replaces a nil slice with an empty one.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
