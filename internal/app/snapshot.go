package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/evanschultz/lanes/internal/domain"
)

// DefaultSnapshotKey is the blob key the board is stored under.
const DefaultSnapshotKey = "kanban"

// Snapshot is the persisted board: every column and task in display order.
type Snapshot struct {
	Columns []domain.Column `json:"columns"`
	Tasks   []domain.Task   `json:"tasks"`
}

// NormalizeReport counts entries dropped by Normalize.
type NormalizeReport struct {
	BlankIDs     int
	DuplicateIDs int
	OrphanTasks  int
}

// Dropped returns the total number of removed entries.
func (r NormalizeReport) Dropped() int {
	return r.BlankIDs + r.DuplicateIDs + r.OrphanTasks
}

// EncodeSnapshot serializes a snapshot. Nil slices encode as empty arrays.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	s = s.clone()
	encoded, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot json: %w", err)
	}
	return encoded, nil
}

// DecodeSnapshot parses a stored snapshot. Empty input and JSON null decode to an empty board.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return emptySnapshot(), nil
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return emptySnapshot(), fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return s.clone(), nil
}

// Normalize drops columns and tasks with blank or repeated ids and tasks whose column is
// missing, so the result satisfies the board's foreign-key invariant.
func (s Snapshot) Normalize() (Snapshot, NormalizeReport) {
	var report NormalizeReport
	out := emptySnapshot()

	columnIDs := make(map[domain.ID]struct{}, len(s.Columns))
	for _, column := range s.Columns {
		if column.ID.IsZero() {
			report.BlankIDs++
			continue
		}
		if _, ok := columnIDs[column.ID]; ok {
			report.DuplicateIDs++
			continue
		}
		columnIDs[column.ID] = struct{}{}
		out.Columns = append(out.Columns, column)
	}

	taskIDs := make(map[domain.ID]struct{}, len(s.Tasks))
	for _, task := range s.Tasks {
		if task.ID.IsZero() {
			report.BlankIDs++
			continue
		}
		if _, ok := taskIDs[task.ID]; ok {
			report.DuplicateIDs++
			continue
		}
		if _, ok := columnIDs[task.ColumnID]; !ok {
			report.OrphanTasks++
			continue
		}
		taskIDs[task.ID] = struct{}{}
		out.Tasks = append(out.Tasks, task)
	}
	return out, report
}

// clone copies both slices and replaces nil with empty slices.
func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Columns: slices.Clone(s.Columns),
		Tasks:   slices.Clone(s.Tasks),
	}
	if out.Columns == nil {
		out.Columns = []domain.Column{}
	}
	if out.Tasks == nil {
		out.Tasks = []domain.Task{}
	}
	return out
}

// emptySnapshot returns a board with no columns and no tasks.
func emptySnapshot() Snapshot {
	return Snapshot{
		Columns: []domain.Column{},
		Tasks:   []domain.Task{},
	}
}
