package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

func TestRepository_BlobLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "lanes.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	if _, ok, err := repo.Get(ctx, "kanban"); err != nil || ok {
		t.Fatalf("Get() missing = ok %v, err %v", ok, err)
	}
	if err := repo.Put(ctx, "kanban", []byte(`{"columns":[]}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := repo.Put(ctx, "kanban", []byte(`{"columns":[],"tasks":[]}`)); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	value, ok, err := repo.Get(ctx, "kanban")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if string(value) != `{"columns":[],"tasks":[]}` {
		t.Fatalf("unexpected value %s", value)
	}
	updated, err := repo.UpdatedAt(ctx, "kanban")
	if err != nil {
		t.Fatalf("UpdatedAt() error = %v", err)
	}
	if !updated.Equal(now) {
		t.Fatalf("unexpected updated_at %v", updated)
	}

	if err := repo.Delete(ctx, "kanban"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "kanban"); err != nil {
		t.Fatalf("Delete() twice error = %v", err)
	}
	if _, err := repo.UpdatedAt(ctx, "kanban"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_PutRejectsBlankKey(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer repo.Close()
	if err := repo.Put(context.Background(), " ", []byte("x")); err == nil {
		t.Fatal("expected blank key error")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestOpenInMemoryDatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()
	first, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer first.Close()
	second, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer second.Close()

	if err := first.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok, err := second.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected second database to be empty, ok %v err %v", ok, err)
	}
}

func TestRepository_BacksBoardStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "lanes.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ids := []string{"c1", "t1"}
	next := 0
	store, err := app.NewStore(ctx, repo, app.StoreOptions{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	board := app.NewBoard(store, func() string {
		id := ids[next]
		next++
		return id
	}, app.BoardOptions{})

	column, err := board.CreateColumn(ctx)
	if err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}
	if err := board.RenameColumn(ctx, column.ID, "To Do"); err != nil {
		t.Fatalf("RenameColumn() error = %v", err)
	}
	task, err := board.CreateTask(ctx, column.ID)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if err := board.EditTask(ctx, task.ID, "ship it"); err != nil {
		t.Fatalf("EditTask() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() reopen error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	reloaded, err := app.NewStore(ctx, reopened, app.StoreOptions{})
	if err != nil {
		t.Fatalf("NewStore() reload error = %v", err)
	}
	columns := reloaded.Columns()
	tasks := reloaded.Tasks()
	if len(columns) != 1 || columns[0].Title != "To Do" {
		t.Fatalf("unexpected columns %#v", columns)
	}
	want := domain.Task{ID: "t1", ColumnID: "c1", Content: "ship it"}
	if len(tasks) != 1 || tasks[0] != want {
		t.Fatalf("unexpected tasks %#v", tasks)
	}
}
