package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/lanes/internal/adapters/storage/sqlite"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
)

// TestMain sets deterministic environment defaults for CLI tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("LANES_DEV_MODE", "false")
	os.Exit(m.Run())
}

type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// scriptedProgram drives the real model with a fixed message sequence instead of a terminal.
type scriptedProgram struct {
	model tea.Model
	msgs  []tea.Msg
}

func (p scriptedProgram) Run() (tea.Model, error) {
	m, _ := p.model.Update(p.model.Init()())
	for _, msg := range p.msgs {
		m, _ = m.Update(msg)
	}
	return m, nil
}

// isolateDirs points platform path resolution at a temp dir.
func isolateDirs(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	t.Setenv("LANES_CONFIG", "")
	t.Setenv("LANES_DB_PATH", "")
	t.Setenv("LANES_APP_NAME", "")
	return tmp
}

func stubProgram(t *testing.T, factory func(tea.Model) program) {
	t.Helper()
	orig := programFactory
	t.Cleanup(func() { programFactory = orig })
	programFactory = factory
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func readStoredSnapshot(t *testing.T, dbPath string) (app.Snapshot, bool) {
	t.Helper()
	repo, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	defer func() { _ = repo.Close() }()
	raw, ok, err := repo.Get(context.Background(), app.DefaultSnapshotKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		return app.Snapshot{}, false
	}
	snap, err := app.DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	return snap, true
}

func TestRunVersion(t *testing.T) {
	isolateDirs(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"--version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(--version) error = %v", err)
	}
	if !strings.Contains(out.String(), "lanes") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRunStartsProgram(t *testing.T) {
	tmp := isolateDirs(t)
	stubProgram(t, func(tea.Model) program { return fakeProgram{} })

	dbPath := filepath.Join(tmp, "lanes.db")
	if err := run(context.Background(), []string{"--db", dbPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database at %s: %v", dbPath, err)
	}
}

func TestRunProgramErrorIsReturned(t *testing.T) {
	tmp := isolateDirs(t)
	stubProgram(t, func(tea.Model) program { return fakeProgram{runErr: errors.New("no tty")} })

	err := run(context.Background(), []string{"--db", filepath.Join(tmp, "lanes.db")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "no tty") {
		t.Fatalf("expected program error, got %v", err)
	}
}

func TestRunBoardPersistsEdits(t *testing.T) {
	tmp := isolateDirs(t)
	stubProgram(t, func(m tea.Model) program {
		return scriptedProgram{model: m, msgs: []tea.Msg{
			tea.WindowSizeMsg{Width: 120, Height: 40},
			tea.KeyPressMsg{Code: 'C', Text: "C"},
			tea.KeyPressMsg{Code: 'n', Text: "n"},
			tea.KeyPressMsg{Code: 'e', Text: "e"},
			tea.KeyPressMsg{Code: 'h', Text: "h"},
			tea.KeyPressMsg{Code: 'i', Text: "i"},
			tea.KeyPressMsg{Code: tea.KeyEnter},
		}}
	})

	dbPath := filepath.Join(tmp, "lanes.db")
	if err := run(context.Background(), []string{"--db", dbPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	snap, ok := readStoredSnapshot(t, dbPath)
	if !ok {
		t.Fatal("expected stored board")
	}
	if len(snap.Columns) != 1 || len(snap.Tasks) != 1 {
		t.Fatalf("unexpected stored board %#v", snap)
	}
	if snap.Tasks[0].ColumnID != snap.Columns[0].ID || snap.Tasks[0].Content != "hi" {
		t.Fatalf("unexpected stored task %#v", snap.Tasks[0])
	}
}

func TestRunUnknownCommandAndFlag(t *testing.T) {
	isolateDirs(t)
	if err := run(context.Background(), []string{"bogus"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown command error")
	}
	if err := run(context.Background(), []string{"--bogus"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

func TestRunPathsCommand(t *testing.T) {
	isolateDirs(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"--app", "lanesx", "--dev", "paths"}, &out, io.Discard); err != nil {
		t.Fatalf("run(paths) error = %v", err)
	}
	output := out.String()
	for _, want := range []string{"app: lanesx", "dev_mode: true", "lanesx-dev", "backups:"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in paths output, got %q", want, output)
		}
	}
}

func TestRunImportThenExport(t *testing.T) {
	tmp := isolateDirs(t)
	dbPath := filepath.Join(tmp, "lanes.db")
	inPath := filepath.Join(tmp, "in.json")
	writeFile(t, inPath, `{
  "columns": [{"id": 1, "title": "To Do"}, {"id": 2, "title": "Done"}],
  "tasks": [
    {"id": 10, "columnId": 1, "content": "first"},
    {"id": 11, "columnId": 2, "content": "second"},
    {"id": 12, "columnId": 99, "content": "orphan"}
  ]
}`)

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "import", "--in", inPath}, &out, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}
	if !strings.Contains(out.String(), "imported 2 columns, 2 tasks") || !strings.Contains(out.String(), "dropped 1 invalid entries") {
		t.Fatalf("unexpected import output %q", out.String())
	}
	if strings.Contains(out.String(), "backup:") {
		t.Fatalf("expected no backup for an empty database, got %q", out.String())
	}

	outPath := filepath.Join(tmp, "export", "board.json")
	if err := run(context.Background(), []string{"--db", dbPath, "export", "--out", outPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(snap.Columns) != 2 || snap.Columns[0].ID != "1" || snap.Columns[1].Title != "Done" {
		t.Fatalf("unexpected exported columns %#v", snap.Columns)
	}
	if len(snap.Tasks) != 2 || snap.Tasks[1].ID != "11" || snap.Tasks[1].ColumnID != "2" {
		t.Fatalf("unexpected exported tasks %#v", snap.Tasks)
	}
}

func TestRunExportEmptyBoardToStdout(t *testing.T) {
	tmp := isolateDirs(t)
	var out strings.Builder
	if err := run(context.Background(), []string{"--db", filepath.Join(tmp, "lanes.db"), "export"}, &out, io.Discard); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	if !strings.Contains(out.String(), `"columns": []`) || !strings.Contains(out.String(), `"tasks": []`) {
		t.Fatalf("expected empty arrays in export, got %q", out.String())
	}
}

func TestRunImportErrors(t *testing.T) {
	tmp := isolateDirs(t)
	dbPath := filepath.Join(tmp, "lanes.db")

	if err := run(context.Background(), []string{"--db", dbPath, "import"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing --in error")
	}
	if err := run(context.Background(), []string{"--db", dbPath, "import", "--in", filepath.Join(tmp, "missing.json")}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected missing file error")
	}
	badPath := filepath.Join(tmp, "bad.json")
	writeFile(t, badPath, "{not json")
	err := run(context.Background(), []string{"--db", dbPath, "import", "--in", badPath}, io.Discard, io.Discard)
	if !errors.Is(err, app.ErrCorruptSnapshot) {
		t.Fatalf("expected corrupt snapshot error, got %v", err)
	}
}

func TestRunResetBacksUpAndClears(t *testing.T) {
	tmp := isolateDirs(t)
	dbPath := filepath.Join(tmp, "lanes.db")
	inPath := filepath.Join(tmp, "in.json")
	writeFile(t, inPath, `{"columns":[{"id":"c1","title":"Todo"}],"tasks":[{"id":"t1","columnId":"c1","content":"ship"}]}`)
	if err := run(context.Background(), []string{"--db", dbPath, "import", "--in", inPath}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(import) error = %v", err)
	}

	var out strings.Builder
	if err := run(context.Background(), []string{"--db", dbPath, "reset"}, &out, io.Discard); err != nil {
		t.Fatalf("run(reset) error = %v", err)
	}
	if !strings.Contains(out.String(), `board "kanban" reset`) {
		t.Fatalf("unexpected reset output %q", out.String())
	}
	if _, ok := readStoredSnapshot(t, dbPath); ok {
		t.Fatal("expected stored board to be deleted")
	}

	backupDir := filepath.Join(tmp, "data", "lanes", "backups")
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "kanban-") {
		t.Fatalf("unexpected backups %v", entries)
	}
	content, err := os.ReadFile(filepath.Join(backupDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), `"ship"`) {
		t.Fatalf("expected backup of previous board, got %q", content)
	}

	out.Reset()
	if err := run(context.Background(), []string{"--db", dbPath, "reset"}, &out, io.Discard); err != nil {
		t.Fatalf("second reset error = %v", err)
	}
	if strings.Contains(out.String(), "backup:") {
		t.Fatalf("expected no backup of an empty board, got %q", out.String())
	}
}

func TestRunConfigAndDBEnvOverrides(t *testing.T) {
	tmp := isolateDirs(t)
	dbPath := filepath.Join(tmp, "env.db")
	cfgPath := filepath.Join(tmp, "env.toml")
	writeFile(t, cfgPath, "[database]\npath = \"/tmp/ignore-me.db\"\n\n[storage]\nkey = \"work\"\n")

	t.Setenv("LANES_CONFIG", cfgPath)
	t.Setenv("LANES_DB_PATH", dbPath)

	var out strings.Builder
	if err := run(context.Background(), []string{"reset"}, &out, io.Discard); err != nil {
		t.Fatalf("run(reset with env paths) error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected db created at env path, stat error %v", err)
	}
	if !strings.Contains(out.String(), `board "work" reset`) {
		t.Fatalf("expected configured storage key, got %q", out.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	tmp := isolateDirs(t)
	cfgPath := filepath.Join(tmp, "lanes.toml")
	writeFile(t, cfgPath, "[logging]\nlevel = \"verbose\"\n")

	err := run(context.Background(), []string{"--config", cfgPath, "--db", filepath.Join(tmp, "lanes.db"), "export"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected invalid logging level error, got %v", err)
	}
}

func TestRunTUIModeWritesRuntimeLogsToFileOnly(t *testing.T) {
	tmp := isolateDirs(t)
	stubProgram(t, func(tea.Model) program { return fakeProgram{} })
	workspace := filepath.Join(tmp, "ws")
	writeFile(t, filepath.Join(workspace, "go.mod"), "module example.com/ws\n")
	t.Chdir(workspace)

	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--dev", "--db", filepath.Join(workspace, "lanes.db")}, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".lanes", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".log") {
		t.Fatalf("expected one .log file in %s, got %v", logDir, entries)
	}
	content, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"starting tui program loop", "no stored board"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in dev log, got %q", want, content)
		}
	}
}

func TestRunBoardLogsChangeCountsAtDebugLevel(t *testing.T) {
	tmp := isolateDirs(t)
	stubProgram(t, func(m tea.Model) program {
		return scriptedProgram{model: m, msgs: []tea.Msg{
			tea.WindowSizeMsg{Width: 120, Height: 40},
			tea.KeyPressMsg{Code: 'C', Text: "C"},
			tea.KeyPressMsg{Code: 'n', Text: "n"},
		}}
	})
	workspace := filepath.Join(tmp, "ws")
	writeFile(t, filepath.Join(workspace, "go.mod"), "module example.com/ws\n")
	cfgPath := filepath.Join(workspace, "config.toml")
	writeFile(t, cfgPath, "[logging]\nlevel = \"debug\"\n")
	t.Chdir(workspace)

	var stderr bytes.Buffer
	args := []string{"--dev", "--config", cfgPath, "--db", filepath.Join(workspace, "lanes.db")}
	if err := run(context.Background(), args, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := strings.TrimSpace(stderr.String()); got != "" {
		t.Fatalf("expected no runtime stderr output in TUI mode, got %q", got)
	}

	logDir := filepath.Join(workspace, ".lanes", "log")
	entries, err := os.ReadDir(logDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one dev log in %s, got %v (err %v)", logDir, entries, err)
	}
	content, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"board changed", "columns=1 tasks=0", "columns=1 tasks=1"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in dev log, got %q", want, content)
		}
	}
}

func TestRunCommandLogsReachConsole(t *testing.T) {
	tmp := isolateDirs(t)
	var stderr bytes.Buffer
	if err := run(context.Background(), []string{"--db", filepath.Join(tmp, "lanes.db"), "export"}, io.Discard, &stderr); err != nil {
		t.Fatalf("run(export) error = %v", err)
	}
	if !strings.Contains(stderr.String(), "command flow complete") {
		t.Fatalf("expected console logs for CLI commands, got %q", stderr.String())
	}
}

func TestRuntimeLoggerCanMuteConsoleSink(t *testing.T) {
	var console bytes.Buffer
	cfg := config.Default("/tmp/lanes.db").Logging

	logger, err := newRuntimeLogger(&console, "lanes", false, cfg, func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("newRuntimeLogger() error = %v", err)
	}

	logger.Info("before")
	logger.SetConsoleEnabled(false)
	logger.Info("during")
	logger.Component("board").Info("component during")
	logger.SetConsoleEnabled(true)
	logger.Info("after")
	logger.Component("store").Info("component after")

	out := console.String()
	for _, want := range []string{"before", "after", "component after", "lanes/store"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected console log to include %q, got %q", want, out)
		}
	}
	if strings.Contains(out, "during") {
		t.Fatalf("expected muted console log to omit muted events, got %q", out)
	}
}

func TestRuntimeLoggerRejectsBadLevel(t *testing.T) {
	cfg := config.Default("/tmp/lanes.db").Logging
	cfg.Level = "loud"
	if _, err := newRuntimeLogger(io.Discard, "lanes", false, cfg, nil); err == nil {
		t.Fatal("expected level parse error")
	}
}

func TestWorkspaceRootFromUsesNearestMarker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/test\n")
	nested := filepath.Join(root, "cmd", "lanes")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if got := workspaceRootFrom(nested); filepath.Clean(got) != filepath.Clean(root) {
		t.Fatalf("expected workspace root %q, got %q", root, got)
	}
}

func TestDevLogFilePath(t *testing.T) {
	day := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)
	abs := filepath.Join(t.TempDir(), "logs")
	got, err := devLogFilePath(abs, "my app", day)
	if err != nil {
		t.Fatalf("devLogFilePath() error = %v", err)
	}
	if want := filepath.Join(abs, "my-app-20260222.log"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{raw: "true", want: true, wantOK: true},
		{raw: "0", want: false, wantOK: true},
		{raw: "", want: false, wantOK: false},
		{raw: "maybe", want: false, wantOK: false},
	}
	for _, tc := range cases {
		t.Setenv("LANES_BOOL_TEST", tc.raw)
		got, ok := parseBoolEnv("LANES_BOOL_TEST")
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("parseBoolEnv(%q) = %t, %t", tc.raw, got, ok)
		}
	}
}

func TestSanitizeFileStem(t *testing.T) {
	for raw, want := range map[string]string{
		"lanes":      "lanes",
		" my/app ":   "my-app",
		"a:b\\c":     "a-b-c",
		"":           "lanes",
		"///":        "lanes",
		"team board": "team-board",
	} {
		if got := sanitizeFileStem(raw); got != want {
			t.Fatalf("sanitizeFileStem(%q) = %q, want %q", raw, got, want)
		}
	}
}
