package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/evanschultz/lanes/internal/adapters/storage/sqlite"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/config"
	"github.com/evanschultz/lanes/internal/platform"
	"github.com/evanschultz/lanes/internal/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "dev"

// program is the slice of *tea.Program the CLI needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program; tests swap it for a fake.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with explicit args and streams.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// cli holds global flag state shared by every command.
type cli struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c := &cli{stdout: stdout, stderr: stderr}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("LANES_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("LANES_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "lanes",
		Short: "A drag-and-drop kanban board for the terminal",
		Long: `lanes keeps columns and tasks in a local sqlite database and lets you
rearrange them with the mouse or the keyboard.

Run without a command to open the board.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runBoard(cmd.Context())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to config TOML")
	flags.StringVar(&c.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&c.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&c.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(c.pathsCmd(), c.exportCmd(), c.importCmd(), c.resetCmd())
	return root
}

func (c *cli) pathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := c.paths()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(c.stdout, "app: %s\n", c.appName)
			_, _ = fmt.Fprintf(c.stdout, "dev_mode: %t\n", c.devMode)
			_, _ = fmt.Fprintf(c.stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(c.stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(c.stdout, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(c.stdout, "backups: %s\n", paths.BackupDir)
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd.Context(), "export", func(ctx context.Context, s *session) error {
				return runExport(ctx, s, outPath, c.stdout)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the board with a snapshot file",
		Long: `Replace the board with a snapshot JSON file. Tasks whose column is missing
are dropped. The previous board is written to the backup directory first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return c.withSession(cmd.Context(), "import", func(ctx context.Context, s *session) error {
				return runImport(ctx, s, inPath, c.stdout)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored board so the next start is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd.Context(), "reset", func(ctx context.Context, s *session) error {
				return runReset(ctx, s, c.stdout)
			})
		},
	}
}

func (c *cli) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: c.appName,
		DevMode: c.devMode,
	})
}

// session is the resolved runtime state of one command: config, logger, and open database.
type session struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	repo       *sqlite.Repository
	now        func() time.Time
}

// openSession resolves config and db paths (flag, then env, then platform default), loads the
// config, and opens the database.
func (c *cli) openSession(command string) (*session, error) {
	paths, err := c.paths()
	if err != nil {
		return nil, err
	}

	configPath := strings.TrimSpace(c.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("LANES_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(c.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("LANES_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(c.stderr, c.appName, c.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// The board owns the terminal; runtime logs go to the dev file only.
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", c.appName, "dev_mode", c.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	return &session{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		repo:       repo,
		now:        time.Now,
	}, nil
}

// close releases the database and the dev log file.
func (s *session) close(stderr io.Writer) {
	if err := s.repo.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", err)
	}
	if err := s.logger.Close(); err != nil && s.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// store loads the board snapshot into a Store.
func (s *session) store(ctx context.Context) (*app.Store, error) {
	return app.NewStore(ctx, s.repo, app.StoreOptions{
		Key:    s.cfg.Storage.Key,
		Logger: s.logger.Component("store"),
	})
}

// backup copies the stored board blob into the backup directory and returns the file path,
// or "" when nothing is stored.
func (s *session) backup(ctx context.Context) (string, error) {
	key := s.cfg.Storage.Key
	raw, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read board for backup: %w", err)
	}
	if !ok {
		return "", nil
	}
	if err := os.MkdirAll(s.paths.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", sanitizeFileStem(key), s.now().UTC().Format("20060102T150405.000000000Z"))
	path := filepath.Join(s.paths.BackupDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	s.logger.Info("board backup written", "key", key, "path", path, "bytes", len(raw))
	return path, nil
}

// withSession opens a session, runs fn, and logs the command outcome.
func (c *cli) withSession(ctx context.Context, command string, fn func(context.Context, *session) error) error {
	s, err := c.openSession(command)
	if err != nil {
		return err
	}
	defer s.close(c.stderr)

	s.logger.Info("command flow start", "command", command)
	if err := fn(ctx, s); err != nil {
		s.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	s.logger.Info("command flow complete", "command", command)
	return nil
}

// runBoard opens the interactive board.
func (c *cli) runBoard(ctx context.Context) error {
	return c.withSession(ctx, "tui", func(ctx context.Context, s *session) error {
		store, err := s.store(ctx)
		if err != nil {
			return err
		}
		store.Subscribe(func(snap app.Snapshot) {
			s.logger.Debug("board changed", "columns", len(snap.Columns), "tasks", len(snap.Tasks))
		})
		board := app.NewBoard(store, uuid.NewString, app.BoardOptions{Logger: s.logger.Component("board")})

		m := tui.NewModel(
			board,
			tui.WithContext(ctx),
			tui.WithBoardConfig(tui.BoardConfig{
				ColumnWidth:    s.cfg.Board.ColumnWidth,
				DragDistance:   s.cfg.Board.DragDistance,
				RenderMarkdown: s.cfg.Board.RenderMarkdown,
			}),
			tui.WithKeyConfig(tui.KeyConfig{
				Grab:      s.cfg.Keys.Grab,
				NewColumn: s.cfg.Keys.NewColumn,
				NewTask:   s.cfg.Keys.NewTask,
				Edit:      s.cfg.Keys.Edit,
				Delete:    s.cfg.Keys.Delete,
			}),
		)
		s.logger.Info("starting tui program loop", "columns", len(board.Columns()), "tasks", len(board.Tasks()))
		if _, err := programFactory(m).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// runExport writes the stored board as indented JSON to outPath, or stdout for "-".
func runExport(ctx context.Context, s *session, outPath string, stdout io.Writer) error {
	switch updated, err := s.repo.UpdatedAt(ctx, s.cfg.Storage.Key); {
	case err == nil:
		s.logger.Info("exporting stored board", "key", s.cfg.Storage.Key, "updated_at", updated.Format(time.RFC3339))
	case errors.Is(err, app.ErrNotFound):
		s.logger.Info("no stored board, exporting empty snapshot", "key", s.cfg.Storage.Key)
	default:
		return err
	}

	store, err := s.store(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(store.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport replaces the stored board with the snapshot in inPath.
func runImport(ctx context.Context, s *session, inPath string, stdout io.Writer) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	snap, err := app.DecodeSnapshot(content)
	if err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	backupPath, err := s.backup(ctx)
	if err != nil {
		return err
	}

	store, err := s.store(ctx)
	if err != nil {
		return err
	}
	report, err := store.Replace(ctx, snap)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	imported := store.Snapshot()
	_, _ = fmt.Fprintf(stdout, "imported %d columns, %d tasks\n", len(imported.Columns), len(imported.Tasks))
	if dropped := report.Dropped(); dropped > 0 {
		_, _ = fmt.Fprintf(stdout, "dropped %d invalid entries\n", dropped)
	}
	if backupPath != "" {
		_, _ = fmt.Fprintf(stdout, "backup: %s\n", backupPath)
	}
	return nil
}

// runReset deletes the stored board after backing it up.
func runReset(ctx context.Context, s *session, stdout io.Writer) error {
	backupPath, err := s.backup(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.cfg.Storage.Key); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "board %q reset\n", s.cfg.Storage.Key)
	if backupPath != "" {
		_, _ = fmt.Fprintf(stdout, "backup: %s\n", backupPath)
	}
	return nil
}

// parseBoolEnv reads a boolean env var; ok is false when it is unset or unparsable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
