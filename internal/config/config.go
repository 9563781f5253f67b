package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"
)

// Column width bounds in terminal cells.
const (
	MinColumnWidth = 16
	MaxColumnWidth = 80
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	Board    BoardConfig    `toml:"board"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// StorageConfig selects the blob key the board snapshot lives under.
type StorageConfig struct {
	Key string `toml:"key"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"` // debug | info | warn | error
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BoardConfig struct {
	ColumnWidth    int  `toml:"column_width"`
	DragDistance   int  `toml:"drag_distance"`
	RenderMarkdown bool `toml:"render_markdown"`
}

// KeyConfig holds single-key overrides for board actions. Blank values keep the built-in key.
type KeyConfig struct {
	Grab      string `toml:"grab"`
	NewColumn string `toml:"new_column"`
	NewTask   string `toml:"new_task"`
	Edit      string `toml:"edit"`
	Delete    string `toml:"delete"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Storage: StorageConfig{
			Key: "kanban",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".lanes/log",
			},
		},
		Board: BoardConfig{
			ColumnWidth:    28,
			DragDistance:   1,
			RenderMarkdown: true,
		},
		Keys: KeyConfig{
			Grab:      " ",
			NewColumn: "C",
			NewTask:   "n",
			Edit:      "e",
			Delete:    "x",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Board.ColumnWidth < MinColumnWidth || c.Board.ColumnWidth > MaxColumnWidth {
		return fmt.Errorf("board.column_width must be between %d and %d", MinColumnWidth, MaxColumnWidth)
	}
	if c.Board.DragDistance < 0 {
		return errors.New("board.drag_distance must be >= 0")
	}

	seen := map[string]string{}
	for _, binding := range []struct {
		name  string
		value string
	}{
		{"grab", c.Keys.Grab},
		{"new_column", c.Keys.NewColumn},
		{"new_task", c.Keys.NewTask},
		{"edit", c.Keys.Edit},
		{"delete", c.Keys.Delete},
	} {
		if binding.value == "" {
			continue
		}
		if utf8.RuneCountInString(binding.value) != 1 {
			return fmt.Errorf("keys.%s must be a single key, got %q", binding.name, binding.value)
		}
		if other, ok := seen[binding.value]; ok {
			return fmt.Errorf("keys.%s duplicates keys.%s: %q", binding.name, other, binding.value)
		}
		seen[binding.value] = binding.name
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
