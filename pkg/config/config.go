package config

import (
	"io/fs"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix is prepended to the upper-cased config key to get the environment
// variable that sets it, e.g. LINKSHELF_INDEX_PATH for index_path.
const EnvPrefix = "LINKSHELF_"

type Config struct {
	// IndexPath is the INPX archive describing the collection.
	IndexPath string `koanf:"index_path" validate:"required"`
	// SearchDir is the directory tree holding the book files.
	SearchDir string `koanf:"search_dir" validate:"required"`
	// DestDir is the root of the generated link tree.
	DestDir string `koanf:"dest_dir" validate:"required"`
	// Skip leaves existing links alone instead of adding numbered ones.
	Skip bool `koanf:"skip" default:"true"`
	// ReportPath, when set, receives a JSON summary of every run.
	ReportPath string `koanf:"report_path"`

	ProgressInterval int           `koanf:"progress_interval" default:"1000" validate:"gte=0"`
	WatchDebounce    time.Duration `koanf:"watch_debounce" default:"2s" validate:"gt=0"`
	BookExtensions   []string      `koanf:"book_extensions" default:"[\".fb2\"]" validate:"dive,startswith=."`
	LogLevel         string        `koanf:"log_level" default:"info" validate:"oneof=debug info warn error"`
}

// Option changes the loaded config before it's validated. The CLI uses it to
// apply its flags on top of the file and the environment.
type Option func(cfg *Config)

// New loads the config in order of increasing precedence: struct defaults,
// the YAML file at path (skipped when path is empty or the file doesn't
// exist), LINKSHELF_* environment variables and finally opts. The result is
// validated before it's returned.
func New(path string, opts ...Option) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	if path != "" {
		err := k.Load(file.Provider(path), yaml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "can't load config file %s", path)
		}
	}

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if k.Exists("book_extensions") {
		// Lists replace the default instead of being merged into it.
		cfg.BookExtensions = nil
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a valid config rooted at the given directories.
func NewForTest(indexPath, searchDir, destDir string) *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.IndexPath = indexPath
	cfg.SearchDir = searchDir
	cfg.DestDir = destDir
	cfg.WatchDebounce = 50 * time.Millisecond
	return cfg
}

func envKey(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		// LINKSHELF_CONFIG names the file itself and is handled by the CLI.
		return "", nil
	}
	if key == "book_extensions" {
		return key, splitList(value)
	}
	return key, value
}

func splitList(value string) []string {
	list := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
