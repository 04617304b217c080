package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

const memoryDatabase = ":memory:"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

// configFileIn returns the config file in dir, or "" if there is none.
func configFileIn(dir string) string {
	for _, name := range []string{FileName, "leapwip.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a leapwip config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configFileIn(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit --config file
//  2. Nearest directory upward from CWD holding leapwip.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(cfgFile)
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == memoryDatabase || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// pathFlags maps path-valued flags to their config keys.
var pathFlags = map[string]string{
	"workbook": "workbook",
	"database": "database",
	"state":    "state_path",
}

// flagKey maps a flag name to its config key.
func flagKey(name string) string {
	if key, ok := pathFlags[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// LoadConfig loads configuration from file, a selected profile, environment
// variables and flags.
// Precedence (highest to lowest): flags > env vars > .env > profile > config file > defaults.
// Paths given as flags are relative to the working directory; all others are
// relative to the project root.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile)

	// 1. Defaults
	def := Default()
	if err := k.Load(confmap.Provider(map[string]any{
		"workbook":          def.Workbook,
		"sheet":             def.Sheet,
		"header_row":        def.HeaderRow,
		"date_columns":      def.DateColumns,
		"duplicate_headers": def.DuplicateHeaders,
		"database":          def.Database,
		"relation":          def.Relation,
		"state_path":        def.StatePath,
		"verbose":           false,
		"output":            def.OutputFormat,
		"log_level":         def.LogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	} else {
		configFileUsed = configFileIn(projectRoot)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Profile
	dotenv, err := readDotEnv(projectRoot)
	if err != nil {
		return nil, err
	}
	profile := selectedProfile(flags, dotenv)
	if profile != "" {
		if err := loadProfile(profile); err != nil {
			return nil, err
		}
	}

	// 4. Environment: .env in the project root, then the process environment.
	// LEAPWIP_HEADER_ROW -> header_row
	if len(dotenv) > 0 {
		if err := k.Load(confmap.Provider(dotenv, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags that were explicitly set
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := flagKey(f.Name)
			if _, ok := pathFlags[f.Name]; ok {
				if v := f.Value.String(); v != "" && v != memoryDatabase {
					if abs, err := filepath.Abs(v); err == nil {
						flagPaths[key] = abs
					}
				}
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Decode
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Profile = profile
	cfg.DateColumns = cleanList(cfg.DateColumns)
	cfg.ProjectRoot = projectRoot

	cfg.Workbook = resolveConfigPath(cfg.Workbook, flagPaths["workbook"], projectRoot)
	cfg.Database = resolveConfigPath(cfg.Database, flagPaths["database"], projectRoot)
	cfg.StatePath = resolveConfigPath(cfg.StatePath, flagPaths["state_path"], projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// selectedProfile picks the profile name: flag, then env, then config file.
func selectedProfile(flags *pflag.FlagSet, dotenv map[string]any) string {
	if flags != nil {
		if f := flags.Lookup("profile"); f != nil && f.Changed {
			return f.Value.String()
		}
	}
	if v := os.Getenv(EnvPrefix + "PROFILE"); v != "" {
		return v
	}
	if v, ok := dotenv["profile"].(string); ok && v != "" {
		return v
	}
	return k.String("profile")
}

// readDotEnv returns the LEAPWIP_* entries of root/.env keyed like config keys.
// A missing file yields nothing.
func readDotEnv(root string) (map[string]any, error) {
	path := filepath.Join(root, DotEnvFile)
	if _, err := os.Stat(path); err != nil {
		return nil, nil //nolint:nilerr // .env is optional
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	out := make(map[string]any)
	for name, value := range vars {
		if !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		out[strings.ToLower(strings.TrimPrefix(name, EnvPrefix))] = value
	}
	return out, nil
}

// loadProfile layers profiles.<name> over the base settings.
func loadProfile(name string) error {
	path := "profiles." + name
	if !k.Exists(path) {
		available := k.MapKeys("profiles")
		sort.Strings(available)
		if len(available) == 0 {
			return fmt.Errorf("unknown profile %q: no profiles defined in %s", name, FileName)
		}
		return fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(available, ", "))
	}

	overrides := k.Cut(path).Raw()
	if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
		return fmt.Errorf("failed to apply profile %s: %w", name, err)
	}
	return nil
}

// resolveConfigPath prefers the CWD-absolute flag value over root-relative config.
func resolveConfigPath(value, fromFlag, root string) string {
	if fromFlag != "" {
		return fromFlag
	}
	return resolvePathRelativeTo(value, root)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the loaded config.
func ConfigKey() any {
	return configKey{}
}

// GetConfig retrieves the config from the command context, or the defaults.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Default()
}
