package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the name of the project-level config file.
const ConfigFileName = "bindinc.toml"

// ConfigDirName is the name of the project-level config directory.
const ConfigDirName = ".bindinc"

// GlobalConfigDir is the name of the global config directory inside user's config.
const GlobalConfigDir = "bindinc"

// Loaded is a merged configuration together with the directory relative
// paths are resolved against.
type Loaded struct {
	*Config

	// Root is the directory holding the project config, or the start
	// directory when none was found.
	Root string

	// ProjectFile is the project config file that was applied, if any.
	ProjectFile string
}

// Resolved returns the config with relative paths resolved against Root.
func (l *Loaded) Resolved() *Config {
	return l.Config.Resolve(l.Root)
}

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/bindinc/config.toml)
//  3. Project config (.bindinc/config.toml or bindinc.toml)
//  4. Environment variables (BINDINC_*)
//
// CLI flags are applied separately after Load() returns.
func Load() (*Loaded, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration starting from a specific directory.
func LoadFrom(dir string) (*Loaded, error) {
	cfg := NewConfig()

	// Layer 2: Global user config
	globalCfg, err := loadGlobalConfig()
	if err != nil {
		return nil, err
	}
	cfg.Merge(globalCfg)

	// Layer 3: Project config from specified directory
	projectCfg, path, err := loadProjectConfigFrom(dir)
	if err != nil {
		return nil, err
	}
	cfg.Merge(projectCfg)

	root := dir
	if path != "" {
		root = projectRootOf(path)
	}

	// Layer 4: Environment variables
	if err := applyEnvironmentVariables(cfg); err != nil {
		return nil, err
	}

	return &Loaded{Config: cfg, Root: root, ProjectFile: path}, nil
}

// LoadWithFile loads defaults and the global config, then the given file in
// place of the project search, then environment variables.
func LoadWithFile(path string) (*Loaded, error) {
	cfg := NewConfig()

	globalCfg, err := loadGlobalConfig()
	if err != nil {
		return nil, err
	}
	cfg.Merge(globalCfg)

	fileCfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(fileCfg)

	if err := applyEnvironmentVariables(cfg); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Root: projectRootOf(abs), ProjectFile: abs}, nil
}

// projectRootOf returns the project directory for a config file path.
// For .bindinc/config.toml that is the parent of .bindinc.
func projectRootOf(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// loadGlobalConfig loads the global user configuration from ~/.config/bindinc/config.toml.
func loadGlobalConfig() (*Config, error) {
	configPath := GetGlobalConfigPath()
	if configPath == "" {
		return nil, nil
	}
	return loadConfigFile(configPath)
}

// loadProjectConfigFrom looks for project configuration starting from the
// given directory and returns it with the file it came from.
func loadProjectConfigFrom(dir string) (*Config, string, error) {
	// Search up the directory tree for config files
	current := dir
	for {
		for _, candidate := range GetProjectConfigPaths(current) {
			cfg, err := loadConfigFile(candidate)
			if err != nil {
				return nil, "", err
			}
			if cfg != nil {
				return cfg, candidate, nil
			}
		}

		// Stop at filesystem root or repository root
		if isWorkspaceRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil, "", nil
}

// isWorkspaceRoot checks if the directory is a project root (has .git or a
// top-level build file).
func isWorkspaceRoot(dir string) bool {
	markers := []string{".git", "settings.gradle", "settings.gradle.kts", "WORKSPACE", "MODULE.bazel"}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// loadConfigFile loads a configuration from a TOML file. A missing file
// yields nil without error.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return &cfg, nil
}

// LoadFile loads a single config file. Unlike the project search, a missing
// file is an error.
func LoadFile(path string) (*Config, error) {
	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	return cfg, nil
}

// applyEnvironmentVariables applies BINDINC_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) error {
	if v := os.Getenv("BINDINC_PACKAGE_NAME"); v != "" {
		cfg.Module.PackageName = v
	}
	applyBoolEnv("BINDINC_INCREMENTAL", &cfg.Module.Incremental)

	// Paths
	applyStringEnv("BINDINC_INFO_FOLDER", &cfg.Paths.InfoFolder)
	applyStringEnv("BINDINC_DEPENDENCY_CLASSES_FOLDER", &cfg.Paths.DependencyClassesFolder)
	applyStringEnv("BINDINC_ARTIFACT_FOLDER", &cfg.Paths.ArtifactFolder)
	applyStringEnv("BINDINC_LOG_FOLDER", &cfg.Paths.LogFolder)
	applyStringEnv("BINDINC_GENERATED_SOURCES", &cfg.Paths.GeneratedSources)

	// BINDINC_INCLUDE: comma-separated list of include patterns
	if v := os.Getenv("BINDINC_INCLUDE"); v != "" {
		cfg.Inputs.Include = splitAndTrim(v)
	}

	// Compiler settings
	applyStringEnv("BINDINC_ARTIFACT_TYPE", &cfg.Compiler.ArtifactType)
	applyStringEnv("BINDINC_SDK_DIR", &cfg.Compiler.SDKDir)
	if v := os.Getenv("BINDINC_MIN_API"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("BINDINC_MIN_API: %w", err)
		}
		cfg.Compiler.MinAPI = n
	}
	applyBoolEnv("BINDINC_ENABLE_V2", &cfg.Compiler.EnableV2)
	applyBoolEnv("BINDINC_ENABLE_DEBUG_LOGS", &cfg.Compiler.EnableDebugLogs)
	if v, ok := os.LookupEnv("BINDINC_DIRECT_DEPENDENCY_PACKAGES"); ok {
		cfg.Compiler.DirectDependencyPackages = splitAndTrim(v)
	}

	if v := os.Getenv("BINDINC_WATCH_DEBOUNCE_MS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("BINDINC_WATCH_DEBOUNCE_MS: %w", err)
		}
		cfg.Watch.DebounceMS = n
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func applyStringEnv(envVar string, target *string) {
	if v := os.Getenv(envVar); v != "" {
		*target = v
	}
}

// applyBoolEnv applies a boolean environment variable to a pointer.
func applyBoolEnv(envVar string, target **bool) {
	if v := os.Getenv(envVar); v != "" {
		v = strings.ToLower(v)
		if v == "true" || v == "1" || v == "yes" {
			t := true
			*target = &t
		} else if v == "false" || v == "0" || v == "no" {
			f := false
			*target = &f
		}
	}
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigDirName, "config.toml"),
		filepath.Join(dir, ConfigFileName),
	}
}
