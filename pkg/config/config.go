// Package config provides configuration management for bindinc.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/bindinc/config.toml)
//  3. Project config (.bindinc/config.toml or bindinc.toml)
//  4. Environment variables (BINDINC_*)
//  5. CLI flags (highest priority)
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/albertocavalcante/bindinc/pkg/compilerargs"
	"github.com/albertocavalcante/bindinc/pkg/invalidate"
)

// Config is the main configuration struct for bindinc.
type Config struct {
	// Module identifies the module being built.
	Module ModuleConfig `toml:"module"`

	// Paths locates build inputs, outputs and persisted logs.
	Paths PathsConfig `toml:"paths"`

	// Inputs selects which files in the info folder are layout-info files.
	Inputs InputsConfig `toml:"inputs"`

	// Compiler holds the settings forwarded to the binding-class generator.
	Compiler CompilerConfig `toml:"compiler"`

	// Watch configures watch mode.
	Watch WatchConfig `toml:"watch"`
}

// ModuleConfig holds module identity settings.
type ModuleConfig struct {
	// PackageName is the module's package, e.g. "com.example.app".
	PackageName string `toml:"package_name"`

	// Incremental enables incremental invalidation. When false every build
	// regenerates everything.
	Incremental *bool `toml:"incremental"`
}

// PathsConfig holds folder locations. Relative paths are resolved against
// the project directory.
type PathsConfig struct {
	// InfoFolder holds the layout-info files produced upstream.
	InfoFolder string `toml:"info_folder"`

	// DependencyClassesFolder holds binding class lists exported by libraries.
	DependencyClassesFolder string `toml:"dependency_classes_folder"`

	// ArtifactFolder receives this module's exported binding class list.
	ArtifactFolder string `toml:"artifact_folder"`

	// LogFolder holds the build logs kept between builds.
	LogFolder string `toml:"log_folder"`

	// GeneratedSources is the root of generated binding sources.
	GeneratedSources string `toml:"generated_sources"`
}

// InputsConfig selects layout-info files.
type InputsConfig struct {
	// Include is the list of doublestar patterns relative to the info folder.
	Include []string `toml:"include"`
}

// CompilerConfig holds generator options.
type CompilerConfig struct {
	// ArtifactType is "application", "library" or "feature".
	ArtifactType string `toml:"artifact_type"`

	MinAPI int    `toml:"min_api"`
	SDKDir string `toml:"sdk_dir"`

	BaseFeatureInfoDir     string `toml:"base_feature_info_dir"`
	FeatureInfoDir         string `toml:"feature_info_dir"`
	AAROutDir              string `toml:"aar_out_dir"`
	ExportClassListOutFile string `toml:"export_class_list_out_file"`

	EnableV2          *bool `toml:"enable_v2"`
	EnableDebugLogs   *bool `toml:"enable_debug_logs"`
	IsTestVariant     *bool `toml:"is_test_variant"`
	IsEnabledForTests *bool `toml:"is_enabled_for_tests"`

	// DirectDependencyPackages restricts which dependency packages get
	// binding classes. Unset means all of them.
	DirectDependencyPackages []string `toml:"direct_dependency_packages"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// DebounceMS is how long to wait for more changes before re-planning.
	DebounceMS int `toml:"debounce_ms"`
}

// NewConfig creates a new Config with built-in defaults.
// Paths default to a "build/bindinc" layout below the project directory.
func NewConfig() *Config {
	trueVal := true
	falseVal := false
	return &Config{
		Module: ModuleConfig{
			Incremental: &trueVal,
		},
		Paths: PathsConfig{
			InfoFolder:              filepath.Join("build", "bindinc", "info"),
			DependencyClassesFolder: filepath.Join("build", "bindinc", "deps"),
			ArtifactFolder:          filepath.Join("build", "bindinc", "artifacts"),
			LogFolder:               filepath.Join("build", "bindinc", "logs"),
			GeneratedSources:        filepath.Join("build", "generated", "source", "bindinc"),
		},
		Inputs: InputsConfig{
			Include: slices.Clone(invalidate.DefaultInclude),
		},
		Compiler: CompilerConfig{
			ArtifactType:      string(compilerargs.Application),
			MinAPI:            21,
			EnableV2:          &trueVal,
			EnableDebugLogs:   &falseVal,
			IsTestVariant:     &falseVal,
			IsEnabledForTests: &falseVal,
		},
		Watch: WatchConfig{
			DebounceMS: 100,
		},
	}
}

// IsIncremental reports whether incremental invalidation is enabled.
func (c *Config) IsIncremental() bool {
	return c.Module.Incremental == nil || *c.Module.Incremental
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Merge module config
	if other.Module.PackageName != "" {
		c.Module.PackageName = other.Module.PackageName
	}
	if other.Module.Incremental != nil {
		c.Module.Incremental = other.Module.Incremental
	}

	// Merge paths config
	mergeString(&c.Paths.InfoFolder, other.Paths.InfoFolder)
	mergeString(&c.Paths.DependencyClassesFolder, other.Paths.DependencyClassesFolder)
	mergeString(&c.Paths.ArtifactFolder, other.Paths.ArtifactFolder)
	mergeString(&c.Paths.LogFolder, other.Paths.LogFolder)
	mergeString(&c.Paths.GeneratedSources, other.Paths.GeneratedSources)

	// Include replaces rather than appends
	if len(other.Inputs.Include) > 0 {
		c.Inputs.Include = other.Inputs.Include
	}

	// Merge compiler config
	mergeString(&c.Compiler.ArtifactType, other.Compiler.ArtifactType)
	if other.Compiler.MinAPI != 0 {
		c.Compiler.MinAPI = other.Compiler.MinAPI
	}
	mergeString(&c.Compiler.SDKDir, other.Compiler.SDKDir)
	mergeString(&c.Compiler.BaseFeatureInfoDir, other.Compiler.BaseFeatureInfoDir)
	mergeString(&c.Compiler.FeatureInfoDir, other.Compiler.FeatureInfoDir)
	mergeString(&c.Compiler.AAROutDir, other.Compiler.AAROutDir)
	mergeString(&c.Compiler.ExportClassListOutFile, other.Compiler.ExportClassListOutFile)
	if other.Compiler.EnableV2 != nil {
		c.Compiler.EnableV2 = other.Compiler.EnableV2
	}
	if other.Compiler.EnableDebugLogs != nil {
		c.Compiler.EnableDebugLogs = other.Compiler.EnableDebugLogs
	}
	if other.Compiler.IsTestVariant != nil {
		c.Compiler.IsTestVariant = other.Compiler.IsTestVariant
	}
	if other.Compiler.IsEnabledForTests != nil {
		c.Compiler.IsEnabledForTests = other.Compiler.IsEnabledForTests
	}
	if other.Compiler.DirectDependencyPackages != nil {
		c.Compiler.DirectDependencyPackages = other.Compiler.DirectDependencyPackages
	}

	// Merge watch config
	if other.Watch.DebounceMS > 0 {
		c.Watch.DebounceMS = other.Watch.DebounceMS
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Resolve returns a copy of the config with relative paths made absolute
// against dir.
func (c *Config) Resolve(dir string) *Config {
	out := *c
	out.Inputs.Include = slices.Clone(c.Inputs.Include)
	out.Compiler.DirectDependencyPackages = slices.Clone(c.Compiler.DirectDependencyPackages)
	for _, p := range []*string{
		&out.Paths.InfoFolder,
		&out.Paths.DependencyClassesFolder,
		&out.Paths.ArtifactFolder,
		&out.Paths.LogFolder,
		&out.Paths.GeneratedSources,
		&out.Compiler.SDKDir,
		&out.Compiler.BaseFeatureInfoDir,
		&out.Compiler.FeatureInfoDir,
		&out.Compiler.AAROutDir,
		&out.Compiler.ExportClassListOutFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return &out
}

// ToArgs returns the workspace arguments described by the config.
func (c *Config) ToArgs() invalidate.Args {
	return invalidate.Args{
		InfoFolder:              c.Paths.InfoFolder,
		DependencyClassesFolder: c.Paths.DependencyClassesFolder,
		ArtifactFolder:          c.Paths.ArtifactFolder,
		LogFolder:               c.Paths.LogFolder,
		PackageName:             c.Module.PackageName,
		Include:                 slices.Clone(c.Inputs.Include),
		Incremental:             c.IsIncremental(),
	}
}

// CompilerArguments builds and validates the generator options.
func (c *Config) CompilerArguments() (*compilerargs.Arguments, error) {
	t, err := compilerargs.ParseArtifactType(c.Compiler.ArtifactType)
	if err != nil {
		return nil, fmt.Errorf("compiler.artifact_type: %w", err)
	}
	a := &compilerargs.Arguments{
		Incremental:            c.IsIncremental(),
		ArtifactType:           t,
		ModulePackage:          c.Module.PackageName,
		MinAPI:                 c.Compiler.MinAPI,
		SDKDir:                 c.Compiler.SDKDir,
		DependencyArtifactsDir: c.Paths.DependencyClassesFolder,
		LayoutInfoDir:          c.Paths.InfoFolder,
		ClassLogDir:            c.Paths.LogFolder,
		BaseFeatureInfoDir:     c.Compiler.BaseFeatureInfoDir,
		FeatureInfoDir:         c.Compiler.FeatureInfoDir,
		AAROutDir:              c.Compiler.AAROutDir,
		ExportClassListOutFile: c.Compiler.ExportClassListOutFile,
		EnableDebugLogs:        isTrue(c.Compiler.EnableDebugLogs),
		IsTestVariant:          isTrue(c.Compiler.IsTestVariant),
		IsEnabledForTests:      isTrue(c.Compiler.IsEnabledForTests),
		EnableV2:               isTrue(c.Compiler.EnableV2),
	}
	if c.Compiler.DirectDependencyPackages != nil {
		encoded := "[" + strings.Join(c.Compiler.DirectDependencyPackages, ",") + "]"
		a.DirectDependencyPackages = &encoded
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
