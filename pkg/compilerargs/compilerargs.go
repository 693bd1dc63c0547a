// Package compilerargs carries build settings from the build system to the
// binding-class generator as a flat map of string options, the form in which
// annotation-processor style tools receive them.
package compilerargs

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a set of arguments is inconsistent.
var ErrInvalid = errors.New("invalid compiler arguments")

// ErrMissingOption is returned when a required option is absent.
var ErrMissingOption = errors.New("missing required option")

// ArtifactType is the kind of module being compiled.
type ArtifactType string

const (
	Application ArtifactType = "APPLICATION"
	Library     ArtifactType = "LIBRARY"
	Feature     ArtifactType = "FEATURE"
)

// ParseArtifactType parses an artifact type name, case-insensitively.
func ParseArtifactType(s string) (ArtifactType, error) {
	switch t := ArtifactType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Application, Library, Feature:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown artifact type %q", ErrInvalid, s)
}

const prefix = "android.databinding."

// Option keys.
const (
	ParamIncremental            = prefix + "incremental"
	ParamArtifactType           = prefix + "artifactType"
	ParamModulePackage          = prefix + "modulePackage"
	ParamMinAPI                 = prefix + "minApi"
	ParamSDKDir                 = prefix + "sdkDir"
	ParamDependencyArtifactsDir = prefix + "dependencyArtifactsDir"
	ParamLayoutInfoDir          = prefix + "layoutInfoDir"
	ParamClassLogDir            = prefix + "classLogDir"
	ParamBaseFeatureInfoDir     = prefix + "baseFeatureInfoDir"
	ParamFeatureInfoDir         = prefix + "featureInfoDir"
	ParamAAROutDir              = prefix + "aarOutDir"
	ParamExportClassListOutFile = prefix + "exportClassListOutFile"
	ParamEnableDebugLogs        = prefix + "enableDebugLogs"
	ParamPrintEncodedErrorLogs  = prefix + "printEncodedErrorLogs"
	ParamIsTestVariant          = prefix + "isTestVariant"
	ParamEnableForTests         = prefix + "enableForTests"
	ParamEnableV2               = prefix + "enableV2"
	ParamDirectDependencyPkgs   = prefix + "directDependencyPkgs"
)

// Legacy option keys still sent by older build integrations.
const (
	legacyParamDependencyArtifactsDir = prefix + "bindingBuildFolder"
	legacyParamLayoutInfoDir          = prefix + "xmlOutDir"
	legacyParamAAROutDir              = prefix + "generationalFileOutDir"
	legacyParamExportClassListOutFile = prefix + "exportClassListTo"
)

// AllParams lists every current option key, sorted.
var AllParams = func() []string {
	p := []string{
		ParamIncremental, ParamArtifactType, ParamModulePackage, ParamMinAPI,
		ParamSDKDir, ParamDependencyArtifactsDir, ParamLayoutInfoDir,
		ParamClassLogDir, ParamBaseFeatureInfoDir, ParamFeatureInfoDir,
		ParamAAROutDir, ParamExportClassListOutFile, ParamEnableDebugLogs,
		ParamPrintEncodedErrorLogs, ParamIsTestVariant, ParamEnableForTests,
		ParamEnableV2, ParamDirectDependencyPkgs,
	}
	slices.Sort(p)
	return p
}()

// Arguments are the generator settings. Optional directories are empty when
// unset.
type Arguments struct {
	Incremental   bool         `json:"incremental"`
	ArtifactType  ArtifactType `json:"artifact_type"`
	ModulePackage string       `json:"module_package"`
	MinAPI        int          `json:"min_api"`

	SDKDir                 string `json:"sdk_dir"`
	DependencyArtifactsDir string `json:"dependency_artifacts_dir"`
	LayoutInfoDir          string `json:"layout_info_dir"`
	ClassLogDir            string `json:"class_log_dir"`
	BaseFeatureInfoDir     string `json:"base_feature_info_dir,omitempty"`
	FeatureInfoDir         string `json:"feature_info_dir,omitempty"`
	AAROutDir              string `json:"aar_out_dir,omitempty"`
	ExportClassListOutFile string `json:"export_class_list_out_file,omitempty"`

	EnableDebugLogs       bool `json:"enable_debug_logs"`
	PrintEncodedErrorLogs bool `json:"print_encoded_error_logs"`
	IsTestVariant         bool `json:"is_test_variant"`
	IsEnabledForTests     bool `json:"is_enabled_for_tests"`
	EnableV2              bool `json:"enable_v2"`

	// DirectDependencyPackages is the raw "[pkg1,pkg2]" list. nil means
	// unspecified, which is distinct from an empty list.
	DirectDependencyPackages *string `json:"direct_dependency_packages,omitempty"`
}

// Validate checks the cross-field rules.
func (a *Arguments) Validate() error {
	var errs []error
	if a.Incremental && !a.EnableV2 {
		errs = append(errs, errors.New("incremental annotation processing requires data binding V2"))
	}
	if a.ArtifactType == Feature && a.FeatureInfoDir == "" {
		errs = append(errs, errors.New("a feature module needs a feature info folder"))
	}
	if a.ArtifactType == Library && !a.IsTestVariant && a.AAROutDir == "" {
		errs = append(errs, errors.New("a library module needs an aar out folder"))
	}
	if a.ArtifactType == Library && !a.IsTestVariant && a.ExportClassListOutFile == "" {
		errs = append(errs, errors.New("a library module needs an export class list file"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// IsApp reports whether the module is an application.
func (a *Arguments) IsApp() bool { return a.ArtifactType == Application }

// IsLibrary reports whether the module is a library.
func (a *Arguments) IsLibrary() bool { return a.ArtifactType == Library }

// IsFeature reports whether the module is a feature.
func (a *Arguments) IsFeature() bool { return a.ArtifactType == Feature }

// ParseDirectDependencyPackages returns the sorted, unique package list, or
// nil when the option was never set. An optional surrounding [] is stripped,
// so "[]" yields an empty, non-nil list.
func (a *Arguments) ParseDirectDependencyPackages() []string {
	if a.DirectDependencyPackages == nil {
		return nil
	}
	encoded := *a.DirectDependencyPackages
	if strings.HasPrefix(encoded, "[") && strings.HasSuffix(encoded, "]") && len(encoded) >= 2 {
		encoded = encoded[1 : len(encoded)-1]
	}
	pkgs := []string{}
	for _, p := range strings.Split(encoded, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pkgs = append(pkgs, p)
		}
	}
	slices.Sort(pkgs)
	return slices.Compact(pkgs)
}

// ToMap encodes the arguments as an option map. Booleans are "1" or "0".
func (a *Arguments) ToMap() map[string]string {
	m := map[string]string{
		ParamIncremental:            boolToString(a.Incremental),
		ParamArtifactType:           string(a.ArtifactType),
		ParamModulePackage:          a.ModulePackage,
		ParamMinAPI:                 strconv.Itoa(a.MinAPI),
		ParamSDKDir:                 a.SDKDir,
		ParamDependencyArtifactsDir: a.DependencyArtifactsDir,
		ParamLayoutInfoDir:          a.LayoutInfoDir,
		ParamClassLogDir:            a.ClassLogDir,
		ParamEnableDebugLogs:        boolToString(a.EnableDebugLogs),
		ParamPrintEncodedErrorLogs:  boolToString(a.PrintEncodedErrorLogs),
		ParamIsTestVariant:          boolToString(a.IsTestVariant),
		ParamEnableForTests:         boolToString(a.IsEnabledForTests),
		ParamEnableV2:               boolToString(a.EnableV2),
	}
	setIf := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	setIf(ParamBaseFeatureInfoDir, a.BaseFeatureInfoDir)
	setIf(ParamFeatureInfoDir, a.FeatureInfoDir)
	setIf(ParamAAROutDir, a.AAROutDir)
	setIf(ParamExportClassListOutFile, a.ExportClassListOutFile)
	if a.DirectDependencyPackages != nil {
		m[ParamDirectDependencyPkgs] = *a.DirectDependencyPackages
	}
	return m
}

// FromOptions decodes an option map and validates the result. Legacy keys
// are accepted when the current key is absent.
func FromOptions(options map[string]string) (*Arguments, error) {
	var missing []string
	required := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := options[k]; ok {
				return v
			}
		}
		missing = append(missing, keys[0])
		return ""
	}
	optional := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := options[k]; ok {
				return v
			}
		}
		return ""
	}

	artifactType := required(ParamArtifactType)
	modulePackage := required(ParamModulePackage)
	minAPI := required(ParamMinAPI)
	sdkDir := required(ParamSDKDir)
	depsDir := required(ParamDependencyArtifactsDir, legacyParamDependencyArtifactsDir)
	layoutDir := required(ParamLayoutInfoDir, legacyParamLayoutInfoDir)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingOption, strings.Join(missing, ", "))
	}

	// Not every build system passes a class log dir, so it is optional.
	a := &Arguments{
		Incremental:            stringToBool(options[ParamIncremental]),
		ModulePackage:          modulePackage,
		SDKDir:                 sdkDir,
		DependencyArtifactsDir: depsDir,
		LayoutInfoDir:          layoutDir,
		ClassLogDir:            optional(ParamClassLogDir),
		BaseFeatureInfoDir:     optional(ParamBaseFeatureInfoDir),
		FeatureInfoDir:         optional(ParamFeatureInfoDir),
		AAROutDir:              optional(ParamAAROutDir, legacyParamAAROutDir),
		ExportClassListOutFile: optional(ParamExportClassListOutFile, legacyParamExportClassListOutFile),
		EnableDebugLogs:        stringToBool(options[ParamEnableDebugLogs]),
		PrintEncodedErrorLogs:  stringToBool(options[ParamPrintEncodedErrorLogs]),
		IsTestVariant:          stringToBool(options[ParamIsTestVariant]),
		IsEnabledForTests:      stringToBool(options[ParamEnableForTests]),
		EnableV2:               stringToBool(options[ParamEnableV2]),
	}

	t, err := ParseArtifactType(artifactType)
	if err != nil {
		return nil, err
	}
	a.ArtifactType = t

	a.MinAPI, err = strconv.Atoi(strings.TrimSpace(minAPI))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalid, ParamMinAPI, err)
	}

	// Rely on the value even if it is empty; only absence means unset.
	if v, ok := options[ParamDirectDependencyPkgs]; ok {
		a.DirectDependencyPackages = &v
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// CopyAsV1 returns a non-incremental V1 copy for modulePackage, used for the
// compatibility compilation of V1 dependencies.
func (a *Arguments) CopyAsV1(modulePackage string) (*Arguments, error) {
	options := a.ToMap()
	options[ParamIncremental] = boolToString(false)
	options[ParamModulePackage] = modulePackage
	options[ParamEnableV2] = boolToString(false)
	return FromOptions(options)
}

func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func stringToBool(s string) bool {
	return strings.TrimSpace(s) == "1"
}
