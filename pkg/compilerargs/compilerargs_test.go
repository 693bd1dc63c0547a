package compilerargs

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func appArgs() *Arguments {
	return &Arguments{
		Incremental:            true,
		ArtifactType:           Application,
		ModulePackage:          "com.example",
		MinAPI:                 21,
		SDKDir:                 "/sdk",
		DependencyArtifactsDir: "/build/deps",
		LayoutInfoDir:          "/build/info",
		ClassLogDir:            "/build/logs",
		EnableV2:               true,
	}
}

func TestToMapFromOptionsRoundTrip(t *testing.T) {
	pkgs := "[com.a,com.b]"
	lib := &Arguments{
		ArtifactType:           Library,
		ModulePackage:          "com.lib",
		MinAPI:                 16,
		SDKDir:                 "/sdk",
		DependencyArtifactsDir: "/deps",
		LayoutInfoDir:          "/info",
		AAROutDir:              "/aar",
		ExportClassListOutFile: "/classes.txt",
		EnableDebugLogs:        true,
		EnableV2:               true,
		DirectDependencyPackages: &pkgs,
	}

	for _, a := range []*Arguments{appArgs(), lib} {
		t.Run(string(a.ArtifactType), func(t *testing.T) {
			got, err := FromOptions(a.ToMap())
			if err != nil {
				t.Fatalf("FromOptions() error = %v", err)
			}
			if diff := cmp.Diff(a, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToMapEncoding(t *testing.T) {
	m := appArgs().ToMap()

	if m[ParamIncremental] != "1" || m[ParamEnableDebugLogs] != "0" {
		t.Errorf("booleans should encode as 1/0, got incremental=%q debug=%q",
			m[ParamIncremental], m[ParamEnableDebugLogs])
	}
	if m[ParamMinAPI] != "21" {
		t.Errorf("minApi = %q, want 21", m[ParamMinAPI])
	}
	for _, k := range []string{ParamAAROutDir, ParamFeatureInfoDir, ParamDirectDependencyPkgs} {
		if _, ok := m[k]; ok {
			t.Errorf("unset option %s should be omitted", k)
		}
	}
	for k := range m {
		found := false
		for _, p := range AllParams {
			if p == k {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("ToMap emitted unknown key %s", k)
		}
	}
}

func TestFromOptionsLegacyKeys(t *testing.T) {
	options := map[string]string{
		ParamArtifactType:                 "library",
		ParamModulePackage:                "com.lib",
		ParamMinAPI:                       " 19 ",
		ParamSDKDir:                       "/sdk",
		legacyParamDependencyArtifactsDir: "/legacy/deps",
		legacyParamLayoutInfoDir:          "/legacy/info",
		legacyParamAAROutDir:              "/legacy/aar",
		legacyParamExportClassListOutFile: "/legacy/classes",
	}

	a, err := FromOptions(options)
	if err != nil {
		t.Fatalf("FromOptions() error = %v", err)
	}
	if a.DependencyArtifactsDir != "/legacy/deps" || a.LayoutInfoDir != "/legacy/info" {
		t.Errorf("legacy dirs not honored: %+v", a)
	}
	if a.AAROutDir != "/legacy/aar" || a.ExportClassListOutFile != "/legacy/classes" {
		t.Errorf("legacy library outputs not honored: %+v", a)
	}
	if a.MinAPI != 19 || !a.IsLibrary() {
		t.Errorf("MinAPI = %d, IsLibrary = %v", a.MinAPI, a.IsLibrary())
	}
	if a.ClassLogDir != "" {
		t.Errorf("ClassLogDir = %q, want empty when absent", a.ClassLogDir)
	}

	options[ParamDependencyArtifactsDir] = "/current/deps"
	a, err = FromOptions(options)
	if err != nil {
		t.Fatal(err)
	}
	if a.DependencyArtifactsDir != "/current/deps" {
		t.Errorf("current key should win over legacy, got %q", a.DependencyArtifactsDir)
	}
}

func TestFromOptionsMissing(t *testing.T) {
	_, err := FromOptions(map[string]string{ParamArtifactType: "APPLICATION"})
	if !errors.Is(err, ErrMissingOption) {
		t.Fatalf("FromOptions() error = %v, want ErrMissingOption", err)
	}
}

func TestFromOptionsBadValues(t *testing.T) {
	base := appArgs().ToMap()

	badType := cloneMap(base)
	badType[ParamArtifactType] = "PLUGIN"
	if _, err := FromOptions(badType); !errors.Is(err, ErrInvalid) {
		t.Errorf("unknown artifact type: error = %v, want ErrInvalid", err)
	}

	badAPI := cloneMap(base)
	badAPI[ParamMinAPI] = "twenty"
	if _, err := FromOptions(badAPI); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad minApi: error = %v, want ErrInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Arguments)
		wantErr bool
	}{
		{name: "valid app", mutate: func(*Arguments) {}},
		{name: "incremental requires v2", mutate: func(a *Arguments) { a.EnableV2 = false }, wantErr: true},
		{name: "v1 non-incremental", mutate: func(a *Arguments) { a.EnableV2 = false; a.Incremental = false }},
		{name: "feature without info dir", mutate: func(a *Arguments) { a.ArtifactType = Feature }, wantErr: true},
		{name: "feature with info dir", mutate: func(a *Arguments) { a.ArtifactType = Feature; a.FeatureInfoDir = "/f" }},
		{name: "library without outputs", mutate: func(a *Arguments) { a.ArtifactType = Library }, wantErr: true},
		{name: "library test variant", mutate: func(a *Arguments) { a.ArtifactType = Library; a.IsTestVariant = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := appArgs()
			tt.mutate(a)
			err := a.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestCopyAsV1(t *testing.T) {
	a := appArgs()
	v1, err := a.CopyAsV1("com.legacy")
	if err != nil {
		t.Fatalf("CopyAsV1() error = %v", err)
	}
	if v1.Incremental || v1.EnableV2 || v1.ModulePackage != "com.legacy" {
		t.Errorf("CopyAsV1() = %+v, want non-incremental V1 for com.legacy", v1)
	}
	if v1.LayoutInfoDir != a.LayoutInfoDir || v1.MinAPI != a.MinAPI {
		t.Error("CopyAsV1 should keep the other settings")
	}
	if !a.Incremental || a.ModulePackage != "com.example" {
		t.Error("CopyAsV1 must not modify the receiver")
	}
}

func TestParseDirectDependencyPackages(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name string
		raw  *string
		want []string
	}{
		{name: "unset", raw: nil, want: nil},
		{name: "empty brackets", raw: str("[]"), want: []string{}},
		{name: "bracketed", raw: str("[com.b,com.a]"), want: []string{"com.a", "com.b"}},
		{name: "bare with spaces", raw: str("com.a, com.c ,com.a"), want: []string{"com.a", "com.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Arguments{DirectDependencyPackages: tt.raw}
			got := a.ParseDirectDependencyPackages()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseDirectDependencyPackages() = %#v, want %#v", got, tt.want)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArtifactType(t *testing.T) {
	if got, err := ParseArtifactType(" feature "); err != nil || got != Feature {
		t.Errorf("ParseArtifactType(feature) = %q, %v", got, err)
	}
	if _, err := ParseArtifactType(""); err == nil {
		t.Error("ParseArtifactType(\"\") expected error")
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
