package genout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathFor(t *testing.T) {
	w := NewDirWriter("/gen")

	tests := []struct {
		name    string
		class   string
		want    string
		wantErr bool
	}{
		{name: "nested package", class: "com.example.databinding.ItemRowBinding", want: filepath.FromSlash("/gen/com/example/databinding/ItemRowBinding.java")},
		{name: "default package", class: "ItemRowBinding", want: filepath.FromSlash("/gen/ItemRowBinding.java")},
		{name: "empty", class: "", wantErr: true},
		{name: "trailing dot", class: "com.example.", wantErr: true},
		{name: "double dot", class: "com..Item", wantErr: true},
		{name: "path separator", class: "com/evil.Item", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.PathFor(tt.class)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathFor(%q) error = %v, wantErr %v", tt.class, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PathFor(%q) = %q, want %q", tt.class, got, tt.want)
			}
		})
	}
}

func TestDeleteFile(t *testing.T) {
	root := t.TempDir()
	w := NewDirWriter(root)

	path, err := w.PathFor("com.example.ItemRowBinding")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("class ItemRowBinding {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := w.DeleteFile("com.example.ItemRowBinding"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be deleted")
	}

	if err := w.DeleteFile("com.example.NeverGenerated"); err != nil {
		t.Errorf("DeleteFile() on missing file error = %v, want nil", err)
	}

	if got := w.Deleted(); len(got) != 1 || got[0] != path {
		t.Errorf("Deleted() = %v, want [%s]", got, path)
	}
}
