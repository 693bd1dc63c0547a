package watch

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_Ready(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Writer: &buf})

	logger.Ready(12, []string{"**/*.xml"}, "/build/info")

	output := buf.String()
	for _, want := range []string{"12 layout-info files", "/build/info", "**/*.xml", "ready"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
}

func TestLogger_FileChanged(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(Config{Writer: &buf}).FileChanged("a.xml", ChangeAdded)
	if buf.Len() != 0 {
		t.Errorf("non-verbose text output should skip file events: %s", buf.String())
	}

	buf.Reset()
	NewLogger(Config{Writer: &buf, Verbose: true, NoColor: true}).FileChanged("a.xml", ChangeDeleted)
	if !strings.Contains(buf.String(), "- a.xml") {
		t.Errorf("expected '- a.xml' in output: %s", buf.String())
	}
}

func TestLogger_Planned(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Writer: &buf, Verbose: true, NoColor: true})

	logger.Planned(PlanSummary{})
	if !strings.Contains(buf.String(), "up to date") {
		t.Errorf("empty plan should report up to date: %s", buf.String())
	}

	buf.Reset()
	logger.Planned(PlanSummary{
		InvalidOutputs:     []string{"item_row", "page_detail"},
		FilesToConsider:    3,
		InvalidatedClasses: []string{"com.example.databinding.ItemRowBinding"},
		UpdatedDeps:        []string{"lib_header"},
	})
	output := buf.String()
	for _, want := range []string{"2 outputs", "3 files", "~ item_row", "- com.example.databinding.ItemRowBinding", "lib_header"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
	if plans, _ := logger.Counts(); plans != 2 {
		t.Errorf("plans = %d, want 2", plans)
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Writer: &buf, JSON: true})

	logger.Planning([]string{"a.xml"})
	logger.Planned(PlanSummary{InvalidOutputs: []string{"a"}, FilesToConsider: 1})
	logger.Error(errors.New("boom"))
	logger.Shutdown()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 JSON lines, got %d: %s", len(lines), buf.String())
	}

	wantEvents := []string{"planning", "planned", "error", "shutdown"}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if event["event"] != wantEvents[i] {
			t.Errorf("line %d event = %v, want %s", i, event["event"], wantEvents[i])
		}
	}

	var planned struct {
		Plan PlanSummary `json:"plan"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &planned); err != nil {
		t.Fatal(err)
	}
	if len(planned.Plan.InvalidOutputs) != 1 || planned.Plan.InvalidOutputs[0] != "a" {
		t.Errorf("planned event carries %+v", planned.Plan)
	}
}

func TestLogger_ColorizeNonTTY(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Writer: &buf})
	if got := logger.paint("+", ChangeAdded); got != "+" {
		t.Errorf("paint() on a non-TTY writer = %q, want plain", got)
	}
}

func TestLogger_ShutdownText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Writer: &buf, NoColor: true})
	logger.Error(errors.New("boom"))
	logger.Shutdown()

	if !strings.Contains(buf.String(), "0 plans, 1 errors") {
		t.Errorf("unexpected shutdown output: %s", buf.String())
	}
}
