package version

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestSemverPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.0", "12.0"},
		{"11.4.0", "11.4"},
		{"", ""},
		{"1", ""},
	}
	for _, c := range cases {
		if got := semverPrefix(c.in); got != c.want {
			t.Fatalf("semverPrefix(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCompareMajorMinor(t *testing.T) {
	tests := []struct {
		desired string
		actual  string
		match   bool
	}{
		{"12.0", "12.0", true},
		{"11.4", "11.4.0", true},
		{"11.4", "13.2.0", false},
		{"", "12.0", false},
		{"12.0", "", false},
	}
	for _, tt := range tests {
		if got := CompareMajorMinor(tt.desired, tt.actual); got != tt.match {
			t.Fatalf("CompareMajorMinor(%q,%q)=%v want %v", tt.desired, tt.actual, got, tt.match)
		}
	}
}

func TestProbeRegexes(t *testing.T) {
	cases := []struct {
		tool   string
		output string
		want   string
	}{
		{"iverilog", "Icarus Verilog version 12.0 (stable) ()\n\nCopyright 1998-2020 Stephen Williams", "12.0"},
		{"vvp", "Icarus Verilog runtime version 11.0 (stable) ()", "11.0"},
		{"make", "GNU Make 4.3\nBuilt for x86_64-pc-linux-gnu", "4.3"},
		{"gcc", "13.2.0", "13.2.0"},
	}
	for _, c := range cases {
		match := Probes[c.tool].Regex.FindStringSubmatch(c.output)
		if len(match) < 2 || match[1] != c.want {
			t.Fatalf("%s: expected %q from %q, got %v", c.tool, c.want, c.output, match)
		}
	}
}

func TestBuildWarning(t *testing.T) {
	notFound := &exec.Error{Name: "iverilog", Err: exec.ErrNotFound}
	if msg := buildWarning("iverilog", "12.0", "", notFound); !strings.Contains(msg, "not found") {
		t.Fatalf("expected not found warning, got %q", msg)
	}
	if msg := buildWarning("iverilog", "12.0", "", errors.New("boom")); !strings.Contains(msg, "unable to detect") {
		t.Fatalf("expected detection warning, got %q", msg)
	}
	if msg := buildWarning("iverilog", "12.0", "11.0", nil); !strings.Contains(msg, "mismatch") {
		t.Fatalf("expected mismatch warning, got %q", msg)
	}
	if msg := buildWarning("iverilog", "12.0", "12.0", nil); msg != "" {
		t.Fatalf("expected no warning, got %q", msg)
	}
}

func TestWarningsMissingTool(t *testing.T) {
	warnings := Warnings(map[string]string{"definitely-not-a-real-tool-xyz": "1.0", "blank": ""})
	if len(warnings) != 1 || !strings.Contains(warnings[0], "not found") {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}
