package version

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"
)

// Info captures a toolchain version installed on the system.
type Info struct {
	Name    string
	Version string
}

// Probe describes how to ask a tool for its version.
type Probe struct {
	Args  []string
	Regex *regexp.Regexp
}

var genericRegex = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// Probes knows the version flags of the tools the pipeline drives. Tools not
// listed are probed with --version.
var Probes = map[string]Probe{
	"iverilog": {Args: []string{"-V"}, Regex: regexp.MustCompile(`(?i)icarus verilog version\s+(\d+\.\d+(?:\.\d+)?)`)},
	"vvp":      {Args: []string{"-V"}, Regex: regexp.MustCompile(`(?i)icarus verilog runtime version\s+(\d+\.\d+(?:\.\d+)?)`)},
	"gcc":      {Args: []string{"-dumpfullversion"}, Regex: genericRegex},
	"g++":      {Args: []string{"-dumpfullversion"}, Regex: genericRegex},
	"make":     {Args: []string{"--version"}, Regex: regexp.MustCompile(`(?i)make\s+(\d+\.\d+(?:\.\d+)?)`)},
}

// Detect runs the tool's version probe and extracts the version.
func Detect(name string) (Info, error) {
	probe, ok := Probes[name]
	if !ok {
		probe = Probe{Args: []string{"--version"}, Regex: genericRegex}
	}
	out, err := runCommand(name, probe.Args...)
	if err != nil {
		return Info{}, err
	}
	match := probe.Regex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse %s version from %q", name, firstLine(out))
	}
	return Info{Name: name, Version: match[1]}, nil
}

// Warnings compares detected versions with the expected major.minor per tool.
// Tools are checked in name order so the output is stable.
func Warnings(expected map[string]string) []string {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	var warnings []string
	for _, name := range names {
		required := strings.TrimSpace(expected[name])
		if required == "" {
			continue
		}
		info, err := Detect(name)
		if msg := buildWarning(name, required, info.Version, err); msg != "" {
			warnings = append(warnings, msg)
		}
	}
	return warnings
}

func buildWarning(name, required, actual string, detectErr error) string {
	if detectErr != nil {
		if Missing(detectErr) {
			return fmt.Sprintf("%s executable not found; required %s", name, required)
		}
		return fmt.Sprintf("unable to detect %s version: %v", name, detectErr)
	}
	if !CompareMajorMinor(required, actual) {
		return fmt.Sprintf("%s version mismatch: required %s but found %s", name, required, actual)
	}
	return ""
}

func runCommand(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	// iverilog -V exits 1 after printing its banner, so output wins over status.
	err := cmd.Run()
	out := strings.TrimSpace(buf.String())
	if err != nil && (out == "" || errors.Is(err, exec.ErrNotFound)) {
		return "", err
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// CompareMajorMinor compares major.minor portions of two semver-like versions.
func CompareMajorMinor(desired, actual string) bool {
	d := semverPrefix(desired)
	a := semverPrefix(actual)
	if d == "" || a == "" {
		return false
	}
	return strings.EqualFold(d, a)
}

func semverPrefix(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
