package runner

import (
	"strings"

	"github.com/llstack/rtlpipe/internal/discovery"
	"github.com/llstack/rtlpipe/internal/version"
)

// Preflight reports missing tools and toolchain version drift before any
// phase runs. Nothing here stops the pipeline: a missing tool surfaces again
// as the failure of the phase that needs it.
func (r *Runner) Preflight(tools []string, expected map[string]string) []string {
	var warnings []string
	missing := discovery.MissingTools(r.opts.Root, tools)
	for _, tool := range missing {
		warnings = append(warnings, "tool not found: "+tool)
	}
	if len(missing) > 0 {
		r.log.Warn("tools not found", "tools", strings.Join(missing, ","))
	}

	for _, msg := range version.Warnings(expected) {
		warnings = append(warnings, msg)
		r.log.Warn("toolchain check", "detail", msg)
	}
	return warnings
}
