// Package report prints user-facing progress: info, warning and fatal
// messages, one line per step and the end-of-run summary.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/validation"
)

// Reporter writes plain text, colorized only when enabled.
type Reporter struct {
	out    io.Writer
	errOut io.Writer
	color  bool
	exit   func(int)
	st     styles
}

// Option customises a Reporter.
type Option func(*Reporter)

// WithColor forces color on or off.
func WithColor(enabled bool) Option {
	return func(r *Reporter) {
		r.color = enabled
	}
}

// WithExit replaces os.Exit for Die.
func WithExit(fn func(int)) Option {
	return func(r *Reporter) {
		r.exit = fn
	}
}

// New returns a Reporter writing progress to out and problems to errOut.
// Color defaults to on when out is a terminal.
func New(out, errOut io.Writer, opts ...Option) *Reporter {
	r := &Reporter{out: out, errOut: errOut, color: IsTerminal(out), exit: os.Exit}
	for _, opt := range opts {
		opt(r)
	}
	r.st = colorStyles()
	return r
}

func (r *Reporter) paint(style lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return style.Render(text)
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Info prints a progress message.
func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintf(r.out, "%s %s\n", r.paint(r.st.info, "==>"), fmt.Sprintf(format, args...))
}

// Warn prints a non-fatal problem.
func (r *Reporter) Warn(format string, args ...any) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.paint(r.st.warn, "warning:"), fmt.Sprintf(format, args...))
}

// Die prints err and terminates with status 1.
func (r *Reporter) Die(err error) {
	fmt.Fprintf(r.errOut, "%s %v\n", r.paint(r.st.fatal, "error:"), err)
	r.exit(1)
}

// Step prints the outcome line for one step, followed by its diff on dry runs.
func (r *Reporter) Step(res model.StepResult) {
	label := r.status(res.Status)
	line := fmt.Sprintf("%s %s", label, res.Name)
	if res.Message != "" {
		line += ": " + res.Message
	}
	if res.Error != nil {
		line += " (" + res.Error.Error() + ")"
	}
	fmt.Fprintln(r.out, line)

	if res.Diff != "" {
		for _, l := range strings.Split(strings.TrimRight(res.Diff, "\n"), "\n") {
			fmt.Fprintln(r.out, r.paint(r.st.diff, "      "+l))
		}
	}
}

func (r *Reporter) status(status string) string {
	switch status {
	case model.StatusApplied:
		return r.paint(r.st.applied, "[applied]    ")
	case model.StatusSkipped:
		return r.paint(r.st.skipped, "[ok]         ")
	case model.StatusWouldApply:
		return r.paint(r.st.pending, "[would apply]")
	case model.StatusFailed:
		return r.paint(r.st.failed, "[failed]     ")
	default:
		return fmt.Sprintf("[%s]", status)
	}
}

// Summary prints the run totals, failed steps and follow-up reminders.
func (r *Reporter) Summary(run *model.RunResult, followups []string) {
	fmt.Fprintln(r.out)
	title := "Summary"
	if run.DryRun {
		title = "Summary (dry run, nothing was changed)"
	}
	fmt.Fprintln(r.out, r.paint(r.st.title, title))

	counts := []string{
		fmt.Sprintf("%d applied", run.Count(model.StatusApplied)),
		fmt.Sprintf("%d already done", run.Count(model.StatusSkipped)),
	}
	if n := run.Count(model.StatusWouldApply); n > 0 {
		counts = append(counts, fmt.Sprintf("%d would apply", n))
	}
	counts = append(counts, fmt.Sprintf("%d failed", run.Count(model.StatusFailed)))
	fmt.Fprintf(r.out, "  %s in %s\n", strings.Join(counts, ", "), run.Duration.Round(time.Millisecond))

	for _, s := range run.Steps {
		if s.Status == model.StatusFailed {
			fmt.Fprintf(r.out, "  %s %s: %v\n", r.paint(r.st.failed, "failed"), s.StepID, s.Error)
		}
	}
	if run.Aborted() {
		fmt.Fprintf(r.out, "  %s at %s\n", r.paint(r.st.fatal, "aborted"), run.FatalID)
	}

	if len(followups) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.paint(r.st.title, "Next steps"))
	for i, f := range followups {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, f)
	}
}

// Verification prints one line per probed step and the totals.
func (r *Reporter) Verification(summary *model.VerificationSummary) {
	for _, res := range summary.Results {
		var label string
		switch {
		case res.Error != nil:
			label = r.paint(r.st.failed, "[error]  ")
		case res.Satisfied:
			label = r.paint(r.st.applied, "[ok]     ")
		default:
			label = r.paint(r.st.pending, "[missing]")
		}
		fmt.Fprintf(r.out, "%s %s: %s\n", label, res.Name, res.Message)
	}
	fmt.Fprintf(r.out, "\n%d satisfied, %d missing, %d errored\n", summary.Satisfied, summary.Missing, summary.Errored)
}

// Validations prints post-run checks. Failures are warnings.
func (r *Reporter) Validations(results []validation.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.paint(r.st.title, "Checks"))
	for _, res := range results {
		if res.Passed {
			fmt.Fprintf(r.out, "  %s %s\n", r.paint(r.st.applied, "ok  "), res.Describe())
			continue
		}
		r.Warn("check %s failed: %s", res.Describe(), res.Message)
	}
}
