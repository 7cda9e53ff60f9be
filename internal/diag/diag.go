// Package diag collects diagnostics produced while instrumenting or specializing sources.
package diag

import (
	"fmt"
	"go/token"
	"io"
	"sync"

	"github.com/sirkon/jumbotrace/internal/codes"
)

// Reporter collects diagnostics. Safe for concurrent use.
type Reporter struct {
	mu      sync.Mutex
	reports []Report
}

// Report represents a single diagnostic entry.
type Report struct {
	Phase   Phase
	Code    codes.Code
	Pos     token.Position
	Message string
}

func (r Report) String() string {
	pos := "-"
	if r.Pos.IsValid() {
		pos = r.Pos.String()
	}
	return fmt.Sprintf("%s: [%s] %s: %s", pos, r.Phase, r.Code, r.Message)
}

// Phase marks the stage where a report was generated.
type Phase int

const (
	phaseInvalid Phase = iota
	PhaseLoad          // package loading
	PhaseInstrument    // probe insertion
	PhaseSpecialize    // method specialization
)

func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "load"
	case PhaseInstrument:
		return "instrument"
	case PhaseSpecialize:
		return "specialize"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// PhaseReporter binds a Reporter to a fixed phase.
type PhaseReporter struct {
	parent *Reporter
	phase  Phase
}

// Phase returns a reporter that sets the given phase for all reports produced through it.
func (r *Reporter) Phase(p Phase) *PhaseReporter {
	return &PhaseReporter{parent: r, phase: p}
}

// Report adds a new record.
func (r *Reporter) Report(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

// Report records a diagnostic under the bound phase. An empty message
// is replaced with the code description.
func (rp *PhaseReporter) Report(code codes.Code, message string, pos token.Position) {
	if message == "" {
		message = code.Description()
	}
	rp.parent.Report(Report{
		Phase:   rp.phase,
		Code:    code,
		Message: message,
		Pos:     pos,
	})
}

// Reports returns a snapshot of all collected records.
func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// HasFatal reports whether any fatal diagnostic was collected.
func (r *Reporter) HasFatal() bool {
	for _, rep := range r.Reports() {
		if rep.Code.Fatal() {
			return true
		}
	}
	return false
}

// PrintSummary writes all collected reports one per line.
func (r *Reporter) PrintSummary(w io.Writer) error {
	for _, rep := range r.Reports() {
		if _, err := fmt.Fprintln(w, rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}
