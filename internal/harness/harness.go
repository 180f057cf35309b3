// Package harness runs validation scenarios against the scheduling
// pipeline. A scenario describes a design, a number of seeded runs, and
// the invariants every run must satisfy; the harness builds a full session
// per run and evaluates each assertion against the built schedule.
package harness

import (
	"fmt"
	"log/slog"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/session"
)

// Result summarizes one harness execution.
type Result struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Runs     int      `json:"runs"`
	Errors   []string `json:"errors,omitempty"`
}

// Run executes every run of a scenario and collects assertion failures.
// Run i uses seed Seed+i so runs are independent but reproducible. A
// design that fails validation is an error, not an assertion failure.
func Run(sc *Scenario) (*Result, error) {
	spec := sc.Design.Apply(design.Default())
	if verrs := spec.Validate(); len(verrs) > 0 {
		return nil, fmt.Errorf("scenario %q design invalid: %s", sc.Name, design.FormatValidationErrors(verrs))
	}

	result := &Result{Scenario: sc.Name, Runs: sc.Runs}
	for run := 0; run < sc.Runs; run++ {
		src := rand.NewPCG(sc.Seed + uint64(run))
		sess, err := session.New(spec, src,
			session.WithID(fmt.Sprintf("%s-run-%d", sc.Name, run)))
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("run %d: build session: %v", run, err))
			continue
		}
		for _, failure := range EvaluateAssertions(sess, spec, sc.Assertions, src) {
			result.Errors = append(result.Errors, fmt.Sprintf("run %d: %s", run, failure))
		}
	}
	result.Pass = len(result.Errors) == 0

	slog.Debug("scenario evaluated",
		"scenario", sc.Name,
		"runs", sc.Runs,
		"pass", result.Pass,
		"failures", len(result.Errors),
	)
	return result, nil
}

// RunFile loads a scenario from disk and runs it.
func RunFile(path string) (*Result, error) {
	sc, err := LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return Run(sc)
}
