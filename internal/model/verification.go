package model

import "time"

// VerificationResult captures the probe outcome of a single step.
type VerificationResult struct {
	StepID    string
	Name      string
	Satisfied bool
	Message   string
	Error     error
	Duration  time.Duration
}

// VerificationSummary aggregates probe outcomes for a verify run.
type VerificationSummary struct {
	TotalSteps int
	Satisfied  int
	Missing    int
	Errored    int
	Results    []VerificationResult
	Duration   time.Duration
}

// Add records a verification result and updates the counters.
func (s *VerificationSummary) Add(res VerificationResult) {
	s.TotalSteps++
	switch {
	case res.Error != nil:
		s.Errored++
	case res.Satisfied:
		s.Satisfied++
	default:
		s.Missing++
	}
	s.Results = append(s.Results, res)
}

// AllSatisfied reports whether every probed step is already satisfied.
func (s *VerificationSummary) AllSatisfied() bool {
	return s.Satisfied == s.TotalSteps
}

// ExitCode returns 0 when nothing needs applying, 1 otherwise.
func (s *VerificationSummary) ExitCode() int {
	if s.AllSatisfied() {
		return 0
	}
	return 1
}
