package graph

import (
	"errors"
	"fmt"
	"math"
)

// ValidationSeverity indicates whether a validation finding blocks a
// transform or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks transforms
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding. Row and Col are -1
// for findings that concern the whole graph, and Col is -1 for findings
// about a single vertex.
type ValidationError struct {
	Row      int
	Col      int
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	switch {
	case e.Row < 0:
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	case e.Col < 0:
		return fmt.Sprintf("[%s] vertex %d: %s", e.Severity, e.Row, e.Message)
	default:
		return fmt.Sprintf("[%s] entry (%d, %d): %s", e.Severity, e.Row, e.Col, e.Message)
	}
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Err joins the blocking errors, or returns nil when there are none.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Validate checks an adjacency matrix before it is handed to a distance
// transformer. It never mutates the matrix.
func Validate(a *Adjacency) ValidationResult {
	var result ValidationResult
	if a == nil {
		result.Errors = append(result.Errors, ValidationError{
			Row: -1, Col: -1, Message: "adjacency matrix is nil", Severity: SeverityError,
		})
		return result
	}
	if a.n == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Row: -1, Col: -1, Message: "graph has no vertices", Severity: SeverityError,
		})
		return result
	}
	result.Errors = append(result.Errors, validateWeights(a)...)
	result.Warnings = append(result.Warnings, validateSelfLoops(a)...)
	result.Warnings = append(result.Warnings, validateIsolated(a)...)
	return result
}

// ValidateUndirected runs Validate and additionally warns about entries
// whose reverse entry is missing or carries a different weight. Such entries
// are merged by taking the minimum when the graph is treated as undirected.
func ValidateUndirected(a *Adjacency) ValidationResult {
	result := Validate(a)
	if len(result.Errors) > 0 {
		return result
	}
	for _, e := range a.Edges() {
		if e.From >= e.To {
			continue
		}
		back, ok := a.rows[e.To][e.From]
		if !ok {
			continue
		}
		if back != e.Weight {
			result.Warnings = append(result.Warnings, ValidationError{
				Row:      e.From,
				Col:      e.To,
				Message:  fmt.Sprintf("asymmetric weights %g and %g, using the minimum", e.Weight, back),
				Severity: SeverityWarning,
			})
		}
	}
	return result
}

// validateWeights rejects NaN and infinite stored weights.
func validateWeights(a *Adjacency) []ValidationError {
	var errs []ValidationError
	for _, e := range a.Edges() {
		switch {
		case math.IsNaN(e.Weight):
			errs = append(errs, ValidationError{
				Row: e.From, Col: e.To, Message: "weight is NaN", Severity: SeverityError,
			})
		case math.IsInf(e.Weight, 0):
			errs = append(errs, ValidationError{
				Row: e.From, Col: e.To, Message: "weight is infinite; leave absent edges unstored", Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateSelfLoops(a *Adjacency) []ValidationError {
	var warnings []ValidationError
	for i, r := range a.rows {
		if _, ok := r[i]; ok {
			warnings = append(warnings, ValidationError{
				Row: i, Col: i, Message: "self-loop is ignored by distance computations", Severity: SeverityWarning,
			})
		}
	}
	return warnings
}

// validateIsolated warns about vertices with no incident edge in either
// direction. Their rows in a distance matrix are +Inf off the diagonal.
func validateIsolated(a *Adjacency) []ValidationError {
	incident := make([]bool, a.n)
	for i, r := range a.rows {
		for j := range r {
			if i == j {
				continue
			}
			incident[i] = true
			incident[j] = true
		}
	}
	var warnings []ValidationError
	if a.n == 1 {
		return nil
	}
	for i, ok := range incident {
		if !ok {
			warnings = append(warnings, ValidationError{
				Row: i, Col: -1, Message: "vertex is isolated", Severity: SeverityWarning,
			})
		}
	}
	return warnings
}
