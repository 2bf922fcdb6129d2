package model

// Status is the terminal state of one solve.
// Keep these values stable; they are written to the report CSV.
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusNoSolution Status = "NO_SOLUTION"
	StatusError      Status = "ERROR"
)

// HasSolution reports whether a status can carry a feasible assignment.
func (s Status) HasSolution() bool {
	switch s {
	case StatusOptimal, StatusFeasible:
		return true
	default:
		return false
	}
}

// ParseStatus maps a report string back to a Status. Unknown strings map to StatusError.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusOptimal, StatusFeasible, StatusInfeasible, StatusNoSolution, StatusError:
		return Status(s)
	default:
		return StatusError
	}
}
