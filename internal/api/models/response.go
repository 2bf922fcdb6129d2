package models

import (
	"time"

	"lotsizing/internal/analysis"
	"lotsizing/internal/formulation"
)

// InstanceResponse summarizes a parsed instance
type InstanceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NProd       int       `json:"n_prod"`
	NPer        int       `json:"n_per"`
	Capacity    float64   `json:"capacity"`
	DemandTotal float64   `json:"demand_total"`
	Warnings    []string  `json:"warnings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// FormulationResponse describes the model built for an instance
type FormulationResponse struct {
	ID    string            `json:"id"`
	Stats formulation.Stats `json:"stats"`
	BigM  [][]float64       `json:"big_m"`
}

// SolveResponse carries the KPI record of one solve
type SolveResponse struct {
	ID         string             `json:"id,omitempty"`
	Solver     string             `json:"solver"`
	Record     analysis.Record    `json:"record"`
	Objective  *float64           `json:"objective,omitempty"`
	Nodes      int                `json:"nodes"`
	Violations []string           `json:"violations,omitempty"`
	Values     map[string]float64 `json:"values,omitempty"` // non-zero columns only
}

// SolverInfo describes an available optimizer
type SolverInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// ClearInstancesResponse reports how many cached instances were dropped
type ClearInstancesResponse struct {
	Cleared int `json:"cleared"`
}

// AggregateResponse holds family averages
type AggregateResponse struct {
	Averages []analysis.GroupAverage `json:"averages"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
