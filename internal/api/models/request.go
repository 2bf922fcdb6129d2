package models

import "lotsizing/internal/analysis"

// ParserOptions override the legacy file layout for one request.
type ParserOptions struct {
	BlockSize int  `json:"block_size,omitempty"`
	SkipLines *int `json:"skip_lines,omitempty"`
}

// SolveOptions tune one solve; zero values fall back to the server config.
type SolveOptions struct {
	Solver       string   `json:"solver,omitempty"` // "builtin" or "cbc"
	TimeLimitSec float64  `json:"time_limit_sec,omitempty"`
	UnitProdCost *float64 `json:"unit_prod_cost,omitempty"`
	MaxNodes     int      `json:"max_nodes,omitempty"`
	// IncludeValues adds the raw variable assignment to the response.
	IncludeValues bool `json:"include_values,omitempty"`
}

// CreateInstanceRequest is the body of POST /api/v1/instances
type CreateInstanceRequest struct {
	Name   string        `json:"name,omitempty"`
	Text   string        `json:"text" binding:"required"`
	Parser ParserOptions `json:"parser,omitempty"`
}

// SolveRequest is the body of POST /api/v1/solve
type SolveRequest struct {
	Name    string        `json:"name,omitempty"`
	Text    string        `json:"text" binding:"required"`
	Parser  ParserOptions `json:"parser,omitempty"`
	Options SolveOptions  `json:"options,omitempty"`
}

// AggregateRequest is the body of POST /api/v1/aggregate
type AggregateRequest struct {
	Records   []analysis.Record `json:"records" binding:"required"`
	Pattern   string            `json:"pattern,omitempty"`
	Precision int32             `json:"precision,omitempty"`
}
