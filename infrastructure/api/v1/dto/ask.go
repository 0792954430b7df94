// Package dto holds the JSON request and response shapes of the v1 API.
package dto

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// SourceSchema is one grounding source in an answer, in retrieval order.
type SourceSchema struct {
	County     string  `json:"county"`
	State      string  `json:"state"`
	IsHighRisk bool    `json:"is_high_risk"`
	Similarity float64 `json:"similarity"`
}

// AskResponse is the body of a successful ask.
type AskResponse struct {
	Answer  string         `json:"answer"`
	Sources []SourceSchema `json:"sources"`
}

// HealthResponse reports the service lifecycle state.
type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
