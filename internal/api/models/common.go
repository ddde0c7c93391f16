// Package models defines the response types of the dnslens REST API. The
// API is read only, so everything here flows outward as JSON.
package models

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response.
type StatusResponse struct {
	Status string `json:"status"`
}
