package dto

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// EntityResponse wraps one entity under its singular resource key together
// with a confirmation message: { "<key>": entity, "message": "..." }.
func EntityResponse(key string, entity interface{}, message string) map[string]interface{} {
	return map[string]interface{}{
		key:       entity,
		"message": message,
	}
}

// TotalResponse is returned by the /total endpoints.
type TotalResponse struct {
	Total int `json:"total"`
}

// ImportResult summarises a spreadsheet import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
