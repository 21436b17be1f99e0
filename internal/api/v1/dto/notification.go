package dto

// ErrorResponseDTO is returned for every failed invocation.
type ErrorResponseDTO struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// HealthResponseDTO is returned by the liveness endpoint.
type HealthResponseDTO struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
