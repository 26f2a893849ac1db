package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// ClassifiedErrorResponse is the body written for invitation workflow
// failures. The UI uses CanRetry to enable or disable its retry affordance.
type ClassifiedErrorResponse struct {
	Kind            string `json:"kind"`
	Message         string `json:"message"`
	CanRetry        bool   `json:"canRetry"`
	SuggestedAction string `json:"suggestedAction"`
}
