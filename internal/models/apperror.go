package models

import "time"

// ErrorType classifies a captured failure
type ErrorType string

const (
	ErrorNetwork        ErrorType = "network"
	ErrorStorage        ErrorType = "storage"
	ErrorValidation     ErrorType = "validation"
	ErrorSync           ErrorType = "sync"
	ErrorAuthentication ErrorType = "authentication"
	ErrorPermission     ErrorType = "permission"
	ErrorUnknown        ErrorType = "unknown"
)

// AppError is one row of the diagnostic error log
type AppError struct {
	ID         string         `json:"id"`
	ErrorType  ErrorType      `json:"errorType"`
	ErrorCode  string         `json:"errorCode"`
	Message    string         `json:"message"`
	Context    map[string]any `json:"context,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	DeviceID   string         `json:"deviceId"`
	AppVersion string         `json:"appVersion,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Resolved   bool           `json:"resolved"`
}
