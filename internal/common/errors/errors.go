// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Installment domain errors
const (
	ErrCodeInvalidAmount         ErrorCode = "INVALID_AMOUNT"
	ErrCodeUnverifiedIdentity    ErrorCode = "UNVERIFIED_IDENTITY"
	ErrCodeNameMismatch          ErrorCode = "NAME_MISMATCH"
	ErrCodeApplicationConflict   ErrorCode = "APPLICATION_CONFLICT"
	ErrCodeApplicationNotFound   ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeApproverNotAuthorized ErrorCode = "APPROVER_NOT_AUTHORIZED"
	ErrCodeSubmissionRateLimited ErrorCode = "SUBMISSION_RATE_LIMITED"
	ErrCodePaymentNotSuccessful  ErrorCode = "PAYMENT_NOT_SUCCESSFUL"
)

// Technical / collaborator errors
const (
	ErrCodeDatabaseOperationFailed    ErrorCode = "DATABASE_OPERATION_FAILED"
	ErrCodeIdentityServiceUnavailable ErrorCode = "IDENTITY_SERVICE_UNAVAILABLE"
	ErrCodePaymentGatewayError        ErrorCode = "PAYMENT_GATEWAY_ERROR"
	ErrCodeAuthorizationCheckFailed   ErrorCode = "AUTHORIZATION_CHECK_FAILED"
	ErrCodeInputParsingFailed         ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInternal                   ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidAmountError reports a non-positive total or an inconsistent plan.
func NewInvalidAmountError(details string) *StandardError {
	return newError(ErrCodeInvalidAmount, "Invalid installment amount", details, false)
}

// NewUnverifiedIdentityError reports an identity that could not be verified.
func NewUnverifiedIdentityError(details string) *StandardError {
	return newError(ErrCodeUnverifiedIdentity, "Applicant identity is not verified", details, false)
}

// NewNameMismatchError reports a submitted name that differs from the verified one.
func NewNameMismatchError(details string) *StandardError {
	return newError(ErrCodeNameMismatch, "Submitted name does not match verified identity", details, false)
}

// NewConflictError reports an illegal state transition or a lost race.
func NewConflictError(message, details string) *StandardError {
	return newError(ErrCodeApplicationConflict, message, details, false)
}

// NewNotFoundError reports an unknown application.
func NewNotFoundError(details string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found", details, false)
}

// NewValidationFailedError reports malformed job input.
func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

// NewApproverNotAuthorizedError reports an actor without the approver role.
func NewApproverNotAuthorizedError(adminID string) *StandardError {
	return newError(ErrCodeApproverNotAuthorized, "Actor is not an authorized approver",
		fmt.Sprintf("adminId: %s", adminID), false)
}

// NewSubmissionRateLimitedError reports too many submissions from one applicant.
func NewSubmissionRateLimitedError(details string) *StandardError {
	return newError(ErrCodeSubmissionRateLimited, "Too many installment applications", details, false)
}

// NewPaymentNotSuccessfulError reports a gateway transaction that did not settle.
func NewPaymentNotSuccessfulError(reference, details string) *StandardError {
	return newError(ErrCodePaymentNotSuccessful, "Payment was not successful",
		fmt.Sprintf("reference: %s, %s", reference, details), false)
}

// NewDatabaseOperationFailedError creates a retryable store error.
func NewDatabaseOperationFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseOperationFailed, "Database operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewIdentityServiceUnavailableError creates a retryable identity API error.
func NewIdentityServiceUnavailableError(err error) *StandardError {
	return newError(ErrCodeIdentityServiceUnavailable, "Identity verification service unavailable", err.Error(), true)
}

// NewPaymentGatewayError creates a retryable gateway error.
func NewPaymentGatewayError(err error) *StandardError {
	return newError(ErrCodePaymentGatewayError, "Payment gateway error", err.Error(), true)
}

// NewAuthorizationCheckFailedError creates a retryable approver directory error.
func NewAuthorizationCheckFailedError(err error) *StandardError {
	return newError(ErrCodeAuthorizationCheckFailed, "Approver authorization check failed", err.Error(), true)
}

// NewInputParsingFailedError reports job variables that are not valid JSON.
func NewInputParsingFailedError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err.Error(), false)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the installment process model.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidAmount:              "INVALID_AMOUNT",
	ErrCodeUnverifiedIdentity:         "UNVERIFIED_IDENTITY",
	ErrCodeNameMismatch:               "NAME_MISMATCH",
	ErrCodeApplicationConflict:        "APPLICATION_CONFLICT",
	ErrCodeApplicationNotFound:        "APPLICATION_NOT_FOUND",
	ErrCodeValidationFailed:           "VALIDATION_FAILED",
	ErrCodeApproverNotAuthorized:      "APPROVER_NOT_AUTHORIZED",
	ErrCodeSubmissionRateLimited:      "SUBMISSION_RATE_LIMITED",
	ErrCodePaymentNotSuccessful:       "PAYMENT_NOT_SUCCESSFUL",
	ErrCodeDatabaseOperationFailed:    "DATABASE_OPERATION_FAILED",
	ErrCodeIdentityServiceUnavailable: "IDENTITY_SERVICE_UNAVAILABLE",
	ErrCodePaymentGatewayError:        "PAYMENT_GATEWAY_ERROR",
	ErrCodeAuthorizationCheckFailed:   "AUTHORIZATION_CHECK_FAILED",
	ErrCodeInputParsingFailed:         "INPUT_PARSING_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseOperationFailed,
		ErrCodeAuthorizationCheckFailed,
		"EXTERNAL_SERVICE_ERROR":
		return 3

	case ErrCodeIdentityServiceUnavailable,
		ErrCodePaymentGatewayError,
		"TIMEOUT_ERROR":
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// CodeOf returns the error code of err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	if stdErr, ok := AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return string(ErrCodeInternal)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "IDENTITY") || strings.Contains(codeStr, "NAME"):
		return "IDENTITY"
	case strings.Contains(codeStr, "APPLICATION") || strings.Contains(codeStr, "APPROVER"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "PAYMENT"):
		return "PAYMENT"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "RATE"):
		return "THROTTLING"
	default:
		return "OTHER"
	}
}
