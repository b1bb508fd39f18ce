// Package errors provides the standardized error taxonomy shared by the HTTP API
// and the Zeebe job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAction      ErrorCode = "INVALID_ACTION"
	ErrCodeInvalidLookupValue ErrorCode = "INVALID_LOOKUP_VALUE"
	ErrCodeInvalidUnitCode    ErrorCode = "INVALID_UNIT_CODE"
	ErrCodeInvalidTracking    ErrorCode = "INVALID_TRACKING_NUMBER"

	ErrCodeDuplicateRequest ErrorCode = "DUPLICATE_REQUEST"
	ErrCodeAlreadyLinked    ErrorCode = "ALREADY_LINKED"

	ErrCodeInvalidRequestStatus ErrorCode = "INVALID_REQUEST_STATUS"
	ErrCodeRequestNotFound      ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeFranchiseeNotFound   ErrorCode = "FRANCHISEE_NOT_FOUND"

	ErrCodeDatabaseQueryFailed  ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeLookupTimeout        ErrorCode = "LOOKUP_TIMEOUT"
	ErrCodeSubmissionTimeout    ErrorCode = "SUBMISSION_TIMEOUT"
	ErrCodeExternalService      ErrorCode = "EXTERNAL_SERVICE_ERROR"

	ErrCodeProcessingFailed       ErrorCode = "PROCESSING_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
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

// WithMetadata sets a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// As extracts a StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
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

// NewValidationError reports a malformed or incomplete payload.
func NewValidationError(message, details string) *StandardError {
	return newError(ErrCodeValidationFailed, message, details, false)
}

func NewInvalidActionError(action string) *StandardError {
	return newError(ErrCodeInvalidAction, "Ação inválida", fmt.Sprintf("action: %s", action), false)
}

func NewInvalidLookupValueError(lookupType, details string) *StandardError {
	return newError(ErrCodeInvalidLookupValue, fmt.Sprintf("Valor inválido para consulta de %s", lookupType), details, false)
}

// NewInvalidUnitCodeError reports a group code absent from the legacy catalog.
func NewInvalidUnitCodeError(groupCode int) *StandardError {
	return newError(ErrCodeInvalidUnitCode,
		"Código de unidade inválido. Selecione uma unidade válida da lista de sugestões.",
		fmt.Sprintf("groupCode: %d", groupCode), false).
		WithMetadata("groupCode", groupCode)
}

func NewInvalidTrackingNumberError(value string) *StandardError {
	return newError(ErrCodeInvalidTracking, "Número de acompanhamento inválido", fmt.Sprintf("trackingNumber: %s", value), false)
}

// NewDuplicateRequestError carries the tracking number of the in-flight request.
func NewDuplicateRequestError(trackingNumber, status string) *StandardError {
	return newError(ErrCodeDuplicateRequest,
		"Já existe uma solicitação pendente para este CPF ou unidade",
		fmt.Sprintf("existingRequest: %s", trackingNumber), false).
		WithMetadata("existingRequest", trackingNumber).
		WithMetadata("status", status)
}

// NewAlreadyLinkedError carries the person and unit ids of the existing link.
func NewAlreadyLinkedError(franchiseeID, unitID string) *StandardError {
	return newError(ErrCodeAlreadyLinked,
		"Este franqueado já está vinculado a esta unidade",
		fmt.Sprintf("franchiseeId: %s, unitId: %s", franchiseeID, unitID), false).
		WithMetadata("franchiseeId", franchiseeID).
		WithMetadata("unitId", unitID)
}

func NewInvalidRequestStatusError(status string) *StandardError {
	return newError(ErrCodeInvalidRequestStatus, "Solicitação já foi processada", fmt.Sprintf("status: %s", status), false).
		WithMetadata("status", status)
}

func NewRequestNotFoundError(ref string) *StandardError {
	return newError(ErrCodeRequestNotFound, "Solicitação não encontrada", fmt.Sprintf("request: %s", ref), false)
}

func NewFranchiseeNotFoundError(franchiseeID string) *StandardError {
	return newError(ErrCodeFranchiseeNotFound, "Franqueado não encontrado", fmt.Sprintf("franchiseeId: %s", franchiseeID), false)
}

// NewDatabaseQueryFailedError creates a retryable read error.
func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
}

// NewDatabaseInsertFailedError creates a retryable write error.
func NewDatabaseInsertFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Legacy unit search failed", err.Error(), true)
}

func NewLookupTimeoutError(lookupType string) *StandardError {
	return newError(ErrCodeLookupTimeout, "timeout", fmt.Sprintf("lookup: %s", lookupType), true)
}

// NewSubmissionTimeoutError reports the end-to-end deadline being hit.
func NewSubmissionTimeoutError(operation string) *StandardError {
	return newError(ErrCodeSubmissionTimeout, "Tempo limite excedido, tente novamente",
		fmt.Sprintf("operation: %s", operation), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

// NewProcessingFailedError reports an approval that left the request in error.
func NewProcessingFailedError(err error) *StandardError {
	return newError(ErrCodeProcessingFailed, fmt.Sprintf("Erro ao processar: %v", err), err.Error(), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion
// ==========================

// BPMNErrorMapping maps internal codes to the BPMN error codes caught by
// boundary events in the review process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
	ErrCodeInvalidAction:          "VALIDATION_FAILED",
	ErrCodeInvalidLookupValue:     "VALIDATION_FAILED",
	ErrCodeInvalidTracking:        "VALIDATION_FAILED",
	ErrCodeInvalidUnitCode:        "INVALID_UNIT_CODE",
	ErrCodeDuplicateRequest:       "DUPLICATE_REQUEST",
	ErrCodeAlreadyLinked:          "ALREADY_LINKED",
	ErrCodeInvalidRequestStatus:   "INVALID_REQUEST_STATUS",
	ErrCodeRequestNotFound:        "REQUEST_NOT_FOUND",
	ErrCodeFranchiseeNotFound:     "FRANCHISEE_NOT_FOUND",
	ErrCodeDatabaseQueryFailed:    "DATABASE_ERROR",
	ErrCodeDatabaseInsertFailed:   "DATABASE_ERROR",
	ErrCodeSearchQueryFailed:      "SEARCH_ERROR",
	ErrCodeLookupTimeout:          "LOOKUP_TIMEOUT",
	ErrCodeSubmissionTimeout:      "SUBMISSION_TIMEOUT",
	ErrCodeExternalService:        "EXTERNAL_SERVICE_ERROR",
	ErrCodeProcessingFailed:       "PROCESSING_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseQueryFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeExternalService,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeLookupTimeout,
		ErrCodeSubmissionTimeout:
		return 2
	default:
		return 0
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

// HTTPStatus maps a code to the status returned by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed,
		ErrCodeInvalidAction,
		ErrCodeInvalidLookupValue,
		ErrCodeInvalidTracking,
		ErrCodeInvalidUnitCode,
		ErrCodeInvalidRequestStatus:
		return http.StatusBadRequest
	case ErrCodeRequestNotFound, ErrCodeFranchiseeNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateRequest, ErrCodeAlreadyLinked:
		return http.StatusConflict
	case ErrCodeLookupTimeout, ErrCodeSubmissionTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeDatabaseQueryFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeExternalService:
		return http.StatusServiceUnavailable
	case ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "LINKED"):
		return "CONFLICT"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "STATUS"):
		return "STATE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "SEARCH"):
		return "DATABASE"
	case strings.Contains(codeStr, "TIMEOUT") || strings.Contains(codeStr, "EXTERNAL"):
		return "DEPENDENCY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PROCESSING"):
		return "PROCESSING"
	default:
		return "OTHER"
	}
}
