// Package common defines the shared error taxonomy and HTTP status constants.
// Every layer converts failures into *common.Error so that handlers can map
// them to a user-safe Slack message without inspecting driver internals.
package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP status constants used across handlers and error values.
const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusAccepted  = 202
	StatusNoContent = 204

	StatusBadRequest         = 400
	StatusUnauthorized       = 401
	StatusForbidden          = 403
	StatusNotFound           = 404
	StatusConflict           = 409
	StatusPreconditionFailed = 412
	StatusTooManyRequests    = 429

	StatusInternalServerError = 500
	StatusBadGateway          = 502
	StatusServiceUnavailable  = 503
	StatusGatewayTimeout      = 504
)

// MsgSuccess is the default message on successful responses.
const MsgSuccess = "Opération réussie"

// ErrorCode classifies an error for logging and operator triage.
type ErrorCode struct {
	Code        string // e.g. BIZ_001
	Category    string // e.g. Business
	SubCategory string // e.g. State
	Description string
}

var (
	// System errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Internal system error",
	}

	// Validation errors (VAL_xxx)
	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Invalid input data",
	}
	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Invalid data format",
	}

	// Database errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "General",
		Description: "Database error",
	}
	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Database query error",
	}
	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_003",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Database connection error",
	}

	// Business errors (BIZ_xxx)
	ErrCodeBusinessState = ErrorCode{
		Code:        "BIZ_001",
		Category:    "Business",
		SubCategory: "State",
		Description: "Entity is not in a state that permits the action",
	}
	ErrCodeBusinessOperation = ErrorCode{
		Code:        "BIZ_002",
		Category:    "Business",
		SubCategory: "Operation",
		Description: "Business operation rejected",
	}
	ErrCodeBusinessFunds = ErrorCode{
		Code:        "BIZ_003",
		Category:    "Business",
		SubCategory: "Funds",
		Description: "Insufficient balance for the requested movement",
	}

	// Upstream errors (UPS_xxx) — Slack API, Excel mirror
	ErrCodeUpstreamSlack = ErrorCode{
		Code:        "UPS_001",
		Category:    "Upstream",
		SubCategory: "Slack",
		Description: "Slack API call failed",
	}
	ErrCodeUpstreamExcel = ErrorCode{
		Code:        "UPS_002",
		Category:    "Upstream",
		SubCategory: "Excel",
		Description: "Excel mirror write failed",
	}
)

// Error is the application error type. Message is user-facing (French, same
// language as the Slack workspace); Details carries internal context for logs.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    any
}

func (e *Error) Error() string {
	return e.Message
}

// Is supports errors.Is against the sentinel values below by comparing codes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code.Code == t.Code.Code && e.Message == t.Message
}

// NewError builds an *Error with full classification.
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Sentinel errors. Handlers surface Message verbatim to the user.
var (
	ErrNotFound      = NewError(ErrCodeDatabaseQuery, "Donnée introuvable", StatusNotFound, nil)
	ErrDuplicate     = NewError(ErrCodeDatabaseQuery, "La donnée existe déjà", StatusConflict, nil)
	ErrConnection    = NewError(ErrCodeDatabaseConnection, "Erreur de connexion à la base de données", StatusServiceUnavailable, nil)
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Données saisies invalides", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Format de données invalide", StatusBadRequest, nil)
	ErrRequiredField = NewError(ErrCodeValidationInput, "Champ obligatoire manquant", StatusBadRequest, nil)

	ErrInvalidState      = NewError(ErrCodeBusinessState, "État non compatible avec cette action", StatusBadRequest, nil)
	ErrInsufficientFunds = NewError(ErrCodeBusinessFunds, "Solde insuffisant", StatusBadRequest, nil)
	ErrReasonRequired    = NewError(ErrCodeValidationInput, "Un motif est obligatoire pour rejeter une demande", StatusBadRequest, nil)
)

// NewInvalidState reports an illegal transition quoting the entity's current
// state so the caller can show the user why nothing happened.
func NewInvalidState(message string, currentState string) error {
	return &Error{
		Code:       ErrCodeBusinessState,
		Message:    message,
		StatusCode: StatusBadRequest,
		Details:    map[string]string{"currentState": currentState},
	}
}

// ConvertMongoError maps a mongo-driver error to the application taxonomy.
// ErrNotFound passes through untouched so callers can errors.Is on it.
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if mongo.IsNetworkError(err) {
		return ErrConnection
	}
	if mongo.IsTimeout(err) {
		return NewError(ErrCodeDatabaseConnection, "Délai de connexion à la base dépassé", StatusGatewayTimeout, err)
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch {
		case cmdErr.Code >= 100 && cmdErr.Code < 200:
			return ErrConnection
		default:
			return NewError(ErrCodeDatabaseQuery, "Erreur de requête base de données", StatusInternalServerError, err)
		}
	}

	return NewError(ErrCodeDatabase, "Erreur interne base de données", StatusInternalServerError, err)
}
