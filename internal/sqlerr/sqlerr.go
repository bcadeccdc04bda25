// Package sqlerr turns database driver errors into API errors.
//
// It classifies the SQLSTATE of a Postgres failure into a small set of
// codes the read path can actually produce, and picks the HTTP status a
// client should see for each.
package sqlerr

import (
	"fmt"
	"strings"
)

// Code is the normalized category of a database error.
type Code string

const (
	Other                     Code = "other"
	UndefinedTable            Code = "undefined_table"
	UndefinedColumn           Code = "undefined_column"
	InvalidTextRepresentation Code = "invalid_text_representation"
	NumericValueOutOfRange    Code = "numeric_value_out_of_range"
	QueryCanceled             Code = "query_canceled"
	AdminShutdown             Code = "admin_shutdown"
	ConnectionException       Code = "connection_exception"
	InsufficientPrivilege     Code = "insufficient_privilege"
)

// MapCode maps a Postgres SQLSTATE to a Code.
func MapCode(sqlState string) Code {
	switch sqlState {
	case "42P01":
		return UndefinedTable
	case "42703":
		return UndefinedColumn
	case "22P02":
		return InvalidTextRepresentation
	case "22003":
		return NumericValueOutOfRange
	case "57014":
		return QueryCanceled
	case "57P01":
		return AdminShutdown
	case "42501":
		return InsufficientPrivilege
	}
	// Class 08 covers every connection failure.
	if strings.HasPrefix(sqlState, "08") {
		return ConnectionException
	}
	return Other
}

// Severity is the Postgres severity of an error report.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// MapSeverity normalizes a severity string; unknown values map to ERROR.
func MapSeverity(severity string) Severity {
	switch s := Severity(strings.ToUpper(severity)); s {
	case SeverityFatal, SeverityPanic, SeverityWarning, SeverityNotice,
		SeverityDebug, SeverityInfo, SeverityLog:
		return s
	default:
		return SeverityError
	}
}

// Error is a Postgres error reduced to what logs and handlers need.
type Error struct {
	Code         Code
	Severity     Severity
	DatabaseCode string
	Message      string
	SchemaName   string
	TableName    string
	ColumnName   string
	DataTypeName string

	driverErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Severity, e.DatabaseCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.driverErr
}
