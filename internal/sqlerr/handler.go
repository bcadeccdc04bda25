package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deppfellow/biblia/internal/errs"
)

// ConvertPgError converts a raw driver error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:         MapCode(src.Code),
		Severity:     MapSeverity(src.Severity),
		DatabaseCode: src.Code,
		Message:      src.Message,
		SchemaName:   src.SchemaName,
		TableName:    src.TableName,
		ColumnName:   src.ColumnName,
		DataTypeName: src.DataTypeName,
		driverErr:    src,
	}
}

// generateErrorCode builds "<TABLE>_<CODE>", e.g. "LIVROS_UNDEFINED_COLUMN".
func generateErrorCode(tableName string, code Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(tableName), strings.ToUpper(string(code)))
}

// humanizeText converts "invalid_text_representation" to
// "Invalid Text Representation".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// HandleError converts an error from the query layer into an *errs.HTTPError.
//
//   - *errs.HTTPError: returned unchanged
//   - malformed or out-of-range parameters: 400
//   - canceled statements, timeouts and lost connections: 503
//   - no rows: 404
//   - missing schema objects and anything else: 500
func HandleError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlErr := ConvertPgError(pgErr)
		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)

		switch sqlErr.Code {
		case InvalidTextRepresentation, NumericValueOutOfRange:
			return errs.NewBadRequestError(humanizeText(string(sqlErr.Code)), true, &errorCode, nil)
		case QueryCanceled, AdminShutdown, ConnectionException:
			return errs.NewServiceUnavailableError("The scripture store is temporarily unavailable", true)
		default:
			// Undefined tables or columns mean the store does not match the
			// schema; nothing the client can fix.
			return errs.NewInternalServerError()
		}
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errs.NewNotFoundError("Resource not found", false, nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), pgconn.Timeout(err):
		return errs.NewServiceUnavailableError("The scripture store is temporarily unavailable", true)
	}

	return errs.NewInternalServerError()
}
