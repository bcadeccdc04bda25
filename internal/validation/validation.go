// Package validation binds request parameters and validates them.
//
// Rules live in `validate` struct tags on the request types. Failures are
// reported per parameter, named the way the client sent them.
package validation
