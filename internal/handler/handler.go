// Package handler is the HTTP entry point after the router.
//
// It binds and validates path and query parameters using the validation
// package, calls the service layer, and writes JSON responses.
package handler
