// Package errs defines the error shapes the API returns to clients.
//
// Every failure that reaches the HTTP layer is turned into an HTTPError,
// so clients always see the same JSON body whatever went wrong.
package errs
