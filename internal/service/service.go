// Package service contains the business logic.
//
// It sits between the handler and repository layers: it turns
// repository results into the answers the API and the CLI give,
// including not-found decisions and the promise-box draw.
package service
