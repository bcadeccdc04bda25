// Package lib holds helpers for modules that do not fit strictly into
// other layers.
package lib
