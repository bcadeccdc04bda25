// Package utils contains small helper functions used across the project.
package utils

import (
	"encoding/json"
	"io"
)

// WriteJSON writes v to w as tab-indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(v)
}

// OptionalID maps an unset id (0) to nil, for filters that are optional.
func OptionalID(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}
