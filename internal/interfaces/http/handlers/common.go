// Package handlers implements the HTTP handlers of the MolFrag API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/turtacn/MolFrag/pkg/errors"
	"github.com/turtacn/MolFrag/pkg/types/fragment"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps err onto the HTTP status of its code.  Server-side
// failures are masked.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if status >= http.StatusInternalServerError {
		if code == errors.CodeUnknown {
			code = errors.ErrCodeInternal
		}
		writeJSON(w, status, &fragment.ErrorResponse{
			Code:    code.String(),
			Message: errors.DefaultMessageForCode(code),
		})
		return
	}
	writeJSON(w, status, fragment.NewErrorResponse(err))
}

// decodeJSON reads a JSON body into dst.  Unknown fields are rejected so
// that misspelled options do not silently fall back to defaults.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errors.Newf(errors.ErrCodeBadRequest, "request body exceeds %d bytes", maxErr.Limit)
		case err == io.EOF:
			return errors.New(errors.ErrCodeBadRequest, "request body is empty")
		default:
			return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid JSON body")
		}
	}
	return nil
}

//Personal.AI order the ending
