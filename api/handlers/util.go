package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/solbridge-labs/solbridge/types"
)

func JSONError(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	type errorResponse struct {
		Code   int    `json:"code"`
		Reason string `json:"reason"`
	}
	resp := errorResponse{
		Reason: err.Error(),
		Code:   code,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleError maps typed service errors onto HTTP statuses. Untyped errors
// are treated as internal.
func HandleError(w http.ResponseWriter, err error) {
	if typed, ok := types.AsError(err); ok {
		JSONError(w, err, typed.Code.HTTPStatus())
		return
	}
	JSONError(w, err, http.StatusInternalServerError)
}

func JSONResponse(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
