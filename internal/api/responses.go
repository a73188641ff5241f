// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pdiddy/search-aggregator/internal/search"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	// Error is the taxonomy name of a failure (e.g. "NoResults").
	Error string `json:"error,omitempty"`

	Data any `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Response{
		Code:    status,
		Message: "ok",
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Response{
		Code:    status,
		Message: message,
		Error:   name,
	})
}

// writeSearchError maps err to its HTTP status and writes it.
func writeSearchError(w http.ResponseWriter, err error) {
	name := search.ErrorName(err)
	writeError(w, statusFor(name, err), name, err.Error())
}

func statusFor(name string, err error) int {
	switch name {
	case "InvalidRequest", "InvalidProvider", "InvalidVertical", "UnsupportedFeature":
		return http.StatusBadRequest
	case "NoResults", "DocumentNotFound":
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
