package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"order-fulfillment-service/internal/api/dto"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/obs"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("req_id=%s encode failed: method=%s path=%s err=%v", obs.RequestID(r.Context()), r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// writeInvalidRequest answers 422, naming the offending order when known.
func writeInvalidRequest(w http.ResponseWriter, r *http.Request, err error) {
	res := dto.ErrorResponse{Error: err.Error()}
	var oe *domain.OrderError
	if errors.As(err, &oe) {
		res.OrderID = oe.OrderID
	}
	writeJSON(w, r, http.StatusUnprocessableEntity, res)
}

// MethodNotAllowed is the router's fallback for known paths with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}
