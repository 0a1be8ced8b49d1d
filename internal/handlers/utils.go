package handlers

import (
	"encoding/json"
	"net/http"
)

// Сообщения об ошибках, которые видит клиент
const (
	msgBadRequest       = "Bad request"
	msgMethodNotAllowed = "Method not allowed"
	msgPayloadTooLarge  = "Request body too large"
	msgInternalError    = "internal error"
)

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeJSONResponse отправляет JSON ответ
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse отправляет ответ с ошибкой вида {"code": ..., "message": ...}
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, ErrorResponse{
		Code:    statusCode,
		Message: message,
	})
}

