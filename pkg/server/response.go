package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the envelope of every API answer.
type Response struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const internalErrorJSON = `{"status": 500, "body": {"error": "internal server error"}}`

func writeResponse(w http.ResponseWriter, status int, body any) {
	jsonByte, err := json.Marshal(Response{Status: status, Body: body})
	if err != nil {
		writeInternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeResponse(w, status, ErrorResponse{Error: msg})
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, internalErrorJSON)
}
