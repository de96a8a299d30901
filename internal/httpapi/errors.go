package httpapi

import (
	"net/http"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// notFoundResponse mirrors the status envelope older clients parse on 404.
type notFoundResponse struct {
	Status struct {
		StatusContent []statusContent `json:"status_content"`
	} `json:"status"`
}

type statusContent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "bad_request") }
func internalError(w http.ResponseWriter) {
	writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	var resp notFoundResponse
	resp.Status.StatusContent = []statusContent{{Code: "404 - Not Found", Message: "Resource not found"}}
	toJSON(w, http.StatusNotFound, resp)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErr(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
}
