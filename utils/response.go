package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform response body. List endpoints add Result (page
// size) and Total (filtered count); auth endpoints add AccessToken.
type Envelope struct {
	Status      string      `json:"status"`
	Message     string      `json:"message,omitempty"`
	Result      *int        `json:"result,omitempty"`
	Total       *int64      `json:"total,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
	Data        interface{} `json:"data,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// SendJSON writes an envelope with the given status code.
func SendJSON(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(env)
}

// SendMessage writes a success envelope carrying only a message.
func SendMessage(w http.ResponseWriter, code int, message string) {
	SendJSON(w, code, Envelope{Status: StatusSuccess, Message: message})
}

// SendData writes a success envelope with a single keyed payload.
func SendData(w http.ResponseWriter, code int, key string, value interface{}) {
	SendJSON(w, code, Envelope{
		Status: StatusSuccess,
		Data:   map[string]interface{}{key: value},
	})
}

// SendList writes a success envelope for a list endpoint. Total is the
// filtered count computed independently of pagination.
func SendList(w http.ResponseWriter, key string, items interface{}, result int, total int64) {
	SendJSON(w, http.StatusOK, Envelope{
		Status: StatusSuccess,
		Result: &result,
		Total:  &total,
		Data:   map[string]interface{}{key: items},
	})
}

// SendNoContent writes an empty 204 response.
func SendNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Pluralize turns an entity name into its response-envelope key: names
// ending in "y" become "ies", otherwise "s" is appended.
func Pluralize(name string) string {
	if strings.HasSuffix(name, "y") {
		return name[:len(name)-1] + "ies"
	}
	return name + "s"
}

// ReadJSON decodes a size-limited JSON request body into dst.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst interface{}, limit int64) error {
	if limit <= 0 {
		limit = 20 << 10
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewAppError("Invalid request body.", http.StatusBadRequest)
	}
	return nil
}

// ReadBody decodes a request body into a map and keeps only the allowed
// fields, mirroring the shape-then-write update path.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64, allowedFields ...string) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := ReadJSON(w, r, &body, limit); err != nil {
		return nil, err
	}
	return FilterFields(body, allowedFields...), nil
}

// FilterFields returns a copy of body containing only the allowed keys.
func FilterFields(body map[string]interface{}, allowedFields ...string) map[string]interface{} {
	filtered := make(map[string]interface{})
	for _, field := range allowedFields {
		if value, ok := body[field]; ok {
			filtered[field] = value
		}
	}
	return filtered
}
