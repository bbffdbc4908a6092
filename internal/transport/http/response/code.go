package response

import "net/http"

// defaultMsg is used when an error carries no message of its own.
var defaultMsg = map[int]string{
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Not authorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Resource not found",
	http.StatusMethodNotAllowed:      "Method not allowed",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "Request entity too large",
	http.StatusTooManyRequests:       "Too many requests",
	http.StatusInternalServerError:   "Internal Server Error",
	http.StatusServiceUnavailable:    "Server busy",
	http.StatusGatewayTimeout:        "Request timeout",
}

func messageFor(code int, msg string) string {
	if msg != "" {
		return msg
	}
	if m, ok := defaultMsg[code]; ok {
		return m
	}
	return http.StatusText(code)
}
