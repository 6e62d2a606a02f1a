package models

// Response is the envelope every JSON API returns.
// Code is 0 on success; otherwise it mirrors the HTTP status.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
