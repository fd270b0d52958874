package types

// ConvertResponse is the 200 body of POST /api/convert. Filename echoes the
// client's original name, not the sanitised one written to disk.
type ConvertResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	ID       string `json:"id"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of GET /test.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListQuery binds GET /api/conversions query parameters.
type ListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}
