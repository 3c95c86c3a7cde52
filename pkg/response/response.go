package response

// Response is the envelope every endpoint replies with.
type Response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(statusCode int, data any) Response {
	return Response{
		Success:    true,
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessMessage is Success with a human readable message, used by bulk operations.
func SuccessMessage(statusCode int, message string, data any) Response {
	return Response{
		Success:    true,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}
}

// Error wraps a failure message. data carries field errors for validation failures.
func Error(statusCode int, message string, data ...any) Response {
	r := Response{
		Success:    false,
		StatusCode: statusCode,
		Message:    message,
	}
	if len(data) > 0 {
		r.Data = data[0]
	}
	return r
}
