package models

// ApiResponse is the {message, data} envelope used by profile and lodging detail routes.
type ApiResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Data:    data,
		Message: message,
	}
}
