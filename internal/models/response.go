package models

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// APIResponse is the envelope for every successful response.
type APIResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// ErrorResponse is the envelope for every failed response.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// Respond writes data wrapped in the success envelope.
func Respond(c *fiber.Ctx, status int, data interface{}, message string) error {
	if message == "" {
		message = "Success"
	}
	return c.Status(status).JSON(APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < fiber.StatusBadRequest,
	})
}

// RespondWithError writes err in the error envelope. Fiber errors keep their
// status; anything else that is not an AppError is reported as a generic 500
// so internals never leak.
func RespondWithError(c *fiber.Ctx, err error) error {
	appErr, ok := AsAppError(err)
	if !ok {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			appErr = &AppError{Code: httpErrorCode(fe.Code), Message: fe.Message, Status: fe.Code}
		} else {
			appErr = NewInternalError(err)
		}
	}
	status := appErr.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	details := appErr.Errors
	if details == nil {
		details = []string{}
	}
	return c.Status(status).JSON(ErrorResponse{
		StatusCode: status,
		Message:    appErr.Message,
		Success:    false,
		Errors:     details,
	})
}

func httpErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusTooManyRequests:
		return CodeRateLimited
	case fiber.StatusRequestEntityTooLarge, fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return CodeValidation
	}
	if status >= fiber.StatusInternalServerError {
		return CodeInternal
	}
	return CodeValidation
}
