package utils

import "github.com/gofiber/fiber/v2"

// Error codes returned in the "code" field of error bodies.
const (
	CodeInvalidJSON       = "invalid_json"
	CodeInvalidID         = "invalid_id"
	CodeInvalidInput      = "invalid_input"
	CodeIdentityInPayload = "identity_in_payload"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeReferenceNotFound = "reference_not_found"
	CodeDuplicate         = "duplicate"
	CodeUpstreamNotFound  = "upstream_not_found"
	CodeUpstreamError     = "upstream_error"
	CodeGenerationFailed  = "generation_failed"
	CodeInternalError     = "internal_error"
)

// ErrorResponse is the error body shape for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func BadRequest(c *fiber.Ctx, code, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, CodeForbidden, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message)
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeInternalError, message)
}

// PaginatedResponse wraps list bodies.
type PaginatedResponse struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func Paginate(c *fiber.Ctx, data interface{}, total int64, limit, offset int) error {
	return c.JSON(PaginatedResponse{
		Data:   data,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// ClampLimit keeps list page sizes inside [1, 100], defaulting to 10.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ClampOffset treats negative offsets as 0.
func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
