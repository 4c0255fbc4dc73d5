package response

import (
	"errors"
	"net/http"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, salary.ErrTeacherNotFound):
		NotFound(w, "Teacher not found")
	case errors.Is(err, salary.ErrStudentNotFound):
		NotFound(w, "Student not found")
	case errors.Is(err, salary.ErrInvalidPeriod):
		BadRequest(w, "Invalid salary period", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
