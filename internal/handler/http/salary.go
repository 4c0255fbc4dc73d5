package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/handler/http/response"
	"github.com/klaslink/school-backend-go/internal/pkg/validator"
)

type SalaryHandler interface {
	GetTeacherSalary(w http.ResponseWriter, r *http.Request)
	ListSalaries(w http.ResponseWriter, r *http.Request)
}

type salaryHandlerImpl struct {
	salaryService salary.Service
}

func NewSalaryHandler(salaryService salary.Service) SalaryHandler {
	return &salaryHandlerImpl{salaryService: salaryService}
}

// GetTeacherSalary returns the full salary report for one teacher over
// [from, to]. A failed computation still yields HTTP 200 with a zeroed,
// calculation_failed-tagged report; payroll screens render it rather than
// breaking the page.
func (h *salaryHandlerImpl) GetTeacherSalary(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "id")
	if teacherID == "" {
		response.BadRequest(w, "Teacher ID is required", nil)
		return
	}

	from, to, errs := validator.ParsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	report := h.salaryService.CalculateTeacherSalary(r.Context(), teacherID, from, to)
	response.Success(w, report)
}

// ListSalaries returns one report per teacher for the period. Individual
// failures are omitted from the list; the batch never fails as a whole.
func (h *salaryHandlerImpl) ListSalaries(w http.ResponseWriter, r *http.Request) {
	from, to, errs := validator.ParsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	reports := h.salaryService.CalculateAllTeacherSalaries(r.Context(), from, to)
	response.Success(w, reports)
}
