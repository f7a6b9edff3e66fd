package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/service"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/response"
)

// RegistrationHandler exposes registration eligibility and creation.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Eligibility godoc
// @Summary Check registration eligibility
// @Description Reports whether the student may register for the period; a denial includes the conflicting registration
// @Tags Registrations
// @Produce json
// @Param studentId query string true "Student id or registration number"
// @Param academicYear query string false "Academic year, defaults to the current calendar year"
// @Param semester query string false "Semester label, defaults to the current period"
// @Success 200 {object} response.Envelope
// @Router /registrations/eligibility [get]
func (h *RegistrationHandler) Eligibility(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("studentId"))
	if reference == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId query parameter is required"))
		return
	}
	result, err := h.service.CheckEligibility(c.Request.Context(), reference,
		c.Query("academicYear"), models.NormalizeSemester(c.Query("semester")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Register a student for courses
// @Description Creates one registration per (student, academic year, semester); a conflict returns the existing record
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, existing, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		if existing != nil {
			response.ErrorWithMeta(c, err, map[string]interface{}{"existing": existing})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// List godoc
// @Summary List a student's registrations
// @Tags Registrations
// @Produce json
// @Param studentId query string true "Student id or registration number"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("studentId"))
	if reference == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId query parameter is required"))
		return
	}
	registrations, err := h.service.List(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}
