package directory

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Browse endpoints – patients pick a doctor, admins look things up.
	browseGroup := api.Group("", auth.RequireRole(auth.RolePatient, auth.RoleAdmin))
	browseGroup.GET("/departments", h.ListDepartments)
	browseGroup.GET("/doctors", h.BrowseDoctors)
	browseGroup.GET("/doctors/:id", h.GetDoctor)

	// Directory administration – admin only.
	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/departments", h.CreateDepartment)
	adminGroup.PUT("/departments/:id", h.UpdateDepartment)
	adminGroup.POST("/doctors", h.AddDoctor)
	adminGroup.PUT("/doctors/:id", h.UpdateDoctor)
	adminGroup.DELETE("/doctors/:id", h.RemoveDoctor)

	// Doctors maintain their own availability.
	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.PUT("/doctors/me/availability", h.SetAvailability)
}

type departmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type doctorRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"password,omitempty"`
	DepartmentID uuid.UUID `json:"department_id"`
	Availability string    `json:"availability"`
}

type availabilityRequest struct {
	Availability string `json:"availability"`
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.CreateDepartment(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateDepartment(c.Request().Context(), id, req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	depts, err := h.svc.ListDepartments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, depts)
}

func (h *Handler) AddDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.svc.AddDoctor(c.Request().Context(), req.Name, req.Email, req.Password, req.DepartmentID, req.Availability)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.svc.UpdateDoctor(c.Request().Context(), id, req.Name, req.Email, req.DepartmentID, req.Availability)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) RemoveDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RemoveDoctor(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) BrowseDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f DoctorFilter
	if dept := c.QueryParam("department_id"); dept != "" {
		id, err := uuid.Parse(dept)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid department_id")
		}
		f.DepartmentID = id
	}
	f.Availability = c.QueryParam("availability")

	docs, total, err := h.svc.BrowseDoctors(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, pg.Limit, pg.Offset))
}

func (h *Handler) SetAvailability(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req availabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.SetAvailability(c.Request().Context(), actor, req.Availability)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, identity.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDepartmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "department not found")
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, identity.ErrNotFound), errors.Is(err, identity.ErrWrongRole):
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	case errors.Is(err, ErrDepartmentExists):
		return echo.NewHTTPError(http.StatusConflict, "department name already in use")
	case errors.Is(err, ErrProfileExists):
		return echo.NewHTTPError(http.StatusConflict, "doctor already has a profile")
	case errors.Is(err, identity.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
