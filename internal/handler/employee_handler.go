package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/employee_proxy/internal/domain"
	"github.com/locvowork/employee_proxy/internal/service"
	"github.com/locvowork/employee_proxy/internal/service/serviceutils"
)

// EmployeeService is the set of operations the handler serves.
type EmployeeService interface {
	ListAll(ctx context.Context) ([]domain.Employee, error)
	SearchByName(ctx context.Context, query string) ([]domain.Employee, error)
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	HighestSalary(ctx context.Context) (int, error)
	TopTenEarners(ctx context.Context) ([]string, error)
	Create(ctx context.Context, in domain.EmployeeCreateInput) (*domain.Employee, error)
	DeleteByID(ctx context.Context, id string) (string, error)
	Export(ctx context.Context, w io.Writer, format service.ExportFormat) error
}

type EmployeeHandler struct {
	svc EmployeeService
}

func NewEmployeeHandler(svc EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// ListHandler serves GET /employees, filtering by name when ?search is given.
func (h *EmployeeHandler) ListHandler(c echo.Context) error {
	if search, ok := c.QueryParams()["search"]; ok {
		return h.search(c, strings.Join(search, ""))
	}

	employees, err := h.svc.ListAll(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, "Could not fetch employee data from the upstream service", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, employees)
}

// SearchHandler serves GET /employees/search/:searchString.
func (h *EmployeeHandler) SearchHandler(c echo.Context) error {
	return h.search(c, c.Param("searchString"))
}

func (h *EmployeeHandler) search(c echo.Context, query string) error {
	employees, err := h.svc.SearchByName(c.Request().Context(), query)
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to search employees", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, employees)
}

func (h *EmployeeHandler) GetHandler(c echo.Context) error {
	emp, err := h.svc.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to get employee", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, emp)
}

func (h *EmployeeHandler) HighestSalaryHandler(c echo.Context) error {
	salary, err := h.svc.HighestSalary(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to calculate highest salary", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, salary)
}

func (h *EmployeeHandler) TopTenHandler(c echo.Context) error {
	names, err := h.svc.TopTenEarners(c.Request().Context())
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to fetch top earning employees", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, names)
}

func (h *EmployeeHandler) CreateHandler(c echo.Context) error {
	var req domain.EmployeeCreateInput
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseErrorStatus(c, http.StatusBadRequest, "Invalid request body", err)
	}

	if err := domain.NewValidationError(req); err != nil {
		return serviceutils.ResponseError(c, "Invalid employee input", err)
	}

	emp, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to create employee", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, emp)
}

func (h *EmployeeHandler) DeleteHandler(c echo.Context) error {
	name, err := h.svc.DeleteByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceutils.ResponseError(c, "Failed to delete employee", err)
	}
	return c.String(http.StatusOK, "Successfully deleted employee: "+name)
}

// ExportHandler serves GET /employees/export?format=xlsx|csv.
func (h *EmployeeHandler) ExportHandler(c echo.Context) error {
	format, err := service.ParseExportFormat(c.QueryParam("format"))
	if err != nil {
		return serviceutils.ResponseErrorStatus(c, http.StatusBadRequest, "Invalid export format", err)
	}

	// Render fully before writing so a failure still gets an error response.
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request().Context(), &buf, format); err != nil {
		return serviceutils.ResponseError(c, "Failed to export employees", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="employees.%s"`, format))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
