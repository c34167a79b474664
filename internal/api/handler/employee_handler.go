package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/payroll-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry a create without duplicating it.
const HeaderIdempotencyKey = "Idempotency-Key"

// EmployeeHandler handles HTTP requests for employee records and payroll
// aggregates. Errors are returned to the Echo error handler for mapping.
type EmployeeHandler struct {
	service ports.EmployeeService
}

func NewEmployeeHandler(service ports.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// List handles GET /api/employees.
//
// @Summary      List all employees
// @Tags         employees
// @Produce      json
// @Success      200  {array}   employeeResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/employees [get]
func (h *EmployeeHandler) List(c echo.Context) error {
	employees, err := h.service.ListEmployees(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeResponses(employees))
}

// Get handles GET /api/employees/:id.
//
// @Summary      Get an employee by id
// @Tags         employees
// @Produce      json
// @Param        id   path      string  true  "Employee id"
// @Success      200  {object}  employeeResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/employees/{id} [get]
func (h *EmployeeHandler) Get(c echo.Context) error {
	emp, err := h.service.GetEmployee(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeResponse(emp))
}

// Create handles POST /api/employees.
//
// @Summary      Create an employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createEmployeeRequest  true   "Employee details"
// @Success      201              {object}  employeeResponse
// @Success      200              {object}  employeeResponse  "Replayed from Idempotency-Key"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Idempotency-Key still in progress"
// @Failure      422              {object}  errorResponse
// @Router       /api/employees [post]
func (h *EmployeeHandler) Create(c echo.Context) error {
	var req createEmployeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input, err := toCreateInput(req, actor(c), c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return err
	}

	result, err := h.service.CreateEmployee(c.Request().Context(), input)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, toEmployeeResponse(result.Employee))
}

// Update handles PUT /api/employees/:id. The department cannot be changed.
//
// @Summary      Update an employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Employee id"
// @Param        body  body      updateEmployeeRequest  true  "Replacement name, role, salary and hiring date"
// @Success      200   {object}  employeeResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/employees/{id} [put]
func (h *EmployeeHandler) Update(c echo.Context) error {
	var req updateEmployeeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input, err := toUpdateInput(c.Param("id"), req, actor(c))
	if err != nil {
		return err
	}

	updated, err := h.service.UpdateEmployee(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeResponse(updated))
}

// Delete handles DELETE /api/employees/:id.
//
// @Summary      Delete an employee
// @Tags         employees
// @Security     BearerAuth
// @Param        id   path  string  true  "Employee id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/employees/{id} [delete]
func (h *EmployeeHandler) Delete(c echo.Context) error {
	err := h.service.DeleteEmployee(c.Request().Context(), ports.DeleteEmployeeInput{
		ID:    c.Param("id"),
		Actor: actor(c),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByDepartment handles GET /api/employees/department/:department.
//
// @Summary      List the employees of a department
// @Tags         employees
// @Produce      json
// @Param        department  path      string  true  "Department name (exact match)"
// @Success      200         {array}   employeeResponse
// @Failure      400         {object}  errorResponse
// @Router       /api/employees/department/{department} [get]
func (h *EmployeeHandler) ListByDepartment(c echo.Context) error {
	employees, err := h.service.ListByDepartment(c.Request().Context(), c.Param("department"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeResponses(employees))
}

// TotalPayroll handles GET /api/employees/payroll.
//
// @Summary      Total payroll including bonuses
// @Tags         payroll
// @Produce      json
// @Success      200  {object}  totalPayrollResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/employees/payroll [get]
func (h *EmployeeHandler) TotalPayroll(c echo.Context) error {
	total, err := h.service.TotalPayroll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, totalPayrollResponse{TotalPayroll: total.InexactFloat64()})
}

// AverageSalary handles GET /api/employees/department/:department/average-salary.
//
// @Summary      Average salary of a department
// @Tags         payroll
// @Produce      json
// @Param        department  path      string  true  "Department name (exact match)"
// @Success      200         {object}  averageSalaryResponse
// @Failure      404         {object}  errorResponse
// @Router       /api/employees/department/{department}/average-salary [get]
func (h *EmployeeHandler) AverageSalary(c echo.Context) error {
	department := c.Param("department")
	avg, err := h.service.AverageSalaryByDepartment(c.Request().Context(), department)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, averageSalaryResponse{
		Department:    department,
		AverageSalary: avg.InexactFloat64(),
	})
}

// GroupedByDepartment handles GET /api/employees/grouped-by-department.
//
// @Summary      Employees grouped by department
// @Tags         payroll
// @Produce      json
// @Success      200  {object}  map[string][]employeeResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/employees/grouped-by-department [get]
func (h *EmployeeHandler) GroupedByDepartment(c echo.Context) error {
	groups, err := h.service.GroupByDepartment(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGroupedResponse(groups))
}

// TopSalaries handles GET /api/employees/top-salaries/:n.
//
// @Summary      Best paid employees
// @Tags         payroll
// @Produce      json
// @Param        n    path      int  true  "Number of employees"
// @Success      200  {array}   employeeResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/employees/top-salaries/{n} [get]
func (h *EmployeeHandler) TopSalaries(c echo.Context) error {
	n, err := intParam(c, "n")
	if err != nil {
		return err
	}
	top, err := h.service.TopNBySalary(c.Request().Context(), n)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeResponses(top))
}

// PayrollByRole handles GET /api/employees/payroll/job-title/:role.
//
// @Summary      Base payroll for a job title
// @Tags         payroll
// @Produce      json
// @Param        role  path      string  true  "Job title (case-insensitive)"
// @Success      200   {object}  payrollByRoleResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/employees/payroll/job-title/{role} [get]
func (h *EmployeeHandler) PayrollByRole(c echo.Context) error {
	role := c.Param("role")
	total, err := h.service.PayrollByRole(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payrollByRoleResponse{Role: role, TotalPayroll: total.InexactFloat64()})
}

// HiredInLast handles GET /api/employees/hired-in-last/:months.
//
// @Summary      Employees hired in the trailing months
// @Tags         payroll
// @Produce      json
// @Param        months  path      int  true  "Window in months"
// @Success      200     {array}   employeeResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/employees/hired-in-last/{months} [get]
func (h *EmployeeHandler) HiredInLast(c echo.Context) error {
	months, err := intParam(c, "months")
	if err != nil {
		return err
	}
	hired, err := h.service.HiredWithinMonths(c.Request().Context(), months)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEmployeeResponses(hired))
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}
