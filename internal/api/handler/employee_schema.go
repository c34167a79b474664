package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

// createEmployeeRequest is the body of POST /api/employees. Presence of name,
// role and salary is checked by the service so that a missing field is
// reported as invalid data.
type createEmployeeRequest struct {
	Name       *string          `json:"name"        validate:"omitempty,max=200"`
	Role       *string          `json:"role"        validate:"omitempty,max=100"`
	Salary     *decimal.Decimal `json:"salary"      swaggertype:"number"`
	Department string           `json:"department"  validate:"max=100"`
	HiringDate *string          `json:"hiring_date" validate:"omitempty,datetime=2006-01-02" example:"2024-01-15"`
}

// updateEmployeeRequest is the body of PUT /api/employees/:id. Unknown
// fields, department included, are ignored.
type updateEmployeeRequest struct {
	Name       *string          `json:"name"        validate:"omitempty,max=200"`
	Role       *string          `json:"role"        validate:"omitempty,max=100"`
	Salary     *decimal.Decimal `json:"salary"      swaggertype:"number"`
	HiringDate *string          `json:"hiring_date" validate:"omitempty,datetime=2006-01-02" example:"2024-01-15"`
}

// --- Response types ---

type employeeResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Salary     *float64  `json:"salary"`
	Department string    `json:"department"`
	HiringDate *string   `json:"hiring_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type totalPayrollResponse struct {
	TotalPayroll float64 `json:"total_payroll"`
}

type averageSalaryResponse struct {
	Department    string  `json:"department"`
	AverageSalary float64 `json:"average_salary"`
}

type payrollByRoleResponse struct {
	Role         string  `json:"role"`
	TotalPayroll float64 `json:"total_payroll"`
}
