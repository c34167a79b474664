package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

// CreateEmployeeInput carries the data for a new employee. Name, Role and
// Salary are required; nil means the caller did not send the field.
type CreateEmployeeInput struct {
	Name           *string
	Role           *string
	Salary         *decimal.Decimal
	Department     string
	HiringDate     *time.Time
	IdempotencyKey string
	Actor          string
}

// CreateEmployeeResult is returned after creating an employee.
type CreateEmployeeResult struct {
	Employee *domain.Employee
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// UpdateEmployeeInput replaces the mutable fields of an existing employee.
type UpdateEmployeeInput struct {
	ID    string
	Patch domain.EmployeePatch
	Actor string
}

// DeleteEmployeeInput identifies the employee to remove.
type DeleteEmployeeInput struct {
	ID    string
	Actor string
}

// EmployeeService defines the employee use cases exposed to the API layer.
type EmployeeService interface {
	ListEmployees(ctx context.Context) ([]*domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	ListByDepartment(ctx context.Context, department string) ([]*domain.Employee, error)
	CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*CreateEmployeeResult, error)
	UpdateEmployee(ctx context.Context, input UpdateEmployeeInput) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, input DeleteEmployeeInput) error

	TotalPayroll(ctx context.Context) (decimal.Decimal, error)
	AverageSalaryByDepartment(ctx context.Context, department string) (decimal.Decimal, error)
	GroupByDepartment(ctx context.Context) (map[string][]*domain.Employee, error)
	TopNBySalary(ctx context.Context, n int) ([]*domain.Employee, error)
	PayrollByRole(ctx context.Context, role string) (decimal.Decimal, error)
	HiredWithinMonths(ctx context.Context, months int) ([]*domain.Employee, error)
}
