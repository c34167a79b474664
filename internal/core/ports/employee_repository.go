package ports

import (
	"context"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

// EmployeeRepository defines persistence operations for employees.
// Lookups by id return domain.ErrEmployeeNotFound when nothing matches.
type EmployeeRepository interface {
	FindAll(ctx context.Context) ([]*domain.Employee, error)
	FindByID(ctx context.Context, id string) (*domain.Employee, error)
	FindByDepartment(ctx context.Context, department string) ([]*domain.Employee, error)
	// Create assigns a new ID and returns the stored record.
	Create(ctx context.Context, e *domain.Employee) (*domain.Employee, error)
	Update(ctx context.Context, e *domain.Employee) (*domain.Employee, error)
	// Delete returns domain.ErrEmployeeNotFound when no record was removed.
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore guards create requests carrying an Idempotency-Key.
type IdempotencyStore interface {
	// Reserve claims key before the employee is stored. It returns
	// reserved=true when the caller now owns key, or the id of the employee
	// an earlier create produced. A claim still held by another request
	// yields domain.ErrRequestInFlight.
	Reserve(ctx context.Context, key string) (employeeID string, reserved bool, err error)
	// Complete binds a reserved key to the created employee.
	Complete(ctx context.Context, key, employeeID string) error
	// Release drops a reservation whose create failed so the client may retry.
	Release(ctx context.Context, key string) error
}
