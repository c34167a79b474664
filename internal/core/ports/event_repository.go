package ports

import (
	"context"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

// EventRepository persists the employee audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.EmployeeEvent) error
}
