package postgres

import (
	"context"
	"fmt"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

const queryInsertEmployeeEvent = `INSERT INTO employee_events (employee_id, action, actor, occurred_at) VALUES ($1, $2, $3, $4)`

// EventRepository implements ports.EventRepository on the employee_events table.
type EventRepository struct {
	db Queryer
}

func NewEventRepository(db Queryer) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.EmployeeEvent) error {
	var actor any
	if event.Actor != "" {
		actor = event.Actor
	}
	if _, err := r.db.Exec(ctx, queryInsertEmployeeEvent,
		event.EmployeeID,
		string(event.Action),
		actor,
		event.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("insert employee event: %w", err)
	}
	return nil
}
