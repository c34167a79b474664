package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
	"github.com/sirpyerre/payroll-api/internal/core/payroll"
	"github.com/sirpyerre/payroll-api/internal/core/ports"
	"github.com/sirpyerre/payroll-api/internal/pkg/metrics"
)

// EmployeeService implements ports.EmployeeService. It reads a fresh snapshot
// from the repository on every call and never caches aggregates.
type EmployeeService struct {
	repo   ports.EmployeeRepository
	events ports.EventRepository
	idem   ports.IdempotencyStore
	engine *payroll.Engine
	logger zerolog.Logger
}

// NewEmployeeService wires the service. events and idem may be nil, which
// disables the audit trail and Idempotency-Key replay respectively.
func NewEmployeeService(
	repo ports.EmployeeRepository,
	events ports.EventRepository,
	idem ports.IdempotencyStore,
	engine *payroll.Engine,
	logger zerolog.Logger,
) *EmployeeService {
	return &EmployeeService{
		repo:   repo,
		events: events,
		idem:   idem,
		engine: engine,
		logger: logger,
	}
}

// ListEmployees returns every stored employee.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]*domain.Employee, error) {
	employees, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("count", len(employees)).Msg("employees listed")
	return employees, nil
}

// GetEmployee returns the employee with the given id or domain.ErrEmployeeNotFound.
func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrInvalidData)
	}

	emp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			s.logger.Warn().Str("employee_id", id).Msg("employee not found")
		}
		return nil, err
	}
	return emp, nil
}

// ListByDepartment returns the employees of one department (exact match).
func (s *EmployeeService) ListByDepartment(ctx context.Context, department string) ([]*domain.Employee, error) {
	if strings.TrimSpace(department) == "" {
		return nil, fmt.Errorf("department: %w", domain.ErrInvalidData)
	}
	return s.repo.FindByDepartment(ctx, department)
}

// CreateEmployee validates the input and stores a new employee. When the
// Idempotency-Key was already used the earlier employee is returned instead.
func (s *EmployeeService) CreateEmployee(ctx context.Context, input ports.CreateEmployeeInput) (*ports.CreateEmployeeResult, error) {
	if err := validateRequired(input.Name, input.Role, input.Salary); err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	if s.idem == nil {
		key = ""
	}
	if key != "" {
		replay, reserved, err := s.reserve(ctx, key)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			metrics.IdempotentReplaysTotal.Inc()
			return &ports.CreateEmployeeResult{Employee: replay, AlreadyExisted: true}, nil
		}
		if !reserved {
			key = ""
		}
	}

	now := time.Now().UTC()
	emp := &domain.Employee{
		Name:       strings.TrimSpace(*input.Name),
		Role:       strings.TrimSpace(*input.Role),
		Salary:     domain.CloneDecimal(input.Salary),
		Department: input.Department,
		HiringDate: domain.NormalizeDate(input.HiringDate),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := s.repo.Create(ctx, emp)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create employee")
		if key != "" {
			if relErr := s.idem.Release(ctx, key); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if key != "" {
		if err := s.idem.Complete(ctx, key, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
		}
	}

	s.audit(ctx, created.ID, domain.ActionCreated, input.Actor)
	metrics.EmployeeMutationsTotal.WithLabelValues("create").Inc()
	s.logger.Info().Str("employee_id", created.ID).Str("department", created.Department).Msg("employee created")

	return &ports.CreateEmployeeResult{Employee: created}, nil
}

// UpdateEmployee replaces name, role, salary and hiring date. The department
// is left untouched.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, input ports.UpdateEmployeeInput) (*domain.Employee, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", domain.ErrInvalidData)
	}
	patch := input.Patch
	if err := validateRequired(&patch.Name, &patch.Role, patch.Salary); err != nil {
		return nil, err
	}
	patch.Name = strings.TrimSpace(patch.Name)
	patch.Role = strings.TrimSpace(patch.Role)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			s.logger.Warn().Str("employee_id", id).Msg("no employee record to update")
		}
		return nil, err
	}

	patch.Apply(existing)
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, updated.ID, domain.ActionUpdated, input.Actor)
	metrics.EmployeeMutationsTotal.WithLabelValues("update").Inc()
	s.logger.Info().Str("employee_id", updated.ID).Msg("employee updated")

	return updated, nil
}

// DeleteEmployee removes the employee or returns domain.ErrEmployeeNotFound.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, input ports.DeleteEmployeeInput) error {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return fmt.Errorf("id: %w", domain.ErrInvalidData)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			s.logger.Warn().Str("employee_id", id).Msg("no employee record to delete")
		}
		return err
	}

	s.audit(ctx, id, domain.ActionDeleted, input.Actor)
	metrics.EmployeeMutationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("employee_id", id).Msg("employee deleted")
	return nil
}

// TotalPayroll sums salary plus bonus over the whole snapshot.
func (s *EmployeeService) TotalPayroll(ctx context.Context) (total decimal.Decimal, err error) {
	defer s.observe("total_payroll", time.Now(), &err)

	employees, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.engine.TotalPayroll(employees)
}

// AverageSalaryByDepartment averages the salaries of one department.
func (s *EmployeeService) AverageSalaryByDepartment(ctx context.Context, department string) (avg decimal.Decimal, err error) {
	defer s.observe("average_salary", time.Now(), &err)

	if strings.TrimSpace(department) == "" {
		return decimal.Zero, fmt.Errorf("department: %w", domain.ErrInvalidData)
	}
	employees, err := s.repo.FindByDepartment(ctx, department)
	if err != nil {
		return decimal.Zero, err
	}
	return s.engine.AverageSalaryByDepartment(employees, department)
}

// GroupByDepartment partitions the snapshot by department.
func (s *EmployeeService) GroupByDepartment(ctx context.Context) (groups map[string][]*domain.Employee, err error) {
	defer s.observe("grouped_by_department", time.Now(), &err)

	employees, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.GroupByDepartment(employees)
}

// TopNBySalary returns the n best paid employees.
func (s *EmployeeService) TopNBySalary(ctx context.Context, n int) (top []*domain.Employee, err error) {
	defer s.observe("top_n", time.Now(), &err)

	employees, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.TopNBySalary(employees, n)
}

// PayrollByRole sums base salaries for one job title.
func (s *EmployeeService) PayrollByRole(ctx context.Context, role string) (total decimal.Decimal, err error) {
	defer s.observe("payroll_by_role", time.Now(), &err)

	employees, err := s.snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return s.engine.PayrollByRole(employees, role)
}

// HiredWithinMonths returns employees hired in the trailing window.
func (s *EmployeeService) HiredWithinMonths(ctx context.Context, months int) (hired []*domain.Employee, err error) {
	defer s.observe("hired_within_months", time.Now(), &err)

	employees, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.HiredWithinMonths(employees, months), nil
}

func (s *EmployeeService) snapshot(ctx context.Context) ([]*domain.Employee, error) {
	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read employees: %w", err)
	}
	metrics.SnapshotSize.Set(float64(len(employees)))
	return employees, nil
}

// reserve claims key for this create. It returns the earlier employee when
// key was already completed. When the store is unavailable, or the earlier
// employee can no longer be read, it returns neither and the create
// proceeds unguarded.
func (s *EmployeeService) reserve(ctx context.Context, key string) (*domain.Employee, bool, error) {
	id, reserved, err := s.idem.Reserve(ctx, key)
	switch {
	case errors.Is(err, domain.ErrRequestInFlight):
		s.logger.Warn().Str("idempotency_key", key).Msg("concurrent create with the same idempotency key")
		return nil, false, err
	case err != nil:
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency store unavailable, creating anyway")
		return nil, false, nil
	case reserved:
		return nil, true, nil
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Str("employee_id", id).Msg("idempotent employee not readable, creating anyway")
		return nil, false, nil
	}

	s.logger.Info().Str("idempotency_key", key).Str("employee_id", existing.ID).Msg("idempotent replay")
	return existing, false, nil
}

// audit records the mutation. Failures are logged and never surface.
func (s *EmployeeService) audit(ctx context.Context, employeeID string, action domain.EmployeeAction, actor string) {
	if s.events == nil {
		return
	}
	event := &domain.EmployeeEvent{
		EmployeeID: employeeID,
		Action:     action,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.events.InsertEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("employee_id", employeeID).Str("action", string(action)).Msg("failed to insert audit event")
	}
}

func (s *EmployeeService) observe(aggregate string, start time.Time, err *error) {
	metrics.AggregateDuration.WithLabelValues(aggregate).Observe(time.Since(start).Seconds())
	metrics.AggregatesTotal.WithLabelValues(aggregate, resultLabel(*err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyCollection):
		return "empty_collection"
	case errors.Is(err, domain.ErrDepartmentNotFound):
		return "department_not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidData):
		return "invalid_data"
	default:
		return "error"
	}
}

func validateRequired(name, role *string, salary *decimal.Decimal) error {
	if name == nil || strings.TrimSpace(*name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrInvalidData)
	}
	if role == nil || strings.TrimSpace(*role) == "" {
		return fmt.Errorf("role is required: %w", domain.ErrInvalidData)
	}
	if salary == nil {
		return fmt.Errorf("salary is required: %w", domain.ErrInvalidData)
	}
	if salary.IsNegative() {
		return fmt.Errorf("salary must not be negative: %w", domain.ErrInvalidData)
	}
	if !salary.Equal(salary.Truncate(domain.SalaryScale)) {
		return fmt.Errorf("salary must have at most %d decimal places: %w", domain.SalaryScale, domain.ErrInvalidData)
	}
	if salary.GreaterThanOrEqual(domain.MaxSalary) {
		return fmt.Errorf("salary must be below %s: %w", domain.MaxSalary, domain.ErrInvalidData)
	}
	return nil
}
