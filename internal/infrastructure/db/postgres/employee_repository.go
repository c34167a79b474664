package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

const employeeColumns = `id, name, role, salary::text, department, hiring_date, created_at, updated_at`

const (
	queryFindAllEmployees = `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at, id`

	queryFindEmployeeByID = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	queryFindEmployeesByDepartment = `SELECT ` + employeeColumns + ` FROM employees WHERE department = $1 ORDER BY created_at, id`

	queryInsertEmployee = `INSERT INTO employees (id, name, role, salary, department, hiring_date, created_at, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
RETURNING ` + employeeColumns

	queryUpdateEmployee = `UPDATE employees
   SET name = $1, role = $2, salary = $3::numeric, hiring_date = $4, updated_at = $5
 WHERE id = $6
RETURNING ` + employeeColumns

	queryDeleteEmployee = `DELETE FROM employees WHERE id = $1`
)

// EmployeeRepository implements ports.EmployeeRepository on PostgreSQL.
type EmployeeRepository struct {
	db Queryer
}

func NewEmployeeRepository(db Queryer) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) FindAll(ctx context.Context) ([]*domain.Employee, error) {
	return r.query(ctx, queryFindAllEmployees)
}

func (r *EmployeeRepository) FindByDepartment(ctx context.Context, department string) ([]*domain.Employee, error) {
	return r.query(ctx, queryFindEmployeesByDepartment, department)
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*domain.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrEmployeeNotFound
	}
	e, err := scanEmployee(r.db.QueryRow(ctx, queryFindEmployeeByID, id))
	if err != nil {
		return nil, translateEmployeeError(err)
	}
	return e, nil
}

// Create assigns a UUID and inserts the employee.
func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	row := r.db.QueryRow(ctx, queryInsertEmployee,
		uuid.NewString(),
		e.Name,
		e.Role,
		nullableSalary(e.Salary),
		e.Department,
		nullableDate(e.HiringDate),
		e.CreatedAt.UTC(),
		e.UpdatedAt.UTC(),
	)
	created, err := scanEmployee(row)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", translateEmployeeError(err))
	}
	return created, nil
}

// Update writes name, role, salary and hiring date. The department column is
// never touched.
func (r *EmployeeRepository) Update(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, domain.ErrEmployeeNotFound
	}
	row := r.db.QueryRow(ctx, queryUpdateEmployee,
		e.Name,
		e.Role,
		nullableSalary(e.Salary),
		nullableDate(e.HiringDate),
		e.UpdatedAt.UTC(),
		e.ID,
	)
	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeeError(err)
	}
	return updated, nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrEmployeeNotFound
	}
	tag, err := r.db.Exec(ctx, queryDeleteEmployee, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Employee, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		e          domain.Employee
		salary     sql.NullString
		hiringDate sql.NullTime
	)
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Role,
		&salary,
		&e.Department,
		&hiringDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if salary.Valid {
		d, err := decimal.NewFromString(salary.String)
		if err != nil {
			return nil, fmt.Errorf("employee %s salary %q: %w", e.ID, salary.String, domain.ErrInvalidState)
		}
		e.Salary = &d
	}
	if hiringDate.Valid {
		e.HiringDate = domain.NormalizeDate(&hiringDate.Time)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func translateEmployeeError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrEmployeeNotFound
	}
	return err
}

func nullableSalary(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *domain.NormalizeDate(t)
}
