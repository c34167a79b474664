package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrInvalidData        = errors.New("invalid data")
	ErrEmptyCollection    = errors.New("no employees found")
	ErrInvalidState       = errors.New("malformed employee record")

	// ErrRequestInFlight means another create holding the same
	// Idempotency-Key has not finished yet.
	ErrRequestInFlight = errors.New("request with this idempotency key is in progress")
)

// SalaryScale is the number of decimal places a salary may carry. Both
// stores keep salaries at this scale.
const SalaryScale = 2

// MaxSalary is the exclusive upper bound of a storable salary.
var MaxSalary = decimal.New(1, 13)

// Employee is the persisted employee record.
// Salary and HiringDate are nil when the stored record lacks them.
type Employee struct {
	ID         string
	Name       string
	Role       string
	Salary     *decimal.Decimal
	Department string
	HiringDate *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EmployeePatch lists the fields an update may replace.
// Department is not part of it: it can only be set on creation.
type EmployeePatch struct {
	Name       string
	Role       string
	Salary     *decimal.Decimal
	HiringDate *time.Time
}

// Apply replaces the mutable fields of e with the patch values.
func (p EmployeePatch) Apply(e *Employee) {
	e.Name = p.Name
	e.Role = p.Role
	e.Salary = CloneDecimal(p.Salary)
	e.HiringDate = NormalizeDate(p.HiringDate)
}

// Clone returns a deep copy of e.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	c.Salary = CloneDecimal(e.Salary)
	c.HiringDate = NormalizeDate(e.HiringDate)
	return &c
}

// NormalizeDate truncates t to midnight UTC of its calendar date.
func NormalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func CloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
