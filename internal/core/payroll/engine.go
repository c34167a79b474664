// Package payroll computes payroll aggregates over a snapshot of employee
// records. Every function is pure apart from the injected clock; inputs are
// never mutated.
package payroll

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

var (
	bonusThreshold = decimal.New(12, -1) // 1.2 × base
	highBonusRate  = decimal.New(10, -2)
	lowBonusRate   = decimal.New(5, -2)
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Engine holds the bracket table and clock used by the aggregates.
type Engine struct {
	brackets BracketTable
	clock    Clock
}

// NewEngine returns an Engine. A nil clock falls back to the wall clock.
func NewEngine(brackets BracketTable, clock Clock) *Engine {
	if clock == nil {
		clock = realClock{}
	}
	return &Engine{brackets: brackets, clock: clock}
}

// Bonus returns the bonus owed for salary under the given role bracket:
// 10% above 1.2× the base, 5% otherwise.
func (e *Engine) Bonus(salary decimal.Decimal, role string) decimal.Decimal {
	base := e.brackets.BaseSalary(role)
	if salary.GreaterThan(base.Mul(bonusThreshold)) {
		return salary.Mul(highBonusRate)
	}
	return salary.Mul(lowBonusRate)
}

// TotalPayroll sums salary plus bonus over all employees. An empty snapshot
// yields zero.
func (e *Engine) TotalPayroll(employees []*domain.Employee) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, emp := range employees {
		if emp == nil {
			return decimal.Zero, fmt.Errorf("employee #%d is nil: %w", i, domain.ErrInvalidState)
		}
		if strings.TrimSpace(emp.Role) == "" {
			return decimal.Zero, fmt.Errorf("employee %s has no role: %w", emp.ID, domain.ErrInvalidState)
		}
		salary, err := salaryOf(emp)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(salary).Add(e.Bonus(salary, emp.Role))
	}
	return total, nil
}

// AverageSalaryByDepartment averages the salaries of employees whose
// department equals department exactly.
func (e *Engine) AverageSalaryByDepartment(employees []*domain.Employee, department string) (decimal.Decimal, error) {
	sum := decimal.Zero
	count := 0
	for _, emp := range employees {
		if emp == nil || emp.Department != department {
			continue
		}
		salary, err := salaryOf(emp)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(salary)
		count++
	}
	if count == 0 {
		return decimal.Zero, fmt.Errorf("%q: %w", department, domain.ErrDepartmentNotFound)
	}
	return sum.Div(decimal.NewFromInt(int64(count))), nil
}

// GroupByDepartment partitions employees by their exact department string,
// keeping input order inside each group.
func (e *Engine) GroupByDepartment(employees []*domain.Employee) (map[string][]*domain.Employee, error) {
	if len(employees) == 0 {
		return nil, domain.ErrEmptyCollection
	}
	groups := make(map[string][]*domain.Employee)
	for i, emp := range employees {
		if emp == nil {
			return nil, fmt.Errorf("employee #%d is nil: %w", i, domain.ErrInvalidState)
		}
		groups[emp.Department] = append(groups[emp.Department], emp)
	}
	return groups, nil
}

// TopNBySalary returns the n best paid employees, highest first. Equal
// salaries keep their input order. The emptiness check runs before n is
// looked at, so an empty snapshot fails even for n <= 0.
func (e *Engine) TopNBySalary(employees []*domain.Employee, n int) ([]*domain.Employee, error) {
	if len(employees) == 0 {
		return nil, domain.ErrEmptyCollection
	}
	if n <= 0 {
		return []*domain.Employee{}, nil
	}

	type ranked struct {
		emp    *domain.Employee
		salary decimal.Decimal
	}
	sorted := make([]ranked, 0, len(employees))
	for i, emp := range employees {
		if emp == nil {
			return nil, fmt.Errorf("employee #%d is nil: %w", i, domain.ErrInvalidState)
		}
		salary, err := salaryOf(emp)
		if err != nil {
			return nil, err
		}
		sorted = append(sorted, ranked{emp: emp, salary: salary})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].salary.GreaterThan(sorted[j].salary)
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	top := make([]*domain.Employee, n)
	for i := range top {
		top[i] = sorted[i].emp
	}
	return top, nil
}

// PayrollByRole sums base salaries, without bonus, of employees whose role
// matches case-insensitively.
func (e *Engine) PayrollByRole(employees []*domain.Employee, role string) (decimal.Decimal, error) {
	if len(employees) == 0 {
		return decimal.Zero, domain.ErrEmptyCollection
	}
	total := decimal.Zero
	for _, emp := range employees {
		if emp == nil || !strings.EqualFold(emp.Role, role) {
			continue
		}
		salary, err := salaryOf(emp)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(salary)
	}
	return total, nil
}

// HiredWithinMonths returns employees hired strictly after today minus
// months. Records without a hiring date never match.
func (e *Engine) HiredWithinMonths(employees []*domain.Employee, months int) []*domain.Employee {
	cutoff := monthsBefore(e.today(), months)

	hired := make([]*domain.Employee, 0)
	for _, emp := range employees {
		if emp == nil || emp.HiringDate == nil {
			continue
		}
		if domain.NormalizeDate(emp.HiringDate).After(cutoff) {
			hired = append(hired, emp)
		}
	}
	return hired
}

func (e *Engine) today() time.Time {
	now := e.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// monthsBefore steps back whole calendar months, clamping the day to the
// end of the target month (31 Mar minus 1 month is the last day of Feb).
func monthsBefore(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	total := y*12 + int(m-1) - months
	year := floorDiv(total, 12)
	month := time.Month(total-year*12) + 1
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func salaryOf(emp *domain.Employee) (decimal.Decimal, error) {
	if emp.Salary == nil {
		return decimal.Zero, fmt.Errorf("employee %s has no salary: %w", emp.ID, domain.ErrInvalidState)
	}
	return *emp.Salary, nil
}
