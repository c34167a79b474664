package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
	"github.com/sirpyerre/payroll-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createEmployeeRequest, actor, idempotencyKey string) (ports.CreateEmployeeInput, error) {
	hired, err := parseDate(req.HiringDate)
	if err != nil {
		return ports.CreateEmployeeInput{}, err
	}
	return ports.CreateEmployeeInput{
		Name:           req.Name,
		Role:           req.Role,
		Salary:         req.Salary,
		Department:     strings.TrimSpace(req.Department),
		HiringDate:     hired,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		Actor:          actor,
	}, nil
}

func toUpdateInput(id string, req updateEmployeeRequest, actor string) (ports.UpdateEmployeeInput, error) {
	hired, err := parseDate(req.HiringDate)
	if err != nil {
		return ports.UpdateEmployeeInput{}, err
	}
	return ports.UpdateEmployeeInput{
		ID: id,
		Patch: domain.EmployeePatch{
			Name:       deref(req.Name),
			Role:       deref(req.Role),
			Salary:     req.Salary,
			HiringDate: hired,
		},
		Actor: actor,
	}, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("hiring_date must be YYYY-MM-DD: %w", domain.ErrInvalidData)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --- Domain → Response ---

func toEmployeeResponse(e *domain.Employee) employeeResponse {
	resp := employeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Role:       e.Role,
		Department: e.Department,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.Salary != nil {
		f := e.Salary.InexactFloat64()
		resp.Salary = &f
	}
	if e.HiringDate != nil {
		d := e.HiringDate.Format(dateLayout)
		resp.HiringDate = &d
	}
	return resp
}

func toEmployeeResponses(employees []*domain.Employee) []employeeResponse {
	out := make([]employeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeResponse(e))
	}
	return out
}

func toGroupedResponse(groups map[string][]*domain.Employee) map[string][]employeeResponse {
	out := make(map[string][]employeeResponse, len(groups))
	for dept, employees := range groups {
		out[dept] = toEmployeeResponses(employees)
	}
	return out
}
