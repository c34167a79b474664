package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/payroll-api/internal/api/middleware"
	"github.com/sirpyerre/payroll-api/internal/core/domain"
	"github.com/sirpyerre/payroll-api/internal/core/ports"
)

// stubEmployeeService embeds the interface so tests only wire the methods they hit.
type stubEmployeeService struct {
	ports.EmployeeService

	getFn     func(ctx context.Context, id string) (*domain.Employee, error)
	createFn  func(ctx context.Context, in ports.CreateEmployeeInput) (*ports.CreateEmployeeResult, error)
	updateFn  func(ctx context.Context, in ports.UpdateEmployeeInput) (*domain.Employee, error)
	deleteFn  func(ctx context.Context, in ports.DeleteEmployeeInput) error
	totalFn   func(ctx context.Context) (decimal.Decimal, error)
	topFn     func(ctx context.Context, n int) ([]*domain.Employee, error)
	groupFn   func(ctx context.Context) (map[string][]*domain.Employee, error)
	byRoleFn  func(ctx context.Context, role string) (decimal.Decimal, error)
	averageFn func(ctx context.Context, department string) (decimal.Decimal, error)
	hiredFn   func(ctx context.Context, months int) ([]*domain.Employee, error)
}

func (s *stubEmployeeService) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	return s.getFn(ctx, id)
}

func (s *stubEmployeeService) CreateEmployee(ctx context.Context, in ports.CreateEmployeeInput) (*ports.CreateEmployeeResult, error) {
	return s.createFn(ctx, in)
}

func (s *stubEmployeeService) UpdateEmployee(ctx context.Context, in ports.UpdateEmployeeInput) (*domain.Employee, error) {
	return s.updateFn(ctx, in)
}

func (s *stubEmployeeService) DeleteEmployee(ctx context.Context, in ports.DeleteEmployeeInput) error {
	return s.deleteFn(ctx, in)
}

func (s *stubEmployeeService) TotalPayroll(ctx context.Context) (decimal.Decimal, error) {
	return s.totalFn(ctx)
}

func (s *stubEmployeeService) TopNBySalary(ctx context.Context, n int) ([]*domain.Employee, error) {
	return s.topFn(ctx, n)
}

func (s *stubEmployeeService) GroupByDepartment(ctx context.Context) (map[string][]*domain.Employee, error) {
	return s.groupFn(ctx)
}

func (s *stubEmployeeService) PayrollByRole(ctx context.Context, role string) (decimal.Decimal, error) {
	return s.byRoleFn(ctx, role)
}

func (s *stubEmployeeService) AverageSalaryByDepartment(ctx context.Context, department string) (decimal.Decimal, error) {
	return s.averageFn(ctx, department)
}

func (s *stubEmployeeService) HiredWithinMonths(ctx context.Context, months int) ([]*domain.Employee, error) {
	return s.hiredFn(ctx, months)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func sampleEmployee() *domain.Employee {
	salary := decimal.RequireFromString("65000.5")
	hired := time.Date(2023, time.May, 4, 0, 0, 0, 0, time.UTC)
	return &domain.Employee{
		ID:         "emp-1",
		Name:       "Ana",
		Role:       "developer",
		Salary:     &salary,
		Department: "IT",
		HiringDate: &hired,
	}
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestEmployeeHandler_Get(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		getFn: func(_ context.Context, id string) (*domain.Employee, error) {
			assert.Equal(t, "emp-1", id)
			return sampleEmployee(), nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/employees/emp-1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("emp-1")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "emp-1", resp["id"])
	assert.Equal(t, 65000.5, resp["salary"])
	assert.Equal(t, "2023-05-04", resp["hiring_date"])
	assert.Equal(t, "IT", resp["department"])
}

func TestEmployeeHandler_Get_NotFoundPassesThrough(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		getFn: func(context.Context, string) (*domain.Employee, error) {
			return nil, domain.ErrEmployeeNotFound
		},
	})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := h.Get(c)
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestEmployeeHandler_Create(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		createFn: func(_ context.Context, in ports.CreateEmployeeInput) (*ports.CreateEmployeeResult, error) {
			require.NotNil(t, in.Name)
			assert.Equal(t, "Ana", *in.Name)
			require.NotNil(t, in.Salary)
			assert.True(t, in.Salary.Equal(decimal.RequireFromString("65000.5")))
			require.NotNil(t, in.HiringDate)
			assert.Equal(t, time.Date(2023, time.May, 4, 0, 0, 0, 0, time.UTC), *in.HiringDate)
			assert.Equal(t, "key-1", in.IdempotencyKey)
			assert.Equal(t, "root", in.Actor)
			return &ports.CreateEmployeeResult{Employee: sampleEmployee()}, nil
		},
	})

	req := jsonRequest(http.MethodPost, "/api/employees",
		`{"name":"Ana","role":"developer","salary":65000.5,"department":"IT","hiring_date":"2023-05-04"}`)
	req.Header.Set(HeaderIdempotencyKey, "key-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUsername, "root")

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEmployeeHandler_Create_ReplayReturns200(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		createFn: func(context.Context, ports.CreateEmployeeInput) (*ports.CreateEmployeeResult, error) {
			return &ports.CreateEmployeeResult{Employee: sampleEmployee(), AlreadyExisted: true}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/employees", `{"name":"Ana","role":"developer","salary":1}`), rec)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeeHandler_Create_BadInput(t *testing.T) {
	h := NewEmployeeHandler(&stubEmployeeService{
		createFn: func(context.Context, ports.CreateEmployeeInput) (*ports.CreateEmployeeResult, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	})

	t.Run("malformed json", func(t *testing.T) {
		c := newTestEcho().NewContext(jsonRequest(http.MethodPost, "/", "{"), httptest.NewRecorder())
		assert.Equal(t, http.StatusBadRequest, httpCode(t, h.Create(c)))
	})

	t.Run("bad date format", func(t *testing.T) {
		c := newTestEcho().NewContext(jsonRequest(http.MethodPost, "/", `{"name":"Ana","role":"dev","salary":1,"hiring_date":"04/05/2023"}`), httptest.NewRecorder())
		assert.Equal(t, http.StatusUnprocessableEntity, httpCode(t, h.Create(c)))
	})
}

func TestEmployeeHandler_Update_IgnoresDepartment(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		updateFn: func(_ context.Context, in ports.UpdateEmployeeInput) (*domain.Employee, error) {
			assert.Equal(t, "emp-1", in.ID)
			assert.Equal(t, "Ana Maria", in.Patch.Name)
			assert.Nil(t, in.Patch.HiringDate)
			return sampleEmployee(), nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/api/employees/emp-1",
		`{"name":"Ana Maria","role":"developer","salary":70000,"department":"Sales"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("emp-1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmployeeHandler_Delete(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		deleteFn: func(_ context.Context, in ports.DeleteEmployeeInput) error {
			if in.ID == "missing" {
				return domain.ErrEmployeeNotFound
			}
			return nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("emp-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")
	assert.ErrorIs(t, h.Delete(c), domain.ErrEmployeeNotFound)
}

func TestEmployeeHandler_TotalPayroll(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		totalFn: func(context.Context) (decimal.Decimal, error) {
			return decimal.NewFromInt(157500), nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/employees/payroll", nil), rec)

	require.NoError(t, h.TotalPayroll(c))
	assert.JSONEq(t, `{"total_payroll":157500}`, rec.Body.String())
}

func TestEmployeeHandler_TopSalaries(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		topFn: func(_ context.Context, n int) ([]*domain.Employee, error) {
			assert.Equal(t, 3, n)
			return []*domain.Employee{sampleEmployee()}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("n")
	c.SetParamValues("3")
	require.NoError(t, h.TopSalaries(c))

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("n")
	c.SetParamValues("three")
	assert.Equal(t, http.StatusBadRequest, httpCode(t, h.TopSalaries(c)))
}

func TestEmployeeHandler_GroupedByDepartment(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		groupFn: func(context.Context) (map[string][]*domain.Employee, error) {
			return map[string][]*domain.Employee{"IT": {sampleEmployee()}}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, h.GroupedByDepartment(c))

	var resp map[string][]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp["IT"], 1)
	assert.Equal(t, "Ana", resp["IT"][0]["name"])
}

func TestEmployeeHandler_PayrollByRoleAndAverage(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		byRoleFn: func(_ context.Context, role string) (decimal.Decimal, error) {
			assert.Equal(t, "Developer", role)
			return decimal.NewFromInt(130000), nil
		},
		averageFn: func(_ context.Context, department string) (decimal.Decimal, error) {
			return decimal.Zero, domain.ErrDepartmentNotFound
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("role")
	c.SetParamValues("Developer")
	require.NoError(t, h.PayrollByRole(c))
	assert.JSONEq(t, `{"role":"Developer","total_payroll":130000}`, rec.Body.String())

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("department")
	c.SetParamValues("Sales")
	assert.ErrorIs(t, h.AverageSalary(c), domain.ErrDepartmentNotFound)
}

func TestEmployeeHandler_HiredInLast(t *testing.T) {
	e := newTestEcho()
	h := NewEmployeeHandler(&stubEmployeeService{
		hiredFn: func(_ context.Context, months int) ([]*domain.Employee, error) {
			assert.Equal(t, 12, months)
			return []*domain.Employee{}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("months")
	c.SetParamValues("12")
	require.NoError(t, h.HiredInLast(c))
	assert.JSONEq(t, `[]`, rec.Body.String())
}
