package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

func TestAuthRepository_Create_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewAuthRepository(mock)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertUser)).
		WithArgs("alice", "alice@example.com", "hash", domain.RoleAdmin, now, now).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	_, err := repo.Create(context.Background(), &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	assert.ErrorIs(t, err, domain.ErrUserExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRepository_FindByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAuthRepository(mock)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(queryFindUserByEmail)).
		WithArgs("alice@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("1", "alice", "alice@example.com", "hash", domain.RoleViewer, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(queryFindUserByEmail)).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, domain.RoleViewer, u.Role)

	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_InsertEvent(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(queryInsertEmployeeEvent)).
		WithArgs(testID1, "created", "admin", ts).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertEvent(context.Background(), &domain.EmployeeEvent{
		EmployeeID: testID1,
		Action:     domain.ActionCreated,
		Actor:      "admin",
		Timestamp:  ts,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
