package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/courseloom/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonProgressRepository_Upsert(t *testing.T) {
	completedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		progress  *models.LessonProgress
		setupMock func(sqlmock.Sqlmock)
		wantError bool
	}{
		{
			name: "mark completed",
			progress: &models.LessonProgress{
				EnrollmentID: 1,
				LessonID:     3,
				IsCompleted:  true,
				CompletedAt:  &completedAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lesson_progress`).
					WithArgs(1, 3, true, completedAt).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "un-mark writes null timestamp",
			progress: &models.LessonProgress{
				EnrollmentID: 1,
				LessonID:     3,
				IsCompleted:  false,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lesson_progress`).
					WithArgs(1, 3, false, nil).
					WillReturnResult(sqlmock.NewResult(1, 2))
			},
		},
		{
			name: "database error",
			progress: &models.LessonProgress{
				EnrollmentID: 1,
				LessonID:     3,
				IsCompleted:  true,
				CompletedAt:  &completedAt,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO lesson_progress`).
					WithArgs(1, 3, true, completedAt).
					WillReturnError(errors.New("database error"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			repo := NewLessonProgressRepository()
			err := repo.Upsert(context.Background(), db, tt.progress)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLessonProgressRepository_CountCompletedByEnrollment(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedCount int
		wantError     bool
	}{
		{
			name: "some lessons completed",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3)
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_progress WHERE enrollment_id = \? AND is_completed = TRUE`).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectedCount: 3,
		},
		{
			name: "no progress rows",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0)
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_progress WHERE enrollment_id = \? AND is_completed = TRUE`).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectedCount: 0,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_progress WHERE enrollment_id = \? AND is_completed = TRUE`).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			repo := NewLessonProgressRepository()
			count, err := repo.CountCompletedByEnrollment(context.Background(), db, 1)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCount, count)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
