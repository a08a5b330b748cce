package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenfield/copx/errors"
)

// Driver failures are tagged retryable-unavailable so callers can tell an
// outage apart from a domain error.
func TestReportStoreMapsDriverErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	s := NewReportStore(mockDB)

	mock.ExpectExec("UPDATE reports").
		WillReturnError(errors.New("disk I/O error"))

	saveErr := s.Save(context.Background(), testReport("r-1"))
	require.Error(t, saveErr)
	assert.True(t, errors.Is(saveErr, errors.ErrUnavailable))
	assert.False(t, errors.IsVersionConflict(saveErr))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStoreConflictAfterZeroRows(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	s := NewReportStore(mockDB)

	mock.ExpectExec("UPDATE reports").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	r := testReport("r-1")
	r.Version = 3
	saveErr := s.Save(context.Background(), r)
	require.Error(t, saveErr)
	assert.True(t, errors.IsVersionConflict(saveErr))

	require.NoError(t, mock.ExpectationsWereMet())
}
