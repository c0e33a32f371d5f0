package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalport/internal/domain"
)

var lawyerRowColumns = []string{
	"id", "name", "email", "specializations", "experience_years", "rating", "reviews_count",
	"verified", "image_url", "bio", "price_audio", "price_video", "price_chat", "created_at", "updated_at",
}

func TestLawyerRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM lawyer_profiles ORDER BY rating DESC").WithArgs(100).
		WillReturnRows(pgxmock.NewRows(lawyerRowColumns).
			AddRow("l1", "Ann Lee", "ann@example.com", []string{"family", "tax"}, 12, 4.9, 31,
				true, "", "", 40.0, 60.0, 25.0, now, now).
			AddRow("l2", "Bo Kim", "bo@example.com", []string{}, 3, 4.1, 2,
				false, "", "", 20.0, 30.0, 10.0, now, now))

	lawyers, err := NewLawyerRepository(mock).List(context.Background(), 100)
	require.NoError(t, err)

	require.Len(t, lawyers, 2)
	assert.Equal(t, []string{"family", "tax"}, lawyers[0].Specializations)
	assert.Equal(t, 60.0, lawyers[0].PriceFor(domain.ServiceTypeVideo))
	assert.Equal(t, "l2", lawyers[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLawyerRepo_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM lawyer_profiles WHERE id").WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	_, err = NewLawyerRepository(mock).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
