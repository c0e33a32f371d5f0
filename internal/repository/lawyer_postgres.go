package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"legalport/internal/domain"
)

type LawyerRepo struct {
	db DB
}

func NewLawyerRepository(db DB) *LawyerRepo {
	return &LawyerRepo{db: db}
}

const lawyerColumns = `id, name, email, specializations, experience_years, rating::float8, reviews_count,
	verified, image_url, bio, price_audio::float8, price_video::float8, price_chat::float8, created_at, updated_at`

func scanLawyer(row pgx.Row) (*domain.LawyerProfile, error) {
	var l domain.LawyerProfile
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Specializations,
		&l.ExperienceYears,
		&l.Rating,
		&l.ReviewsCount,
		&l.Verified,
		&l.ImageURL,
		&l.Bio,
		&l.Pricing.Audio,
		&l.Pricing.Video,
		&l.Pricing.Chat,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LawyerRepo) GetByID(ctx context.Context, id string) (*domain.LawyerProfile, error) {
	query := `SELECT ` + lawyerColumns + ` FROM lawyer_profiles WHERE id = $1`

	lawyer, err := scanLawyer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr("get lawyer", err)
	}
	return lawyer, nil
}

func (r *LawyerRepo) List(ctx context.Context, limit int) ([]domain.LawyerProfile, error) {
	query := `SELECT ` + lawyerColumns + ` FROM lawyer_profiles ORDER BY rating DESC, id LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, wrapErr("list lawyers", err)
	}
	defer rows.Close()

	lawyers := make([]domain.LawyerProfile, 0)
	for rows.Next() {
		lawyer, err := scanLawyer(rows)
		if err != nil {
			return nil, wrapErr("scan lawyer", err)
		}
		lawyers = append(lawyers, *lawyer)
	}

	return lawyers, wrapErr("list lawyers", rows.Err())
}
