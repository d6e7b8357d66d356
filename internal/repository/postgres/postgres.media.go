// FilePath: internal/repository/postgres/postgres.media.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
)

type MediaRepo struct {
	PostgresBaseRepo
}

func NewMediaRepository(db database.DB) *MediaRepo {
	repo := &PostgresBaseRepo{db: db}
	return &MediaRepo{PostgresBaseRepo: *repo}
}

func (r *MediaRepo) Create(ctx context.Context, media *models.Media) error {
	query := `
		INSERT INTO media (
			id, drone_id, type, name, file_path, file_size, mime_type,
			width, height, duration, created_at
		) VALUES (
			:id, :drone_id, :type, :name, :file_path, :file_size, :mime_type,
			:width, :height, :duration, :created_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, media)
	if err != nil {
		return errors.NewDatabaseError("failed to create media record", err)
	}
	return nil
}

func (r *MediaRepo) Get(ctx context.Context, id string) (*models.Media, error) {
	media := &models.Media{}
	query := `SELECT * FROM media WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, media, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("media not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get media", err)
	}
	return media, nil
}

func (r *MediaRepo) ListByDrone(ctx context.Context, droneID string, filters models.MediaFilters) ([]*models.Media, error) {
	media := []*models.Media{}
	query := `
		SELECT * FROM media
		WHERE drone_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &media, query, droneID, filters.Type)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list media", err)
	}

	return media, nil
}

func (r *MediaRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM media WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete media", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("media not found", nil)
	}

	return nil
}

func (r *MediaRepo) DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error {
	query := `DELETE FROM media WHERE drone_id = $1`

	if tx != nil {
		if _, err := tx.ExecContext(ctx, query, droneID); err != nil {
			return errors.NewDatabaseError("failed to delete media records", err)
		}
		return nil
	}

	if _, err := r.db.GetDB().ExecContext(ctx, query, droneID); err != nil {
		return errors.NewDatabaseError("failed to delete media records", err)
	}
	return nil
}
