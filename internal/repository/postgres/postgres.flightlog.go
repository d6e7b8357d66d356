// FilePath: internal/repository/postgres/postgres.flightlog.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
)

type FlightLogRepo struct {
	PostgresBaseRepo
}

func NewFlightLogRepository(db database.DB) *FlightLogRepo {
	repo := &PostgresBaseRepo{db: db}
	return &FlightLogRepo{PostgresBaseRepo: *repo}
}

func (r *FlightLogRepo) Create(ctx context.Context, log *models.FlightLog) error {
	query := `
		INSERT INTO flight_logs (
			id, drone_id, start_time, end_time, duration, max_altitude,
			max_speed, distance, battery_consumption, control_mode, path,
			created_at
		) VALUES (
			:id, :drone_id, :start_time, :end_time, :duration, :max_altitude,
			:max_speed, :distance, :battery_consumption, :control_mode, :path,
			:created_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, log)
	if err != nil {
		return errors.NewDatabaseError("failed to create flight log", err)
	}
	return nil
}

func (r *FlightLogRepo) Get(ctx context.Context, id string) (*models.FlightLog, error) {
	log := &models.FlightLog{}
	query := `SELECT * FROM flight_logs WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, log, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("flight log not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get flight log", err)
	}
	return log, nil
}

func (r *FlightLogRepo) Update(ctx context.Context, log *models.FlightLog) error {
	query := `
		UPDATE flight_logs SET
			end_time = :end_time,
			duration = :duration,
			max_altitude = :max_altitude,
			max_speed = :max_speed,
			distance = :distance,
			battery_consumption = :battery_consumption,
			path = :path
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, log)
	if err != nil {
		return errors.NewDatabaseError("failed to update flight log", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("flight log not found", nil)
	}

	return nil
}

// GetActive returns the newest flight log with a null end time for the drone
func (r *FlightLogRepo) GetActive(ctx context.Context, droneID string) (*models.FlightLog, error) {
	log := &models.FlightLog{}
	query := `
		SELECT * FROM flight_logs
		WHERE drone_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, log, query, droneID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no active flight log", err)
		}
		return nil, errors.NewDatabaseError("failed to get active flight log", err)
	}
	return log, nil
}

func (r *FlightLogRepo) ListByDrone(ctx context.Context, droneID string, offset, limit int) ([]*models.FlightLog, error) {
	logs := []*models.FlightLog{}
	query := `
		SELECT * FROM flight_logs
		WHERE drone_id = $1
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`

	err := r.db.GetDB().SelectContext(ctx, &logs, query, droneID, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list flight logs", err)
	}

	return logs, nil
}

// ListCompleted returns finished flights for a drone, optionally restricted
// to a [start, end] window, oldest first
func (r *FlightLogRepo) ListCompleted(ctx context.Context, droneID string, start, end *time.Time) ([]*models.FlightLog, error) {
	logs := []*models.FlightLog{}
	query := `
		SELECT * FROM flight_logs
		WHERE drone_id = $1 AND end_time IS NOT NULL
		  AND ($2::timestamptz IS NULL OR start_time >= $2)
		  AND ($3::timestamptz IS NULL OR end_time <= $3)
		ORDER BY start_time ASC`

	err := r.db.GetDB().SelectContext(ctx, &logs, query, droneID, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list completed flight logs", err)
	}

	return logs, nil
}

func (r *FlightLogRepo) DeleteByDrone(ctx context.Context, droneID string, tx database.Transaction) error {
	query := `DELETE FROM flight_logs WHERE drone_id = $1`

	if tx != nil {
		if _, err := tx.ExecContext(ctx, query, droneID); err != nil {
			return errors.NewDatabaseError("failed to delete flight logs", err)
		}
		return nil
	}

	if _, err := r.db.GetDB().ExecContext(ctx, query, droneID); err != nil {
		return errors.NewDatabaseError("failed to delete flight logs", err)
	}
	return nil
}
