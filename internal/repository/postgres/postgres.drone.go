// FilePath: internal/repository/postgres/postgres.drone.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/database"
	"github.com/TomSft15/TelloDroneHub/internal/errors"
	"github.com/TomSft15/TelloDroneHub/internal/models"
)

type DroneRepo struct {
	PostgresBaseRepo
}

func NewDroneRepository(db database.DB) *DroneRepo {
	repo := &PostgresBaseRepo{db: db}
	return &DroneRepo{PostgresBaseRepo: *repo}
}

func (r *DroneRepo) Create(ctx context.Context, drone *models.Drone) error {
	query := `
		INSERT INTO drones (
			id, name, model, serial_number, owner_id, status,
			battery_level, last_connection, firmware, key_bindings,
			created_at, updated_at
		) VALUES (
			:id, :name, :model, :serial_number, :owner_id, :status,
			:battery_level, :last_connection, :firmware, :key_bindings,
			:created_at, :updated_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, drone)
	if err != nil {
		return errors.NewDatabaseError("failed to create drone", err)
	}
	return nil
}

func (r *DroneRepo) Get(ctx context.Context, id string) (*models.Drone, error) {
	drone := &models.Drone{}
	query := `SELECT * FROM drones WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, drone, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("drone not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get drone", err)
	}
	return drone, nil
}

func (r *DroneRepo) Update(ctx context.Context, drone *models.Drone) error {
	query := `
		UPDATE drones SET
			name = :name,
			model = :model,
			serial_number = :serial_number,
			status = :status,
			battery_level = :battery_level,
			last_connection = :last_connection,
			firmware = :firmware,
			key_bindings = :key_bindings,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, drone)
	if err != nil {
		return errors.NewDatabaseError("failed to update drone", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("drone not found", nil)
	}

	return nil
}

func (r *DroneRepo) UpdateStatus(ctx context.Context, id, status string, lastConnection time.Time) error {
	query := `UPDATE drones SET status = $1, last_connection = $2, updated_at = $2 WHERE id = $3`
	result, err := r.db.GetDB().ExecContext(ctx, query, status, lastConnection, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update drone status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("drone not found", nil)
	}

	return nil
}

func (r *DroneRepo) UpdateBattery(ctx context.Context, id string, batteryLevel int) error {
	query := `UPDATE drones SET battery_level = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.GetDB().ExecContext(ctx, query, batteryLevel, time.Now(), id)
	if err != nil {
		return errors.NewDatabaseError("failed to update drone battery", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("drone not found", nil)
	}

	return nil
}

func (r *DroneRepo) UpdateKeyBindings(ctx context.Context, id string, bindings models.KeyBindings) error {
	query := `UPDATE drones SET key_bindings = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.GetDB().ExecContext(ctx, query, bindings, time.Now(), id)
	if err != nil {
		return errors.NewDatabaseError("failed to update key bindings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("drone not found", nil)
	}

	return nil
}

func (r *DroneRepo) List(ctx context.Context, offset, limit int) ([]*models.Drone, error) {
	drones := []*models.Drone{}
	query := `SELECT * FROM drones ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := r.db.GetDB().SelectContext(ctx, &drones, query, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list drones", err)
	}

	return drones, nil
}

func (r *DroneRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*models.Drone, error) {
	drones := []*models.Drone{}
	query := `SELECT * FROM drones WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	err := r.db.GetDB().SelectContext(ctx, &drones, query, ownerID, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list drones by owner", err)
	}

	return drones, nil
}

func (r *DroneRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM drones WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete drone", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("drone not found", nil)
	}

	return nil
}
