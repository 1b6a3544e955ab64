package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nsiqueira/sfmcli/model"

	"github.com/google/uuid"
	"github.com/siherrmann/queuer/helper"
)

// DataExtensionDBHandlerFunctions defines the interface for DataExtension database operations.
type DataExtensionDBHandlerFunctions interface {
	CheckTableExistance() (bool, error)
	CreateTable() error
	DropTable() error
	InsertDataExtension(dataExtension *model.DataExtension) (*model.DataExtension, error)
	UpdateTargetInfo(rid uuid.UUID, targetExternalKey string, targetInstance string) (*model.DataExtension, error)
	DeleteDataExtension(rid uuid.UUID) error
	SelectDataExtension(rid uuid.UUID) (*model.DataExtension, error)
	SelectDataExtensionByID(id int) (*model.DataExtension, error)
	SelectDataExtensionByNameAndOrigin(name string, originInstance string) (*model.DataExtension, error)
	SelectAllWithTargets(originInstance string) ([]*model.DataExtension, error)
	SelectAllByTargetInstance(targetInstance string) ([]*model.DataExtension, error)
}

// DataExtensionDBHandler implements DataExtensionDBHandlerFunctions and holds the database connection.
type DataExtensionDBHandler struct {
	db *helper.Database
}

// NewDataExtensionDBHandler creates a new instance of DataExtensionDBHandler.
// If withTableDrop is true, it will drop the existing data_extension table before creating a new one.
func NewDataExtensionDBHandler(dbConnection *helper.Database, withTableDrop bool) (*DataExtensionDBHandler, error) {
	if dbConnection == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	dataExtensionDbHandler := &DataExtensionDBHandler{
		db: dbConnection,
	}

	if withTableDrop {
		err := dataExtensionDbHandler.DropTable()
		if err != nil {
			return nil, helper.NewError("drop table", err)
		}
	}

	err := dataExtensionDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	return dataExtensionDbHandler, nil
}

// CheckTableExistance checks if the 'data_extension' table exists in the database.
func (r DataExtensionDBHandler) CheckTableExistance() (bool, error) {
	dataExtensionExists, err := r.db.CheckTableExistance("data_extension")
	if err != nil {
		return false, helper.NewError("data_extension table", err)
	}
	return dataExtensionExists, nil
}

// CreateTable creates the 'data_extension' table in the database.
// If the table already exists, it does not create it again.
func (r DataExtensionDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
		CREATE TABLE IF NOT EXISTS data_extension (
			id SERIAL PRIMARY KEY,
			rid UUID UNIQUE NOT NULL DEFAULT gen_random_uuid(),
			name VARCHAR(200) NOT NULL,
			origin_external_key VARCHAR(200) NOT NULL DEFAULT '',
			origin_instance VARCHAR(100) NOT NULL DEFAULT '',
			target_external_key VARCHAR(200) NOT NULL DEFAULT '',
			target_instance VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			UNIQUE (name, origin_instance)
		);

		CREATE INDEX IF NOT EXISTS idx_data_extension_rid ON data_extension(rid);
		CREATE INDEX IF NOT EXISTS idx_data_extension_target_instance ON data_extension(target_instance);
	`

	_, err := r.db.Instance.ExecContext(ctx, query)
	if err != nil {
		return helper.NewError("create data_extension table", err)
	}

	r.db.Logger.Info("Checked/created table data_extension")

	return nil
}

// DropTable drops the 'data_extension' table from the database.
func (r DataExtensionDBHandler) DropTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// CASCADE also removes the pages referencing the extensions.
	query := `DROP TABLE IF EXISTS data_extension CASCADE`
	_, err := r.db.Instance.ExecContext(ctx, query)
	if err != nil {
		return helper.NewError("drop data_extension table", err)
	}

	r.db.Logger.Info("Dropped table data_extension")

	return nil
}

// InsertDataExtension inserts a new data extension record into the database.
func (r DataExtensionDBHandler) InsertDataExtension(dataExtension *model.DataExtension) (*model.DataExtension, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	newDataExtension := &model.DataExtension{}
	query := `
		INSERT INTO data_extension (
			name,
			origin_external_key,
			origin_instance,
			target_external_key,
			target_instance
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING
			id,
			rid,
			name,
			origin_external_key,
			origin_instance,
			target_external_key,
			target_instance,
			created_at,
			updated_at`

	err := r.db.Instance.QueryRowContext(ctx, query, dataExtension.Name, dataExtension.OriginExternalKey, dataExtension.OriginInstance, dataExtension.TargetExternalKey, dataExtension.TargetInstance).Scan(
		&newDataExtension.ID,
		&newDataExtension.RID,
		&newDataExtension.Name,
		&newDataExtension.OriginExternalKey,
		&newDataExtension.OriginInstance,
		&newDataExtension.TargetExternalKey,
		&newDataExtension.TargetInstance,
		&newDataExtension.CreatedAt,
		&newDataExtension.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("insert data extension", err)
	}

	return newDataExtension, nil
}

// UpdateTargetInfo attaches the target environment's external key to an
// existing data extension record.
func (r DataExtensionDBHandler) UpdateTargetInfo(rid uuid.UUID, targetExternalKey string, targetInstance string) (*model.DataExtension, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updatedDataExtension := &model.DataExtension{}
	query := `
		UPDATE data_extension
		SET
			target_external_key = $1,
			target_instance = $2,
			updated_at = NOW()
		WHERE rid = $3
		RETURNING
			id,
			rid,
			name,
			origin_external_key,
			origin_instance,
			target_external_key,
			target_instance,
			created_at,
			updated_at`

	err := r.db.Instance.QueryRowContext(ctx, query, targetExternalKey, targetInstance, rid).Scan(
		&updatedDataExtension.ID,
		&updatedDataExtension.RID,
		&updatedDataExtension.Name,
		&updatedDataExtension.OriginExternalKey,
		&updatedDataExtension.OriginInstance,
		&updatedDataExtension.TargetExternalKey,
		&updatedDataExtension.TargetInstance,
		&updatedDataExtension.CreatedAt,
		&updatedDataExtension.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewError("data extension not found", fmt.Errorf("no data extension with rid %s", rid))
		}
		return nil, helper.NewError("update data extension target info", err)
	}

	return updatedDataExtension, nil
}

// DeleteDataExtension deletes a data extension record from the database by RID.
func (r DataExtensionDBHandler) DeleteDataExtension(rid uuid.UUID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `DELETE FROM data_extension WHERE rid = $1`
	result, err := r.db.Instance.ExecContext(ctx, query, rid)
	if err != nil {
		return helper.NewError("delete data extension", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return helper.NewError("get rows affected", err)
	}

	if rowsAffected == 0 {
		return helper.NewError("data extension not found", fmt.Errorf("no data extension with rid %s", rid))
	}

	return nil
}

const selectDataExtensionColumns = `
		SELECT
			id,
			rid,
			name,
			origin_external_key,
			origin_instance,
			target_external_key,
			target_instance,
			created_at,
			updated_at
		FROM data_extension
`

func (r DataExtensionDBHandler) scanDataExtension(row *sql.Row, notFound string) (*model.DataExtension, error) {
	dataExtension := &model.DataExtension{}
	err := row.Scan(
		&dataExtension.ID,
		&dataExtension.RID,
		&dataExtension.Name,
		&dataExtension.OriginExternalKey,
		&dataExtension.OriginInstance,
		&dataExtension.TargetExternalKey,
		&dataExtension.TargetInstance,
		&dataExtension.CreatedAt,
		&dataExtension.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewError("data extension not found", fmt.Errorf("%s", notFound))
		}
		return nil, helper.NewError("select data extension", err)
	}
	return dataExtension, nil
}

// SelectDataExtension retrieves a data extension by RID from the database.
func (r DataExtensionDBHandler) SelectDataExtension(rid uuid.UUID) (*model.DataExtension, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := r.db.Instance.QueryRowContext(ctx, selectDataExtensionColumns+`WHERE rid = $1`, rid)
	return r.scanDataExtension(row, fmt.Sprintf("no data extension with rid %s", rid))
}

// SelectDataExtensionByID retrieves a data extension by its serial ID.
func (r DataExtensionDBHandler) SelectDataExtensionByID(id int) (*model.DataExtension, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := r.db.Instance.QueryRowContext(ctx, selectDataExtensionColumns+`WHERE id = $1`, id)
	return r.scanDataExtension(row, fmt.Sprintf("no data extension with id %d", id))
}

// SelectDataExtensionByNameAndOrigin retrieves a data extension by its name
// within one origin environment.
func (r DataExtensionDBHandler) SelectDataExtensionByNameAndOrigin(name string, originInstance string) (*model.DataExtension, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := r.db.Instance.QueryRowContext(ctx, selectDataExtensionColumns+`WHERE name = $1 AND origin_instance = $2`, name, originInstance)
	return r.scanDataExtension(row, fmt.Sprintf("no data extension %s in origin %s", name, originInstance))
}

func (r DataExtensionDBHandler) selectAll(query string, args ...any) ([]*model.DataExtension, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := r.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("select data extensions", err)
	}
	defer rows.Close()

	dataExtensions := []*model.DataExtension{}
	for rows.Next() {
		dataExtension := &model.DataExtension{}
		err := rows.Scan(
			&dataExtension.ID,
			&dataExtension.RID,
			&dataExtension.Name,
			&dataExtension.OriginExternalKey,
			&dataExtension.OriginInstance,
			&dataExtension.TargetExternalKey,
			&dataExtension.TargetInstance,
			&dataExtension.CreatedAt,
			&dataExtension.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan data extension", err)
		}
		dataExtensions = append(dataExtensions, dataExtension)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("iterate data extensions", err)
	}

	return dataExtensions, nil
}

// SelectAllWithTargets retrieves all data extensions of an origin environment
// that already have target info attached.
func (r DataExtensionDBHandler) SelectAllWithTargets(originInstance string) ([]*model.DataExtension, error) {
	return r.selectAll(selectDataExtensionColumns+`WHERE origin_instance = $1 AND target_instance <> '' ORDER BY id`, originInstance)
}

// SelectAllByTargetInstance retrieves all data extensions tracked for a
// target environment.
func (r DataExtensionDBHandler) SelectAllByTargetInstance(targetInstance string) ([]*model.DataExtension, error) {
	return r.selectAll(selectDataExtensionColumns+`WHERE target_instance = $1 ORDER BY id`, targetInstance)
}
