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

// PageDBHandlerFunctions defines the interface for DataExtensionPage database operations.
type PageDBHandlerFunctions interface {
	CheckTableExistance() (bool, error)
	CreateTable() error
	DropTable() error
	InsertPage(page *model.DataExtensionPage) (*model.DataExtensionPage, error)
	UpdatePageStatus(rid uuid.UUID, status string) error
	UpdatePageProcessed(rid uuid.UUID, requestID string) error
	SelectPage(rid uuid.UUID) (*model.DataExtensionPage, error)
	SelectPageByURL(url string) (*model.DataExtensionPage, error)
	SelectAllPagesByStatus(status string) ([]*model.DataExtensionPage, error)
	SelectAllPagesByDataExtension(dataExtensionID int) ([]*model.DataExtensionPage, error)
}

// PageDBHandler implements PageDBHandlerFunctions and holds the database connection.
type PageDBHandler struct {
	db *helper.Database
}

// NewPageDBHandler creates a new instance of PageDBHandler.
// If withTableDrop is true, it will drop the existing data_extension_page table before creating a new one.
func NewPageDBHandler(dbConnection *helper.Database, withTableDrop bool) (*PageDBHandler, error) {
	if dbConnection == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	pageDbHandler := &PageDBHandler{
		db: dbConnection,
	}

	if withTableDrop {
		err := pageDbHandler.DropTable()
		if err != nil {
			return nil, helper.NewError("drop table", err)
		}
	}

	err := pageDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	return pageDbHandler, nil
}

// CheckTableExistance checks if the 'data_extension_page' table exists in the database.
func (r PageDBHandler) CheckTableExistance() (bool, error) {
	pageExists, err := r.db.CheckTableExistance("data_extension_page")
	if err != nil {
		return false, helper.NewError("data_extension_page table", err)
	}
	return pageExists, nil
}

// CreateTable creates the 'data_extension_page' table in the database.
// If the table already exists, it does not create it again.
func (r PageDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
		CREATE TABLE IF NOT EXISTS data_extension_page (
			id SERIAL PRIMARY KEY,
			rid UUID UNIQUE NOT NULL DEFAULT gen_random_uuid(),
			url TEXT UNIQUE NOT NULL,
			data_extension_id INTEGER NOT NULL REFERENCES data_extension(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'new',
			has_sfmc_key BOOLEAN NOT NULL DEFAULT FALSE,
			request_id VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_data_extension_page_rid ON data_extension_page(rid);
		CREATE INDEX IF NOT EXISTS idx_data_extension_page_status ON data_extension_page(status);
		CREATE INDEX IF NOT EXISTS idx_data_extension_page_data_extension_id ON data_extension_page(data_extension_id);
	`

	_, err := r.db.Instance.ExecContext(ctx, query)
	if err != nil {
		return helper.NewError("create data_extension_page table", err)
	}

	r.db.Logger.Info("Checked/created table data_extension_page")

	return nil
}

// DropTable drops the 'data_extension_page' table from the database.
func (r PageDBHandler) DropTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `DROP TABLE IF EXISTS data_extension_page`
	_, err := r.db.Instance.ExecContext(ctx, query)
	if err != nil {
		return helper.NewError("drop data_extension_page table", err)
	}

	r.db.Logger.Info("Dropped table data_extension_page")

	return nil
}

const selectPageColumns = `
		SELECT
			id,
			rid,
			url,
			data_extension_id,
			status,
			has_sfmc_key,
			request_id,
			created_at,
			updated_at
		FROM data_extension_page
`

// InsertPage inserts a new page record into the database.
func (r PageDBHandler) InsertPage(page *model.DataExtensionPage) (*model.DataExtensionPage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	newPage := &model.DataExtensionPage{}
	query := `
		INSERT INTO data_extension_page (
			url,
			data_extension_id,
			status,
			has_sfmc_key,
			request_id
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING
			id,
			rid,
			url,
			data_extension_id,
			status,
			has_sfmc_key,
			request_id,
			created_at,
			updated_at`

	err := r.db.Instance.QueryRowContext(ctx, query, page.URL, page.DataExtensionID, page.Status, page.HasSFMCKey, page.RequestID).Scan(
		&newPage.ID,
		&newPage.RID,
		&newPage.URL,
		&newPage.DataExtensionID,
		&newPage.Status,
		&newPage.HasSFMCKey,
		&newPage.RequestID,
		&newPage.CreatedAt,
		&newPage.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("insert page", err)
	}

	return newPage, nil
}

// UpdatePageStatus updates the status of a page.
func (r PageDBHandler) UpdatePageStatus(rid uuid.UUID, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `UPDATE data_extension_page SET status = $1, updated_at = NOW() WHERE rid = $2`
	result, err := r.db.Instance.ExecContext(ctx, query, status, rid)
	if err != nil {
		return helper.NewError("update page status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return helper.NewError("get rows affected", err)
	}

	if rowsAffected == 0 {
		return helper.NewError("page not found", fmt.Errorf("no page with rid %s", rid))
	}

	return nil
}

// UpdatePageProcessed marks a page processed and records the async request id
// returned by the rows API.
func (r PageDBHandler) UpdatePageProcessed(rid uuid.UUID, requestID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `UPDATE data_extension_page SET status = $1, request_id = $2, updated_at = NOW() WHERE rid = $3`
	result, err := r.db.Instance.ExecContext(ctx, query, model.PageStatusProcessed, requestID, rid)
	if err != nil {
		return helper.NewError("update page processed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return helper.NewError("get rows affected", err)
	}

	if rowsAffected == 0 {
		return helper.NewError("page not found", fmt.Errorf("no page with rid %s", rid))
	}

	return nil
}

func (r PageDBHandler) scanPage(row *sql.Row, notFound string) (*model.DataExtensionPage, error) {
	page := &model.DataExtensionPage{}
	err := row.Scan(
		&page.ID,
		&page.RID,
		&page.URL,
		&page.DataExtensionID,
		&page.Status,
		&page.HasSFMCKey,
		&page.RequestID,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, helper.NewError("page not found", fmt.Errorf("%s", notFound))
		}
		return nil, helper.NewError("select page", err)
	}
	return page, nil
}

// SelectPage retrieves a page by RID from the database.
func (r PageDBHandler) SelectPage(rid uuid.UUID) (*model.DataExtensionPage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := r.db.Instance.QueryRowContext(ctx, selectPageColumns+`WHERE rid = $1`, rid)
	return r.scanPage(row, fmt.Sprintf("no page with rid %s", rid))
}

// SelectPageByURL retrieves a page by its unique URL.
func (r PageDBHandler) SelectPageByURL(url string) (*model.DataExtensionPage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := r.db.Instance.QueryRowContext(ctx, selectPageColumns+`WHERE url = $1`, url)
	return r.scanPage(row, fmt.Sprintf("no page with url %s", url))
}

func (r PageDBHandler) selectAll(query string, args ...any) ([]*model.DataExtensionPage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := r.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("select pages", err)
	}
	defer rows.Close()

	pages := []*model.DataExtensionPage{}
	for rows.Next() {
		page := &model.DataExtensionPage{}
		err := rows.Scan(
			&page.ID,
			&page.RID,
			&page.URL,
			&page.DataExtensionID,
			&page.Status,
			&page.HasSFMCKey,
			&page.RequestID,
			&page.CreatedAt,
			&page.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan page", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("iterate pages", err)
	}

	return pages, nil
}

// SelectAllPagesByStatus retrieves all pages with the given status.
func (r PageDBHandler) SelectAllPagesByStatus(status string) ([]*model.DataExtensionPage, error) {
	return r.selectAll(selectPageColumns+`WHERE status = $1 ORDER BY id`, status)
}

// SelectAllPagesByDataExtension retrieves all pages of one data extension.
func (r PageDBHandler) SelectAllPagesByDataExtension(dataExtensionID int) ([]*model.DataExtensionPage, error) {
	return r.selectAll(selectPageColumns+`WHERE data_extension_id = $1 ORDER BY id`, dataExtensionID)
}
