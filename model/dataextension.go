package model

import (
	"time"

	"github.com/google/uuid"
)

// DataExtension tracks a data extension across an origin and a target
// SFMC environment during a populate run.
type DataExtension struct {
	ID                int       `json:"id"`
	RID               uuid.UUID `json:"rid"`
	Name              string    `json:"name"`
	OriginExternalKey string    `json:"origin_external_key"`
	OriginInstance    string    `json:"origin_instance"`
	TargetExternalKey string    `json:"target_external_key"`
	TargetInstance    string    `json:"target_instance"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Page statuses. A page starts as new, becomes processed once its rows were
// handed to the async rows API, and failed when any step of the copy errored.
const (
	PageStatusNew       = "new"
	PageStatusProcessed = "processed"
	PageStatusFailed    = "failed"
)

// DataExtensionPage is one rowset page of a data extension, planned before
// the copy and updated as the copy job runs. URL is unique per page so
// replanning an interrupted run never duplicates work.
type DataExtensionPage struct {
	ID              int       `json:"id"`
	RID             uuid.UUID `json:"rid"`
	URL             string    `json:"url"`
	DataExtensionID int       `json:"data_extension_id"`
	Status          string    `json:"status"`
	HasSFMCKey      bool      `json:"has_sfmc_key"`
	RequestID       string    `json:"request_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
