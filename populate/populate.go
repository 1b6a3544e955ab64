// Package populate copies data extension rows between SFMC environments:
// catalog sync, page planning, per-page copy jobs, clean and error reports.
package populate

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/nsiqueira/sfmcli/catalog"
	"github.com/nsiqueira/sfmcli/database"
	"github.com/nsiqueira/sfmcli/metrics"
	"github.com/nsiqueira/sfmcli/model"
	"github.com/nsiqueira/sfmcli/sfmc"

	"github.com/google/uuid"
)

// Populator drives the populate pipeline against the tracking database.
// SFMC clients are passed per call since origin and target vary per run.
type Populator struct {
	dataExtensionDB database.DataExtensionDBHandlerFunctions
	pageDB          database.PageDBHandlerFunctions
	logger          *slog.Logger
	metrics         *metrics.Manager
}

// NewPopulator creates a populator. The metrics manager may be nil.
func NewPopulator(dataExtensionDB database.DataExtensionDBHandlerFunctions, pageDB database.PageDBHandlerFunctions, logger *slog.Logger, manager *metrics.Manager) *Populator {
	return &Populator{
		dataExtensionDB: dataExtensionDB,
		pageDB:          pageDB,
		logger:          logger,
		metrics:         manager,
	}
}

// SyncCatalog inserts every data extension of the origin environment that is
// not tracked yet. The catalog is filtered the same way the listing endpoint
// filters it, so system and platform-internal extensions never enter a run.
func (p *Populator) SyncCatalog(ctx context.Context, origin *sfmc.Client) error {
	rows, err := origin.RetrieveDataExtensions(ctx)
	if err != nil {
		return err
	}

	for _, record := range catalog.Filter(catalog.Project(rows)) {
		_, err := p.dataExtensionDB.SelectDataExtensionByNameAndOrigin(record.Name, origin.Environment.Name)
		if err == nil {
			continue
		}

		_, err = p.dataExtensionDB.InsertDataExtension(&model.DataExtension{
			Name:              record.Name,
			OriginExternalKey: record.ExternalKey,
			OriginInstance:    origin.Environment.Name,
		})
		if err != nil {
			return fmt.Errorf("insert data extension %s: %w", record.Name, err)
		}
	}

	return nil
}

// AttachTargets matches the target environment's catalog by name against the
// tracked origin extensions and records the target external keys.
func (p *Populator) AttachTargets(ctx context.Context, originInstance string, target *sfmc.Client) error {
	rows, err := target.RetrieveDataExtensions(ctx)
	if err != nil {
		return err
	}

	for _, record := range catalog.Filter(catalog.Project(rows)) {
		dataExtension, err := p.dataExtensionDB.SelectDataExtensionByNameAndOrigin(record.Name, originInstance)
		if err != nil {
			// Extension only exists in the target, nothing to copy into it.
			continue
		}

		_, err = p.dataExtensionDB.UpdateTargetInfo(dataExtension.RID, record.ExternalKey, target.Environment.Name)
		if err != nil {
			return fmt.Errorf("attach target for %s: %w", record.Name, err)
		}
	}

	return nil
}

// PlanPages plans the rowset pages of every matched extension of the origin
// environment and returns the number of newly planned pages. Extensions that
// are empty or exceed the copy row limit are skipped; per-extension faults
// are logged and do not abort the planning of the remaining extensions.
func (p *Populator) PlanPages(ctx context.Context, origin *sfmc.Client) (int, error) {
	dataExtensions, err := p.dataExtensionDB.SelectAllWithTargets(origin.Environment.Name)
	if err != nil {
		return 0, err
	}

	planned := 0
	for _, dataExtension := range dataExtensions {
		pages, err := p.planDataExtensionPages(ctx, origin, dataExtension)
		if err != nil {
			p.logger.Error("Failed to plan pages", "data_extension", dataExtension.Name, "error", err)
			continue
		}
		planned += pages
	}

	return planned, nil
}

func (p *Populator) planDataExtensionPages(ctx context.Context, origin *sfmc.Client, dataExtension *model.DataExtension) (int, error) {
	info, err := origin.RowsetInfo(ctx, dataExtension.OriginExternalKey)
	if err != nil {
		return 0, err
	}

	if info.Count > sfmc.MaxCopyRows {
		p.logger.Info("Skipped data extension, too many records", "data_extension", dataExtension.Name, "count", info.Count)
		return 0, nil
	}
	if info.Count == 0 {
		p.logger.Info("Skipped data extension, no rows", "data_extension", dataExtension.Name)
		return 0, nil
	}

	planned := 0
	pageCount := int(math.Ceil(float64(info.Count) / float64(info.PageSize)))
	for page := 1; page <= pageCount; page++ {
		pageURL := origin.RowsetURL(dataExtension.OriginExternalKey, info.PageSize, page)

		if _, err := p.pageDB.SelectPageByURL(pageURL); err == nil {
			// Already planned by an earlier, possibly interrupted run.
			continue
		}

		_, err := p.pageDB.InsertPage(&model.DataExtensionPage{
			URL:             pageURL,
			DataExtensionID: dataExtension.ID,
			Status:          model.PageStatusNew,
			HasSFMCKey:      info.HasSFMCKey,
		})
		if err != nil {
			return planned, fmt.Errorf("insert page %d of %s: %w", page, dataExtension.Name, err)
		}
		planned++
	}

	return planned, nil
}

// NewPages returns the planned pages still waiting to be copied. With
// updateOnly set, pages of extensions without an SFMC primary key are left
// out, so only upserts run.
func (p *Populator) NewPages(updateOnly bool) ([]*model.DataExtensionPage, error) {
	pages, err := p.pageDB.SelectAllPagesByStatus(model.PageStatusNew)
	if err != nil {
		return nil, err
	}

	if !updateOnly {
		return pages, nil
	}

	keyed := make([]*model.DataExtensionPage, 0, len(pages))
	for _, page := range pages {
		if page.HasSFMCKey {
			keyed = append(keyed, page)
		}
	}
	return keyed, nil
}

// CopyPage copies one planned page from origin to target: fetch the page
// rows, hand them to the target's async rows API and record the async
// request id. Any fault marks the page failed.
func (p *Populator) CopyPage(ctx context.Context, origin *sfmc.Client, target *sfmc.Client, pageRID uuid.UUID) error {
	page, err := p.pageDB.SelectPage(pageRID)
	if err != nil {
		return err
	}

	if page.Status != model.PageStatusNew {
		p.logger.Info("Skipped page, already handled", "page", page.RID, "status", page.Status)
		return nil
	}

	dataExtension, err := p.dataExtensionDB.SelectDataExtensionByID(page.DataExtensionID)
	if err != nil {
		return err
	}

	items, err := origin.FetchPage(ctx, page.URL)
	if err != nil {
		return p.failPage(page, err)
	}

	requestID, err := target.UpsertRows(ctx, dataExtension.TargetExternalKey, items, page.HasSFMCKey)
	if err != nil {
		return p.failPage(page, err)
	}

	if err := p.pageDB.UpdatePageProcessed(page.RID, requestID); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.PagesCopied.Inc()
	}
	p.logger.Info("Copied page", "page", page.RID, "data_extension", dataExtension.Name, "request_id", requestID)

	return nil
}

func (p *Populator) failPage(page *model.DataExtensionPage, cause error) error {
	if p.metrics != nil {
		p.metrics.CopyErrors.Inc()
	}
	if err := p.pageDB.UpdatePageStatus(page.RID, model.PageStatusFailed); err != nil {
		p.logger.Error("Failed to mark page failed", "page", page.RID, "error", err)
	}
	return cause
}
