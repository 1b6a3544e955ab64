package populate

import (
	"context"

	"github.com/nsiqueira/sfmcli/model"
	"github.com/nsiqueira/sfmcli/sfmc"

	"github.com/google/uuid"
)

// TrackedDataExtensions lists the extensions tracked for a target
// environment, the work list for clean and report runs.
func (p *Populator) TrackedDataExtensions(targetInstance string) ([]*model.DataExtension, error) {
	return p.dataExtensionDB.SelectAllByTargetInstance(targetInstance)
}

// CleanDataExtension clears all rows of one tracked extension in the target
// environment and drops it from the tracking database afterwards, so a later
// populate run starts from scratch for it.
func (p *Populator) CleanDataExtension(ctx context.Context, target *sfmc.Client, rid uuid.UUID) error {
	dataExtension, err := p.dataExtensionDB.SelectDataExtension(rid)
	if err != nil {
		return err
	}

	if err := target.ClearDataExtension(ctx, dataExtension.TargetExternalKey); err != nil {
		return err
	}

	if err := p.dataExtensionDB.DeleteDataExtension(dataExtension.RID); err != nil {
		return err
	}

	p.logger.Info("Cleaned data extension", "data_extension", dataExtension.Name, "target", target.Environment.Name)

	return nil
}
