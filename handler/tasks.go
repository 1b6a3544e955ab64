package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task keys registered on the queuer.
const (
	TaskCopyPage           = "copy-page"
	TaskClearDataExtension = "clear-data-extension"
	TaskExportReport       = "export-report"
)

const taskTimeout = 30 * time.Minute

// CopyPageTask is the queuer task behind a populate run: copy one planned
// rowset page from the origin to the target environment.
func (h *SyncHandler) CopyPageTask(pageRID string, originName string, targetName string) error {
	rid, err := uuid.Parse(pageRID)
	if err != nil {
		return fmt.Errorf("parse page rid %s: %w", pageRID, err)
	}

	origin, err := h.client(originName)
	if err != nil {
		return err
	}
	target, err := h.client(targetName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	return h.populator.CopyPage(ctx, origin, target, rid)
}

// ClearDataExtensionTask clears one tracked extension in the target
// environment and drops it from tracking.
func (h *SyncHandler) ClearDataExtensionTask(dataExtensionRID string, targetName string) error {
	rid, err := uuid.Parse(dataExtensionRID)
	if err != nil {
		return fmt.Errorf("parse data extension rid %s: %w", dataExtensionRID, err)
	}

	target, err := h.client(targetName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	return h.populator.CleanDataExtension(ctx, target, rid)
}

// ExportReportTask builds the error report of a target environment and
// writes it as CSV to the configured storage.
func (h *SyncHandler) ExportReportTask(targetName string) error {
	target, err := h.client(targetName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	reports, err := h.populator.BuildReport(ctx, target)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("report-%s-%s.csv", targetName, time.Now().Format("2006-01-02-150405"))

	return h.populator.ExportReport(reports, h.filesystem, filename)
}
