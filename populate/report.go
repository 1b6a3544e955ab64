package populate

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/nsiqueira/sfmcli/model"
	"github.com/nsiqueira/sfmcli/sfmc"
	"github.com/nsiqueira/sfmcli/upload"
)

// BuildReport aggregates the async-results errors of all pages copied into a
// target environment. Reports are keyed by "{dataExtensionID}:{errorCode}",
// their errors by "{field}:{errorCode}". Per-page faults are logged and
// skipped so one unreadable result set does not hide the rest.
func (p *Populator) BuildReport(ctx context.Context, target *sfmc.Client) (map[string]*model.Report, error) {
	dataExtensions, err := p.dataExtensionDB.SelectAllByTargetInstance(target.Environment.Name)
	if err != nil {
		return nil, err
	}

	reports := map[string]*model.Report{}
	for _, dataExtension := range dataExtensions {
		pages, err := p.pageDB.SelectAllPagesByDataExtension(dataExtension.ID)
		if err != nil {
			return nil, err
		}

		for _, page := range pages {
			if page.RequestID == "" {
				continue
			}

			results, err := target.AsyncResults(ctx, page.RequestID)
			if err != nil {
				p.logger.Error("Failed to fetch async results", "page", page.RID, "request_id", page.RequestID, "error", err)
				continue
			}

			p.aggregateResults(reports, dataExtension, results)
		}
	}

	return reports, nil
}

func (p *Populator) aggregateResults(reports map[string]*model.Report, dataExtension *model.DataExtension, results []sfmc.AsyncResult) {
	for _, result := range results {
		if result.Status != "Error" {
			continue
		}

		reportKey := fmt.Sprintf("%d:%v", dataExtension.ID, result.ErrorCode)
		report, ok := reports[reportKey]
		if !ok {
			report = &model.Report{
				DataExtension: dataExtension.Name,
				Errors:        map[string]*model.ReportError{},
			}
			reports[reportKey] = report
		}

		if result.Message != "Errors Occurred" {
			continue
		}

		// One record can fail the same error key at most once for the
		// unique count, while every occurrence raises the raw count.
		countedKeys := map[string]bool{}
		for _, resultError := range result.Errors {
			errorKey := fmt.Sprintf("%s:%v", resultError.Name, resultError.ErrorCode)
			reportError, ok := report.Errors[errorKey]
			if !ok {
				reportError = &model.ReportError{
					Name:         resultError.Name,
					ErrorMessage: resultError.ErrorMessage,
				}
				report.Errors[errorKey] = reportError
			}

			if !countedKeys[errorKey] {
				reportError.Unique++
				countedKeys[errorKey] = true
			}
			reportError.Count++
		}
	}
}

var reportCSVHeader = []string{"data_extension", "error_field", "error_message", "unique", "count"}

// WriteReportCSV renders the aggregated reports as CSV, with rows sorted by
// report and error key for stable output.
func WriteReportCSV(reports map[string]*model.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(reportCSVHeader); err != nil {
		return nil, err
	}

	reportKeys := make([]string, 0, len(reports))
	for key := range reports {
		reportKeys = append(reportKeys, key)
	}
	sort.Strings(reportKeys)

	for _, reportKey := range reportKeys {
		report := reports[reportKey]

		errorKeys := make([]string, 0, len(report.Errors))
		for key := range report.Errors {
			errorKeys = append(errorKeys, key)
		}
		sort.Strings(errorKeys)

		for _, errorKey := range errorKeys {
			reportError := report.Errors[errorKey]
			row := []string{
				report.DataExtension,
				reportError.Name,
				reportError.ErrorMessage,
				strconv.Itoa(reportError.Unique),
				strconv.Itoa(reportError.Count),
			}
			if err := writer.Write(row); err != nil {
				return nil, err
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ExportReport writes the CSV rendering of the reports to the configured
// storage filesystem and returns the stored file name.
func (p *Populator) ExportReport(reports map[string]*model.Report, filesystem upload.Filesystem, filename string) error {
	data, err := WriteReportCSV(reports)
	if err != nil {
		return err
	}

	if err := filesystem.Write(filename, bytes.NewReader(data), int64(len(data))); err != nil {
		return err
	}

	p.logger.Info("Exported report", "file", filename, "reports", len(reports))

	return nil
}
