// Package catalog projects and filters SFMC data extension catalog metadata.
package catalog

import "strings"

// Row is a single catalog entry as returned by the SOAP retrieve call.
// Retrieves project more fields than these two; everything else is ignored.
type Row struct {
	Name        string
	CustomerKey string
}

// Record is the outward representation of a catalog entry.
type Record struct {
	Name        string `json:"name"`
	ExternalKey string `json:"external_key"`
}

// SystemPrefix marks data extensions created by the platform itself.
const SystemPrefix = "_"

// ExcludedSubstrings lists name fragments of platform-internal data
// extensions that must never appear in catalog listings. The list tracks
// SFMC naming conventions and is maintained by hand; matching is
// case-sensitive.
var ExcludedSubstrings = []string{
	"dts",
	"IGO_",
	"Einstein_MC_",
	"PI_",
	"SocialPages_DataExtension",
	"CloudPages_DataExtension",
	"ExpressionBuilderAttributes",
	"QueryStudioResults",
	"MobileLineOrphanContact",
	"TestSendRecipient",
	"SimulationSupportDE",
}

// Excluded reports whether a data extension name is system-reserved or
// platform-internal and has to be hidden from listings.
func Excluded(name string) bool {
	if strings.HasPrefix(name, SystemPrefix) {
		return true
	}
	for _, substring := range ExcludedSubstrings {
		if strings.Contains(name, substring) {
			return true
		}
	}
	return false
}

// Project maps catalog rows 1:1 onto records. Rows with missing fields keep
// their empty values, they are never rejected.
func Project(rows []Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Name:        row.Name,
			ExternalKey: row.CustomerKey,
		})
	}
	return records
}

// Filter drops excluded records, preserving the input order. The returned
// slice is never nil so an empty result serializes as a JSON array.
func Filter(records []Record) []Record {
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if !Excluded(record.Name) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
