package model

// ReportError aggregates one error field/code pair inside a data extension.
// Unique counts affected records, Count counts raw error occurrences (a
// record can raise the same error code on several fields).
type ReportError struct {
	Name         string `json:"name"`
	ErrorMessage string `json:"error_message"`
	Unique       int    `json:"unique"`
	Count        int    `json:"count"`
}

// Report collects the errors of one data extension and result error code,
// keyed by "{field}:{errorCode}".
type Report struct {
	DataExtension string                  `json:"data_extension"`
	Errors        map[string]*ReportError `json:"errors"`
}
