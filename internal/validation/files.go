package validation

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Project document bounds, inclusive.
const (
	DocumentMinSize = 100 << 10 // 100 KB
	DocumentMaxSize = 500 << 10 // 500 KB
)

// ImportMaxSize caps spreadsheet uploads.
const ImportMaxSize = 2 << 20 // 2 MB

// ValidateDocument checks a project document upload: PDF only, size within
// [100 KB, 500 KB]. Runs before anything is written to storage.
func ValidateDocument(fh *multipart.FileHeader) Errors {
	errs := make(Errors)
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType := fh.Header.Get("Content-Type")
	if ext != ".pdf" && contentType != "application/pdf" {
		errs.Add("document", "The document must be a file of type: pdf.")
	}
	if fh.Size < DocumentMinSize {
		errs.Add("document", "The document must be at least 100 kilobytes.")
	}
	if fh.Size > DocumentMaxSize {
		errs.Add("document", "The document must not be greater than 500 kilobytes.")
	}
	return errs
}

// ValidateImportFile checks a spreadsheet upload: xlsx/xls/csv, at most 2 MB.
func ValidateImportFile(fh *multipart.FileHeader) Errors {
	errs := make(Errors)
	if fh == nil {
		errs.Add("file", "The file field is required.")
		return errs
	}
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".xlsx", ".xls", ".csv":
	default:
		errs.Add("file", "The file must be a file of type: xlsx, xls, csv.")
	}
	if fh.Size > ImportMaxSize {
		errs.Add("file", "The file must not be greater than 2048 kilobytes.")
	}
	return errs
}
