// Package dataset inspects uploaded CSV datasets without staging them.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/datenblick/datenblick/pkg/api"
)

// DefaultPreviewRows is the number of data rows a preview returns when the
// caller does not ask for a specific count.
const DefaultPreviewRows = 10

// maxPreviewRows bounds how much of an upload a single preview may pull in.
const maxPreviewRows = 100

// Preview holds the header and the first rows of a CSV dataset.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`

	// Truncated is true when the dataset has more rows than the preview
	// shows.
	Truncated bool `json:"truncated"`
}

// Read parses the first rows of a CSV stream. The first record is treated
// as the header. A rows value of zero means DefaultPreviewRows; values
// above maxPreviewRows are clamped.
func Read(r io.Reader, rows int) (*Preview, error) {
	if rows <= 0 {
		rows = DefaultPreviewRows
	}
	if rows > maxPreviewRows {
		rows = maxPreviewRows
	}

	cr := csv.NewReader(r)
	// Uploads in the wild have ragged rows more often than not; surface
	// them as-is instead of rejecting the whole file.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, api.NewInvalidRequestError("dataset", "dataset is empty")
	}
	if err != nil {
		return nil, api.NewInvalidRequestError("dataset", fmt.Sprintf("invalid CSV: %s", err.Error()))
	}

	preview := &Preview{
		Columns: header,
		Rows:    [][]string{},
	}

	for len(preview.Rows) < rows {
		record, err := cr.Read()
		if err == io.EOF {
			return preview, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, api.NewInvalidRequestError("dataset", fmt.Sprintf("invalid CSV at line %d: %s", parseErr.Line, parseErr.Err.Error()))
			}
			return nil, api.NewInvalidRequestError("dataset", fmt.Sprintf("invalid CSV: %s", err.Error()))
		}
		preview.Rows = append(preview.Rows, record)
	}

	// One more read decides whether the dataset continues past the preview.
	if _, err := cr.Read(); err != io.EOF {
		preview.Truncated = true
	}
	return preview, nil
}
