package report

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/evaladmin/core/evaluation"
)

// WriteCSV writes the columns then one record per row.
func WriteCSV(w io.Writer, rep Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rep.Columns); err != nil {
		return errors.Wrap(err, "writing CSV headers")
	}
	if err := writer.WriteAll(rep.Rows); err != nil {
		return errors.Wrap(err, "writing CSV records")
	}
	return errors.Wrap(writer.Error(), "flushing CSV")
}

// WriteJSON writes the report as a JSON object holding the title, columns and rows.
func WriteJSON(w io.Writer, rep Report) error {
	if rep.Rows == nil {
		rep.Rows = [][]string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(rep), "encoding JSON")
}

// ContentType returns the MIME type of the export format.
func ContentType(format string) string {
	if format == evaluation.FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Write writes the report in the export format.
func Write(w io.Writer, format string, rep Report) error {
	if format == evaluation.FormatJSON {
		return WriteJSON(w, rep)
	}
	return WriteCSV(w, rep)
}
