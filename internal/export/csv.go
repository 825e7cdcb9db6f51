// Package export renders the journal as a CSV download.
package export

import (
	"io"
	"strings"

	"trading-journal-go/internal/models"
)

// Filename is the suggested name of the downloaded file.
const Filename = "trades_export.csv"

// ContentType is the MIME type of the export.
const ContentType = "text/csv"

var header = []string{"Date", "Pair", "Position", "Lot", "Profit", "Result", "Notes"}

// WriteCSV writes one row per trade, in the given order, after a header row.
// Notes are always quoted; other fields only when they need it.
func WriteCSV(w io.Writer, trades []models.Trade) error {
	_, err := io.WriteString(w, CSV(trades))
	return err
}

// CSV returns the export as a string. Lines are separated by "\n" with no trailing newline.
func CSV(trades []models.Trade) string {
	lines := make([]string, 0, len(trades)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, t := range trades {
		lines = append(lines, strings.Join([]string{
			field(t.DisplayDate()),
			field(t.Pair),
			field(string(t.Position)),
			t.Lot.String(),
			t.Profit.String(),
			field(string(t.Result)),
			quote(t.Notes),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
