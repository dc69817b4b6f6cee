package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/RowanDark/vigil/internal/cracker"
)

var csvHeader = []string{
	"rank",
	"key",
	"key_length",
	"score",
	"source",
	"plaintext",
}

// EncodeCSV renders ranked results as comma-separated values suitable for
// spreadsheets. Rank is 1-based and mirrors the result order.
func EncodeCSV(results []cracker.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range results {
		record := []string{
			strconv.Itoa(i + 1),
			r.Key,
			strconv.Itoa(r.KeyLength),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			r.Source,
			r.Plaintext,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write result %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv writer: %w", err)
	}
	return buf.Bytes(), nil
}
