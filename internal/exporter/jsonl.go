package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/RowanDark/vigil/internal/cracker"
	"github.com/RowanDark/vigil/internal/findings"
)

type jsonlEntry struct {
	Type    string            `json:"type"`
	Result  *cracker.Result   `json:"result,omitempty"`
	Finding *findings.Finding `json:"finding,omitempty"`
}

// EncodeJSONL renders each ranked result followed by each flag finding as
// JSON Lines, one entry per line.
func EncodeJSONL(req Request) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	for i := range req.Results {
		if err := encoder.Encode(jsonlEntry{Type: "result", Result: &req.Results[i]}); err != nil {
			return nil, fmt.Errorf("encode result entry %d: %w", i, err)
		}
	}
	for i := range req.Findings {
		if err := encoder.Encode(jsonlEntry{Type: "finding", Finding: &req.Findings[i]}); err != nil {
			return nil, fmt.Errorf("encode finding entry %s: %w", req.Findings[i].ID, err)
		}
	}
	return buf.Bytes(), nil
}
