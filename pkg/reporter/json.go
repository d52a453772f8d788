package reporter

import (
	"encoding/json"
	"fmt"
	"io"
)

// GenerateJSON writes the report as an indented JSON document
func GenerateJSON(report *Report, writer io.Writer) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
