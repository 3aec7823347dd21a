package detection

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// LoadReference reads a population of known legitimate users from a JSON or
// JSONC file. An empty path yields an empty population.
func LoadReference(path string) ([]Record, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference population: %w", err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes either a JSON array of records or an object with a
// "records" array. Comments and trailing commas are allowed.
func ParseRecords(data []byte) ([]Record, error) {
	data = jsonc.ToJSON(data)

	var records []Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var wrapped struct {
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return wrapped.Records, nil
}
