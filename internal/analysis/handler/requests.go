package handler

import (
	"encoding/json"
	"fmt"

	"verity/internal/detection"
	"verity/internal/trust"
	dErrors "verity/pkg/domain-errors"
)

// requiredFields must be present as keys on every analysed record. Presence
// is what counts; empty values are accepted.
var requiredFields = []string{"name", "dob", "email", "phone", "faceAge", "deviceId", "ip", "formTime", "userId"}

// InvalidRecord names the missing fields of one batch entry.
type InvalidRecord struct {
	Index         int      `json:"index"`
	MissingFields []string `json:"missingFields"`
}

// AnalyzeRequest is the body of POST /api/analyze: either one record checked
// against the reference population or a batch checked against itself.
type AnalyzeRequest struct {
	Record  json.RawMessage `json:"record"`
	Records json.RawMessage `json:"records"`

	single  *detection.Record
	records []detection.Record
}

func (r *AnalyzeRequest) Validate() error {
	if len(r.Record) > 0 && string(r.Record) != "null" {
		record, missing, err := parseRecord(r.Record)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "record must be an object")
		}
		if len(missing) > 0 {
			return dErrors.WithDetails(dErrors.CodeValidation, "Record is missing required fields",
				map[string]any{"missingFields": missing})
		}
		r.single = &record
		return nil
	}

	var raws []json.RawMessage
	if len(r.Records) == 0 || json.Unmarshal(r.Records, &raws) != nil || raws == nil {
		return dErrors.New(dErrors.CodeBadRequest, "Invalid request format. Expected { records: [...] }")
	}
	if len(raws) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "No records provided for analysis")
	}

	var invalid []InvalidRecord
	records := make([]detection.Record, 0, len(raws))
	for i, raw := range raws {
		record, missing, err := parseRecord(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("record %d is malformed", i))
		}
		if len(missing) > 0 {
			invalid = append(invalid, InvalidRecord{Index: i, MissingFields: missing})
			continue
		}
		records = append(records, record)
	}
	if len(invalid) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "Some records are missing required fields",
			map[string]any{"invalidRecords": invalid})
	}
	r.records = records
	return nil
}

// parseRecord decodes one record and lists the required keys it lacks.
func parseRecord(raw json.RawMessage) (detection.Record, []string, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil || keys == nil {
		return detection.Record{}, nil, dErrors.New(dErrors.CodeBadRequest, "record must be an object")
	}
	var missing []string
	for _, field := range requiredFields {
		if _, ok := keys[field]; !ok {
			missing = append(missing, field)
		}
	}
	var record detection.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return detection.Record{}, nil, err
	}
	return record, missing, nil
}

// Biometric is the camera evidence of a unified request.
type Biometric struct {
	VisualAge        float64 `json:"visualAge"`
	LivenessVerified *bool   `json:"livenessVerified,omitempty"`
}

// UnifiedRequest is the body of POST /api/unified.
type UnifiedRequest struct {
	Record    *detection.Record `json:"record"`
	Behavior  *trust.Behavior   `json:"behavior"`
	Biometric *Biometric        `json:"biometric"`
}

func (r *UnifiedRequest) Validate() error {
	if r.Record == nil {
		return dErrors.New(dErrors.CodeValidation, "record is required")
	}
	if r.Biometric != nil && (r.Biometric.VisualAge < 0 || r.Biometric.VisualAge > 150) {
		return dErrors.New(dErrors.CodeValidation, "biometric.visualAge must be between 0 and 150")
	}
	return nil
}
