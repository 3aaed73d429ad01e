package models

import "encoding/json"

// unmarshalCharges decodes the invoices.actual_charges_usd JSONB column
// (a map of charge-kind name to USD amount) into a typed map.
func unmarshalCharges(raw string) (map[ChargeKind]float64, error) {
	var flat map[string]float64
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return nil, err
	}
	out := make(map[ChargeKind]float64, len(flat))
	for k, v := range flat {
		out[ChargeKind(k)] = v
	}
	return out, nil
}

// marshalDetails serializes an arbitrary JSON-compatible value for storage
// in the audit_results.details column.
func marshalDetails(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalDetails(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
