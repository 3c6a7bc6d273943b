package parcel

// BuildParcelJSONSchema returns the JSON-Schema every lookup response must
// satisfy before it is trusted as ground truth.
func BuildParcelJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"parcel_id": map[string]any{"type": "string", "minLength": 1},
			"county":    map[string]any{"type": "string", "minLength": 1},
			"fields": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": []string{"string", "null"},
				},
			},
		},
		"required": []string{"parcel_id", "county", "fields"},
	}
}
