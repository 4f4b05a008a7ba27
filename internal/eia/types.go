package eia

import "encoding/json"

// Envelope is a raw EIA response body decoded without a fixed schema.
// The bronze layer persists envelopes as-is; the silver layer extracts
// the typed observation list with DecodeResponse.
type Envelope map[string]any

// Response is the typed portion of an EIA v2 data response.
type Response struct {
	Total       json.Number    `json:"total"`
	DateFormat  string         `json:"dateFormat"`
	Frequency   string         `json:"frequency"`
	Data        []SeriesRecord `json:"data"`
	Description string         `json:"description"`
}

// SeriesRecord is one reported observation. Value is left untyped
// because the API emits both JSON numbers and numeric strings; the
// normalizer owns the coercion.
type SeriesRecord struct {
	Period   string `json:"period"` // YYYY-MM
	Value    any    `json:"value"`
	Series   string `json:"series"`
	Units    string `json:"units"`
	AreaName string `json:"area-name"`
}

// RecordCount returns the number of observations in an envelope, or 0
// when the response shape is missing.
func (e Envelope) RecordCount() int {
	resp, ok := e["response"].(map[string]any)
	if !ok {
		return 0
	}
	data, ok := resp["data"].([]any)
	if !ok {
		return 0
	}
	return len(data)
}

// DecodeResponse extracts the typed response payload from a raw
// envelope previously decoded from JSON. ok is false when the envelope
// has no "response" block.
func DecodeResponse(raw json.RawMessage) (Response, bool, error) {
	var outer struct {
		Response *Response `json:"response"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return Response{}, false, err
	}
	if outer.Response == nil {
		return Response{}, false, nil
	}
	return *outer.Response, true, nil
}
