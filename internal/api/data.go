package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// RawValue preserves a vendor field exactly as it appeared on the wire,
// whether the server sent it as a JSON string or a bare number. Values may
// carry one decimal place; keeping the text lets callers parse without loss.
type RawValue string

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(data)
	return nil
}

// RawReading is one element of a getDataByCode response. Response order does
// not match request order; correlate by Code.
type RawReading struct {
	Code       string   `json:"code"`
	Value      RawValue `json:"value"`
	RangeStart RawValue `json:"rangeStart"`
	RangeEnd   RawValue `json:"rangeEnd"`
}

// GetDataByCode reads a batch of parameters in a single call. Codes absent
// from the response were not answered by the device (undefined or
// unsupported) and are simply missing from the result, not an error.
//
// The request field really is spelled "protocalCodes"; the typo is the
// vendor's and is load-bearing.
func (c *Client) GetDataByCode(ctx context.Context, token, deviceCode string, codes []string) ([]RawReading, error) {
	body := map[string]any{
		"deviceCode":    deviceCode,
		"protocalCodes": codes,
	}

	raw, err := c.postJSON(ctx, pathGetData, token, body)
	if err != nil {
		return nil, err
	}

	var readings []RawReading
	if err := json.Unmarshal(raw, &readings); err != nil {
		return nil, fmt.Errorf("unmarshal readings: %w", err)
	}
	return readings, nil
}
