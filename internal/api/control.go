package api

import (
	"context"
)

// Update is one parameter write within a control batch. Value is sent as a
// JSON number for numeric parameters and as a string otherwise.
type Update struct {
	DeviceCode   string `json:"deviceCode"`
	ProtocolCode string `json:"protocolCode"`
	Value        any    `json:"value"`
}

// Control sends a batched write. The vendor reports only an aggregate
// verdict for the whole batch: on error it is unknown which, if any, of the
// updates applied. Callers needing confirmation must issue a follow-up read;
// there is no read-after-write in the protocol.
func (c *Client) Control(ctx context.Context, token string, updates []Update) error {
	body := map[string]any{"param": updates}
	_, err := c.postJSON(ctx, pathControl, token, body)
	return err
}
