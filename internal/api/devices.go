package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/victor987/hitemp/internal/types"
)

// ListSharedDevices retrieves the devices shared to the querying account.
// Devices controlled through this API must be shared to the account, not
// owned by it, which is why this hits the share-list endpoint rather than an
// "own devices" one. Pagination is exposed but expected device counts are in
// the tens; callers pass a page size large enough to get everything in one
// page.
func (c *Client) ListSharedDevices(ctx context.Context, token, toUser string, productIDs []string, pageIndex, pageSize int) ([]types.DeviceRecord, error) {
	body := map[string]any{
		"productIds": productIDs,
		"toUser":     toUser,
		"pageIndex":  pageIndex,
		"pageSize":   pageSize,
	}

	raw, err := c.postJSON(ctx, pathDeviceList, token, body)
	if err != nil {
		return nil, err
	}

	var devices []types.DeviceRecord
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, fmt.Errorf("unmarshal device list: %w", err)
	}
	return devices, nil
}
