package device

import (
	"context"
	"log/slog"

	"github.com/victor987/hitemp/internal/api"
	"github.com/victor987/hitemp/internal/auth"
	"github.com/victor987/hitemp/internal/types"
)

// defaultPageSize is large enough that the expected device counts (tens, not
// thousands) always fit in one page, so no multi-page assembly is needed.
const defaultPageSize = 999

// Directory resolves the account into its set of shared devices.
type Directory struct {
	client     apiClient
	session    *auth.Session
	productIDs []string
	pageSize   int
	logger     *slog.Logger
}

// NewDirectory creates a device directory for the given product IDs. An
// empty list defaults to the HiTemp water-heater product line.
func NewDirectory(client apiClient, session *auth.Session, productIDs []string, logger *slog.Logger) *Directory {
	if len(productIDs) == 0 {
		productIDs = []string{api.ProductID}
	}
	return &Directory{
		client:     client,
		session:    session,
		productIDs: productIDs,
		pageSize:   defaultPageSize,
		logger:     logger,
	}
}

// List fetches the devices currently shared to the account, in the order the
// cloud returns them. Records are observed, never created or deleted here: a
// device appears when it is shared to the account and disappears when
// unshared.
func (d *Directory) List(ctx context.Context) ([]types.DeviceRecord, error) {
	var devices []types.DeviceRecord
	err := withToken(ctx, d.session, func(token string) error {
		_, userID, err := d.session.Identity(ctx)
		if err != nil {
			return err
		}
		devices, err = d.client.ListSharedDevices(ctx, token, userID, d.productIDs, 1, d.pageSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Device directory refreshed", "devices", len(devices))
	return devices, nil
}
