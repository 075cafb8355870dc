package device

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"

	"github.com/victor987/hitemp/internal/api"
	"github.com/victor987/hitemp/internal/auth"
	"github.com/victor987/hitemp/internal/registry"
)

// maxFlagValue is the decimal spelling of a full 16-bit flag vector, the
// largest value a bitmask parameter accepts on the wire.
const maxFlagValue = 1111111111111111

// Update is one requested parameter write.
type Update struct {
	Code  string
	Value float64
}

// Controller validates and sends batched parameter writes.
type Controller struct {
	client  apiClient
	session *auth.Session
	logger  *slog.Logger
}

// NewController creates a control client.
func NewController(client apiClient, session *auth.Session, logger *slog.Logger) *Controller {
	return &Controller{client: client, session: session, logger: logger}
}

// Write validates the updates against the registry and sends them as one
// batch. Validation failures (*NotWritableError, *OutOfRangeError) reject
// the entire batch before any network I/O. A vendor rejection of the batch
// comes back as *BatchError because the protocol's aggregate verdict leaves
// the effect of individual updates unknown.
//
// There is no read-after-write confirmation here; callers wanting one issue
// a Read for the same codes afterwards.
func (c *Controller) Write(ctx context.Context, deviceCode string, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	wire := make([]api.Update, 0, len(updates))
	for _, u := range updates {
		code := registry.Normalize(u.Code)
		def, ok := registry.Lookup(code)
		if !ok || !def.Writable {
			// Writability of undocumented codes cannot be established,
			// so they are refused alongside the read-only ones.
			return &NotWritableError{Code: code}
		}
		if def.Kind == registry.Bitmask {
			// Flag vectors travel as decimal spellings of their bits, so
			// anything that is not 0/1 digits within the mask width cannot
			// be applied by the device.
			if !isFlagVector(u.Value) {
				return &OutOfRangeError{Code: code, Value: u.Value, Min: 0, Max: maxFlagValue}
			}
		} else if !def.InRange(u.Value) {
			return &OutOfRangeError{Code: code, Value: u.Value, Min: *def.Min, Max: *def.Max}
		}
		wire = append(wire, api.Update{
			DeviceCode:   deviceCode,
			ProtocolCode: code,
			Value:        u.Value,
		})
	}

	err := withToken(ctx, c.session, func(token string) error {
		return c.client.Control(ctx, token, wire)
	})
	if err != nil {
		// Auth and transport failures happen before the device acts, so
		// they keep their own kinds; only a vendor verdict is ambiguous.
		var verr *api.VendorError
		if errors.As(err, &verr) && !errors.Is(err, api.ErrTokenRejected) {
			return &BatchError{Updates: wire, Err: err}
		}
		return err
	}

	c.logger.Debug("Batch write accepted", "device", deviceCode, "updates", len(wire))
	return nil
}

// WriteOne is a convenience wrapper for a single-parameter write.
func (c *Controller) WriteOne(ctx context.Context, deviceCode, code string, value float64) error {
	return c.Write(ctx, deviceCode, []Update{{Code: code, Value: value}})
}

// isFlagVector reports whether v is a valid bitmask write: a non-negative
// integer whose decimal digits are all 0 or 1, at most
// registry.BitmaskWidth of them.
func isFlagVector(v float64) bool {
	if v < 0 || v != math.Trunc(v) {
		return false
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if len(s) > registry.BitmaskWidth {
		return false
	}
	for _, r := range s {
		if r != '0' && r != '1' {
			return false
		}
	}
	return true
}
