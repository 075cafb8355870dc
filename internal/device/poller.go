package device

import (
	"context"
	"errors"
	"log/slog"

	"github.com/victor987/hitemp/internal/api"
	"github.com/victor987/hitemp/internal/auth"
	"github.com/victor987/hitemp/internal/registry"
	"github.com/victor987/hitemp/internal/types"
)

// apiClient is the slice of the vendor API this package consumes.
type apiClient interface {
	GetDataByCode(ctx context.Context, token, deviceCode string, codes []string) ([]api.RawReading, error)
	Control(ctx context.Context, token string, updates []api.Update) error
	ListSharedDevices(ctx context.Context, token, toUser string, productIDs []string, pageIndex, pageSize int) ([]types.DeviceRecord, error)
}

// withToken runs fn with a valid session token, re-authenticating and
// retrying exactly once if the cloud rejects the token mid-call. Everything
// else (unreachable, vendor errors, login rejection) passes through for the
// caller's retry policy.
func withToken(ctx context.Context, session *auth.Session, fn func(token string) error) error {
	token, err := session.Token(ctx)
	if err != nil {
		return err
	}

	err = fn(token)
	if !errors.Is(err, api.ErrTokenRejected) {
		return err
	}

	fresh, err := session.Refresh(ctx, token)
	if err != nil {
		return err
	}
	return fn(fresh)
}

// Poller batches parameter reads for a device and decodes the results.
type Poller struct {
	client  apiClient
	session *auth.Session
	logger  *slog.Logger
}

// NewPoller creates a polling client.
func NewPoller(client apiClient, session *auth.Session, logger *slog.Logger) *Poller {
	return &Poller{client: client, session: session, logger: logger}
}

// Read requests the given codes in one batched call and returns decoded
// readings keyed by canonical code. Input codes are normalized first and
// duplicates collapsing to the same parameter are requested once. Responses
// are correlated by their code field, never by position, and a requested
// code missing from the response simply does not appear in the result: the
// device answers undefined codes with no data.
func (p *Poller) Read(ctx context.Context, deviceCode string, codes []string) (map[string]types.Reading, error) {
	canonical := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		c := registry.Normalize(code)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		canonical = append(canonical, c)
	}
	if len(canonical) == 0 {
		return map[string]types.Reading{}, nil
	}

	var raw []api.RawReading
	err := withToken(ctx, p.session, func(token string) error {
		var err error
		raw, err = p.client.GetDataByCode(ctx, token, deviceCode, canonical)
		return err
	})
	if err != nil {
		return nil, err
	}

	readings := make(map[string]types.Reading, len(raw))
	for _, rr := range raw {
		if rr.Code == "" {
			continue
		}
		code := registry.Normalize(rr.Code)
		readings[code] = decodeReading(code, rr)
	}

	p.logger.Debug("Batch read complete",
		"device", deviceCode, "requested", len(canonical), "answered", len(readings))
	return readings, nil
}

// ReadAll reads every parameter in the registry in a single batch.
func (p *Poller) ReadAll(ctx context.Context, deviceCode string) (map[string]types.Reading, error) {
	return p.Read(ctx, deviceCode, registry.All())
}
