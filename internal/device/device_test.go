package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/victor987/hitemp/internal/api"
	"github.com/victor987/hitemp/internal/auth"
	"github.com/victor987/hitemp/internal/registry"
	"github.com/victor987/hitemp/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// fakeAPI scripts the vendor API. Per-method hooks run under no lock; tests
// that need call counts keep them in the hook closures.
type fakeAPI struct {
	getData func(token, deviceCode string, codes []string) ([]api.RawReading, error)
	control func(token string, updates []api.Update) error
	list    func(token, toUser string, productIDs []string, pageIndex, pageSize int) ([]types.DeviceRecord, error)

	loginCalls int
}

func (f *fakeAPI) GetDataByCode(ctx context.Context, token, deviceCode string, codes []string) ([]api.RawReading, error) {
	return f.getData(token, deviceCode, codes)
}

func (f *fakeAPI) Control(ctx context.Context, token string, updates []api.Update) error {
	return f.control(token, updates)
}

func (f *fakeAPI) ListSharedDevices(ctx context.Context, token, toUser string, productIDs []string, pageIndex, pageSize int) ([]types.DeviceRecord, error) {
	return f.list(token, toUser, productIDs, pageIndex, pageSize)
}

func (f *fakeAPI) Login(ctx context.Context, userName, passwordMD5 string) (api.LoginResult, error) {
	f.loginCalls++
	return api.LoginResult{Token: fmt.Sprintf("tok-%d", f.loginCalls), UserID: "user-9"}, nil
}

func newTestSession(f *fakeAPI) *auth.Session {
	return auth.NewSession(f, auth.Credentials{Username: "me@example.com", Password: "pw"}, testLogger())
}

func TestPoller_Read(t *testing.T) {
	var gotCodes []string
	f := &fakeAPI{
		getData: func(token, deviceCode string, codes []string) ([]api.RawReading, error) {
			gotCodes = codes
			// Out of request order, with one code unanswered and one
			// bitmask value.
			return []api.RawReading{
				{Code: "T02", Value: "48.5"},
				{Code: "R01", Value: "55", RangeStart: "38", RangeEnd: "75"},
				{Code: "T08", Value: "101"},
			}, nil
		},
	}
	p := NewPoller(f, newTestSession(f), testLogger())

	// "1104" and "r01" both normalize to R01 and must be requested once.
	readings, err := p.Read(context.Background(), "HP001", []string{"r01", "1104", "R01", "T02", "T08", "D01"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []string{"R01", "T02", "T08", "D01"}
	if len(gotCodes) != len(want) {
		t.Fatalf("requested codes = %v, want %v", gotCodes, want)
	}
	for i := range want {
		if gotCodes[i] != want[i] {
			t.Fatalf("requested codes = %v, want %v", gotCodes, want)
		}
	}

	if len(readings) != 3 {
		t.Fatalf("len(readings) = %d, want 3", len(readings))
	}
	if _, ok := readings["D01"]; ok {
		t.Error("unanswered code D01 should be absent, not zero-valued")
	}

	r01 := readings["R01"]
	if r01.Number != 55 || r01.Raw != "55" {
		t.Errorf("R01 = %+v", r01)
	}
	if r01.RangeStart != "38" || r01.RangeEnd != "75" {
		t.Errorf("R01 range = %q..%q", r01.RangeStart, r01.RangeEnd)
	}

	t08 := readings["T08"]
	if t08.Kind != registry.Bitmask {
		t.Fatalf("T08 Kind = %v, want Bitmask", t08.Kind)
	}
	if len(t08.Flags) != registry.BitmaskWidth {
		t.Fatalf("T08 flags length = %d, want %d", len(t08.Flags), registry.BitmaskWidth)
	}
	// "101": bit 0 and bit 2 set, everything else clear.
	if !t08.Bit(0) || t08.Bit(1) || !t08.Bit(2) || t08.Bit(3) {
		t.Errorf("T08 flags = %v", t08.Flags)
	}
}

func TestPoller_ReadEmpty(t *testing.T) {
	f := &fakeAPI{
		getData: func(token, deviceCode string, codes []string) ([]api.RawReading, error) {
			t.Error("no request expected for an empty code list")
			return nil, nil
		},
	}
	p := NewPoller(f, newTestSession(f), testLogger())

	readings, err := p.Read(context.Background(), "HP001", []string{"", "  "})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(readings) != 0 {
		t.Errorf("readings = %v, want empty", readings)
	}
}

func TestPoller_RetriesOnceAfterTokenRejection(t *testing.T) {
	calls := 0
	f := &fakeAPI{}
	f.getData = func(token, deviceCode string, codes []string) ([]api.RawReading, error) {
		calls++
		if token == "tok-1" {
			return nil, fmt.Errorf("evicted: %w", api.ErrTokenRejected)
		}
		return []api.RawReading{{Code: "R01", Value: "55"}}, nil
	}
	p := NewPoller(f, newTestSession(f), testLogger())

	readings, err := p.Read(context.Background(), "HP001", []string{"R01"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("data calls = %d, want 2 (original + retry)", calls)
	}
	if f.loginCalls != 2 {
		t.Errorf("login calls = %d, want 2 (initial + re-login)", f.loginCalls)
	}
	if _, ok := readings["R01"]; !ok {
		t.Error("retry result missing R01")
	}
}

func TestPoller_GivesUpAfterSecondRejection(t *testing.T) {
	f := &fakeAPI{
		getData: func(token, deviceCode string, codes []string) ([]api.RawReading, error) {
			return nil, fmt.Errorf("evicted: %w", api.ErrTokenRejected)
		},
	}
	p := NewPoller(f, newTestSession(f), testLogger())

	_, err := p.Read(context.Background(), "HP001", []string{"R01"})
	if !errors.Is(err, api.ErrTokenRejected) {
		t.Errorf("error = %v, want ErrTokenRejected after one retry", err)
	}
	if f.loginCalls != 2 {
		t.Errorf("login calls = %d, want 2", f.loginCalls)
	}
}

func TestController_Write(t *testing.T) {
	var gotUpdates []api.Update
	f := &fakeAPI{
		control: func(token string, updates []api.Update) error {
			gotUpdates = updates
			return nil
		},
	}
	c := NewController(f, newTestSession(f), testLogger())

	err := c.Write(context.Background(), "HP001", []Update{
		{Code: "r01", Value: 55},
		{Code: "Power", Value: 1},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if len(gotUpdates) != 2 {
		t.Fatalf("len(updates) = %d, want 2", len(gotUpdates))
	}
	if gotUpdates[0].ProtocolCode != "R01" {
		t.Errorf("ProtocolCode = %q, want canonical R01", gotUpdates[0].ProtocolCode)
	}
	if gotUpdates[0].DeviceCode != "HP001" {
		t.Errorf("DeviceCode = %q", gotUpdates[0].DeviceCode)
	}
}

func TestController_RejectsBeforeNetwork(t *testing.T) {
	f := &fakeAPI{
		control: func(token string, updates []api.Update) error {
			t.Error("no network call expected for an invalid batch")
			return nil
		},
	}
	c := NewController(f, newTestSession(f), testLogger())
	ctx := context.Background()

	// Read-only parameter.
	err := c.Write(ctx, "HP001", []Update{{Code: "T02", Value: 50}})
	var notWritable *NotWritableError
	if !errors.As(err, &notWritable) {
		t.Fatalf("error = %v, want *NotWritableError", err)
	}
	if notWritable.Code != "T02" {
		t.Errorf("Code = %q, want T02", notWritable.Code)
	}

	// Undocumented parameter: writability cannot be established.
	if err := c.Write(ctx, "HP001", []Update{{Code: "Z99", Value: 1}}); !errors.As(err, &notWritable) {
		t.Errorf("error = %v, want *NotWritableError for unknown code", err)
	}

	// Out of documented range.
	err = c.Write(ctx, "HP001", []Update{{Code: "R01", Value: 80}})
	var outOfRange *OutOfRangeError
	if !errors.As(err, &outOfRange) {
		t.Fatalf("error = %v, want *OutOfRangeError", err)
	}
	if outOfRange.Code != "R01" || outOfRange.Value != 80 || outOfRange.Min != 38 || outOfRange.Max != 75 {
		t.Errorf("OutOfRangeError = %+v", outOfRange)
	}

	// Bitmask value that is not a flag vector.
	err = c.Write(ctx, "HP001", []Update{{Code: "F03", Value: 99999999999}})
	if !errors.As(err, &outOfRange) {
		t.Fatalf("error = %v, want *OutOfRangeError for a non-flag bitmask value", err)
	}
	if outOfRange.Code != "F03" {
		t.Errorf("Code = %q, want F03", outOfRange.Code)
	}
	if err := c.Write(ctx, "HP001", []Update{{Code: "L28", Value: 10.5}}); !errors.As(err, &outOfRange) {
		t.Errorf("error = %v, want *OutOfRangeError for a fractional bitmask value", err)
	}

	// One bad update poisons the whole batch, valid updates included.
	err = c.Write(ctx, "HP001", []Update{
		{Code: "R01", Value: 55},
		{Code: "T02", Value: 50},
	})
	if !errors.As(err, &notWritable) {
		t.Errorf("mixed batch error = %v, want *NotWritableError", err)
	}

	if f.loginCalls != 0 {
		t.Errorf("login calls = %d, want 0: validation happens before any I/O", f.loginCalls)
	}
}

func TestController_VendorRejectionIsBatchError(t *testing.T) {
	f := &fakeAPI{
		control: func(token string, updates []api.Update) error {
			return &api.VendorError{Msg: "device busy", Code: "20001"}
		},
	}
	c := NewController(f, newTestSession(f), testLogger())

	err := c.Write(context.Background(), "HP001", []Update{{Code: "R01", Value: 55}})
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("error = %v, want *BatchError", err)
	}
	if len(batchErr.Updates) != 1 {
		t.Errorf("BatchError.Updates length = %d, want 1", len(batchErr.Updates))
	}
	var verr *api.VendorError
	if !errors.As(batchErr, &verr) {
		t.Error("BatchError should unwrap to the vendor error")
	}
}

func TestController_TransportFailureKeepsItsKind(t *testing.T) {
	f := &fakeAPI{
		control: func(token string, updates []api.Update) error {
			return fmt.Errorf("POST: %w", api.ErrUnreachable)
		},
	}
	c := NewController(f, newTestSession(f), testLogger())

	err := c.Write(context.Background(), "HP001", []Update{{Code: "R01", Value: 55}})
	if !errors.Is(err, api.ErrUnreachable) {
		t.Fatalf("error = %v, want ErrUnreachable", err)
	}
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		t.Error("transport failures happen before the device acts and must not become BatchError")
	}
}

func TestController_EmptyBatch(t *testing.T) {
	f := &fakeAPI{
		control: func(token string, updates []api.Update) error {
			t.Error("no network call expected for an empty batch")
			return nil
		},
	}
	c := NewController(f, newTestSession(f), testLogger())

	if err := c.Write(context.Background(), "HP001", nil); err != nil {
		t.Errorf("Write(nil) error = %v", err)
	}
}

func TestDirectory_List(t *testing.T) {
	var gotToUser string
	var gotProductIDs []string
	var gotPageSize int
	f := &fakeAPI{
		list: func(token, toUser string, productIDs []string, pageIndex, pageSize int) ([]types.DeviceRecord, error) {
			gotToUser = toUser
			gotProductIDs = productIDs
			gotPageSize = pageSize
			return []types.DeviceRecord{
				{DeviceCode: "HP001", Status: types.DeviceStatusOnline},
				{DeviceCode: "HP002", Status: "OFFLINE"},
			}, nil
		},
	}
	d := NewDirectory(f, newTestSession(f), nil, testLogger())

	devices, err := d.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if gotToUser != "user-9" {
		t.Errorf("toUser = %q, want the logged-in user id", gotToUser)
	}
	if len(gotProductIDs) != 1 || gotProductIDs[0] != api.ProductID {
		t.Errorf("productIDs = %v, want the default product line", gotProductIDs)
	}
	if gotPageSize != 999 {
		t.Errorf("pageSize = %d, want 999", gotPageSize)
	}

	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}
	if !devices[0].Online() || devices[1].Online() {
		t.Errorf("online flags wrong: %+v", devices)
	}
}

func TestIsFlagVector(t *testing.T) {
	tests := []struct {
		value float64
		want  bool
	}{
		{0, true},
		{1, true},
		{101, true},
		{1111111111111111, true},   // all sixteen bits set
		{11111111111111111, false}, // one digit too wide
		{2, false},
		{-1, false},
		{10.5, false},
		{120, false},
	}
	for _, tt := range tests {
		if got := isFlagVector(tt.value); got != tt.want {
			t.Errorf("isFlagVector(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		set  []int
	}{
		{"empty", "", nil},
		{"single", "1", []int{0}},
		{"rightmost is bit zero", "10", []int{1}},
		{"mixed", "101", []int{0, 2}},
		{"full width", "1000000000000001", []int{0, 15}},
		{"overlong keeps low bits", "11000000000000001", []int{0, 15}},
		{"garbage reads false", "1x1", []int{0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := parseFlags(tt.in)
			if len(flags) != registry.BitmaskWidth {
				t.Fatalf("len = %d, want %d", len(flags), registry.BitmaskWidth)
			}
			want := make([]bool, registry.BitmaskWidth)
			for _, i := range tt.set {
				want[i] = true
			}
			for i := range flags {
				if flags[i] != want[i] {
					t.Errorf("bit %d = %v, want %v", i, flags[i], want[i])
				}
			}
		})
	}
}
