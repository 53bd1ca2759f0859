package verification

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pawmart/sessionkit/internal/client/api"
)

// fakeAPI implements api.Client for unit tests. Results/errors are fielded
// per method; Release channels let a test hold a call in flight.
type fakeAPI struct {
	mu sync.Mutex

	LoginRet *api.LoginResponse
	LoginErr error

	RefreshRet *api.TokenPair
	RefreshErr error

	LogoutErr error

	SendOtpErr   error
	SendOtpCalls atomic.Int32

	VerifyOtpRet     *api.TokenPair
	VerifyOtpErr     error
	VerifyOtpCalls   atomic.Int32
	VerifyOtpStarted chan struct{} // optional: one send per call
	VerifyOtpRelease chan struct{} // optional: call blocks until receive

	VerifyMfaRet   *api.TokenPair
	VerifyMfaErr   error
	VerifyMfaCalls atomic.Int32

	EnableMfaRet *api.MfaEnableResponse
	EnableMfaErr error

	MfaStatusRet *api.MfaStatusResponse
	MfaStatusErr error

	RegenerateRet []string
	RegenerateErr error

	CreateQrRet   *api.QrSessionResponse
	CreateQrErr   error
	CreateQrCalls atomic.Int32

	// QrStatusScript is consumed one entry per poll; when exhausted the last
	// entry repeats. QrStatusErrs aligns by index (nil = no error).
	QrStatusScript []*api.QrStatusResponse
	QrStatusErrs   []error
	QrStatusCalls  atomic.Int32

	ConfirmQrErr error

	LastVerifyOtp parms
	LastVerifyMfa parms
}

type parms struct {
	Email, Code, DeviceID string
}

func (f *fakeAPI) Login(ctx context.Context, email, password, deviceID string) (*api.LoginResponse, error) {
	return f.LoginRet, f.LoginErr
}

func (f *fakeAPI) Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error) {
	return f.RefreshRet, f.RefreshErr
}

func (f *fakeAPI) Logout(ctx context.Context) error { return f.LogoutErr }

func (f *fakeAPI) SendOtp(ctx context.Context, email string) error {
	f.SendOtpCalls.Add(1)
	return f.SendOtpErr
}

func (f *fakeAPI) VerifyOtp(ctx context.Context, email, otp, deviceID string) (*api.TokenPair, error) {
	f.VerifyOtpCalls.Add(1)
	f.mu.Lock()
	f.LastVerifyOtp = parms{Email: email, Code: otp, DeviceID: deviceID}
	f.mu.Unlock()
	if f.VerifyOtpStarted != nil {
		f.VerifyOtpStarted <- struct{}{}
	}
	if f.VerifyOtpRelease != nil {
		<-f.VerifyOtpRelease
	}
	return f.VerifyOtpRet, f.VerifyOtpErr
}

func (f *fakeAPI) VerifyMfaCode(ctx context.Context, email, code, deviceID string) (*api.TokenPair, error) {
	f.VerifyMfaCalls.Add(1)
	f.mu.Lock()
	f.LastVerifyMfa = parms{Email: email, Code: code, DeviceID: deviceID}
	f.mu.Unlock()
	return f.VerifyMfaRet, f.VerifyMfaErr
}

func (f *fakeAPI) EnableMfa(ctx context.Context, email string) (*api.MfaEnableResponse, error) {
	return f.EnableMfaRet, f.EnableMfaErr
}

func (f *fakeAPI) MfaStatus(ctx context.Context, email string) (*api.MfaStatusResponse, error) {
	return f.MfaStatusRet, f.MfaStatusErr
}

func (f *fakeAPI) RegenerateBackupCodes(ctx context.Context, email string) ([]string, error) {
	return f.RegenerateRet, f.RegenerateErr
}

func (f *fakeAPI) CreateQrSession(ctx context.Context, deviceID string) (*api.QrSessionResponse, error) {
	f.CreateQrCalls.Add(1)
	return f.CreateQrRet, f.CreateQrErr
}

func (f *fakeAPI) QrStatus(ctx context.Context, sessionID string) (*api.QrStatusResponse, error) {
	n := int(f.QrStatusCalls.Add(1)) - 1
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.QrStatusScript) == 0 {
		return &api.QrStatusResponse{Status: string(QrStatusPending)}, nil
	}
	if n >= len(f.QrStatusScript) {
		n = len(f.QrStatusScript) - 1
	}
	var err error
	if n < len(f.QrStatusErrs) {
		err = f.QrStatusErrs[n]
	}
	return f.QrStatusScript[n], err
}

func (f *fakeAPI) ConfirmQrSession(ctx context.Context, sessionID string) error {
	return f.ConfirmQrErr
}

var _ api.Client = (*fakeAPI)(nil)
