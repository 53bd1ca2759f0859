package session

import (
	"io"
	"net/http"

	"github.com/pawmart/sessionkit/internal/client/credentials"
	"github.com/pawmart/sessionkit/internal/logging"
)

// Transport is the session-aware http.RoundTripper. Every outbound request
// gets the current access token attached as a bearer header. A 401 response
// triggers one coordinated refresh followed by one retry of the original
// request; a second 401 is returned to the caller as-is. Install it in any
// HTTP client:
//
//	hc := &http.Client{Transport: session.NewTransport(nil, creds, coord, log)}
type Transport struct {
	base  http.RoundTripper
	creds *credentials.Store
	coord *Coordinator
	log   logging.Logger
}

func NewTransport(base http.RoundTripper, creds *credentials.Store, coord *Coordinator, log logging.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Transport{base: base, creds: creds, coord: coord, log: log}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	cred, err := t.creds.Get(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(withBearer(req, cred.AccessToken))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// The retry re-sends the body, which requires GetBody (set automatically
	// by net/http for buffered bodies). Without it the original 401 stands.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	access, rerr := t.coord.EnsureFreshToken(ctx)
	if rerr != nil {
		// Credentials are already cleared by the coordinator; the caller
		// sees the original authorization failure.
		return resp, nil
	}

	// Original response is superseded; release its connection before the
	// retry.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry := withBearer(req, access)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	t.log.Debug(ctx, "retrying request after refresh", "url", req.URL.Path)
	return t.base.RoundTrip(retry)
}

// withBearer clones req (RoundTrippers must not mutate their input) and sets
// or removes the Authorization header.
func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token == "" {
		out.Header.Del("Authorization")
		return out
	}
	out.Header.Set("Authorization", "Bearer "+token)
	return out
}
