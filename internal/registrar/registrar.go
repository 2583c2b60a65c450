// Package registrar signs in to the web UI and registers the file-access
// service with it as an OpenAPI tool server.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"workbench/pkg/logging"
)

const (
	SignInPath   = "/api/v1/auths/signin"
	RegisterPath = "/api/v1/tools/openapi"

	requestTimeout = 15 * time.Second
)

// ErrNoToken means sign-in answered 2xx without issuing a session token.
var ErrNoToken = errors.New("authentication succeeded but no token was issued")

// Step names the phase a registration warning came from.
type Step string

const (
	StepAuthenticate Step = "authenticate"
	StepRegister     Step = "register"
)

// Credentials identify the admin account used to sign in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth is the contract the web UI uses when calling the registered capability.
type Auth struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Capability describes the tool server being registered. SpecURL must be
// reachable from inside the web UI's own network, not from this host.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SpecURL     string `json:"openapi_url"`
	Auth        Auth   `json:"auth"`
}

// FileAccessCapability is the descriptor for the bundled file-access service.
func FileAccessCapability(fileAPIKey string) Capability {
	return Capability{
		Name:        "Local Filesystem",
		Description: "Read-only files in allowlisted folders",
		SpecURL:     "http://fileapi:8001/openapi.json",
		Auth:        Auth{Type: "bearer", Token: fileAPIKey},
	}
}

// Warning is a registration failure the caller should record but not act on.
type Warning struct {
	Step Step
	Err  error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("capability registration (%s): %v", w.Step, w.Err)
}

func (w *Warning) Unwrap() error { return w.Err }

// StatusError is a non-2xx answer from the web UI.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s answered %d", e.Endpoint, e.StatusCode)
}

// Registrar performs the two-step sign-in and registration exchange.
type Registrar struct {
	client *http.Client
}

// New returns a Registrar with a bounded request timeout.
func New() *Registrar {
	return &Registrar{client: &http.Client{Timeout: requestTimeout}}
}

// Register signs in with creds and registers capability. It never fails the
// caller: any problem comes back as a Warning, nil on success.
func (r *Registrar) Register(ctx context.Context, baseURL string, creds Credentials, capability Capability) *Warning {
	base := strings.TrimRight(baseURL, "/")

	token, err := r.signIn(ctx, base, creds)
	if err != nil {
		w := &Warning{Step: StepAuthenticate, Err: err}
		logging.Warn("Registrar", "%v", w)
		return w
	}

	if err := r.register(ctx, base, token, capability); err != nil {
		w := &Warning{Step: StepRegister, Err: err}
		logging.Warn("Registrar", "%v", w)
		return w
	}

	logging.Info("Registrar", "Registered %q with %s", capability.Name, base)
	return nil
}

type signInResponse struct {
	Token string `json:"token"`
}

func (r *Registrar) signIn(ctx context.Context, base string, creds Credentials) (string, error) {
	var out signInResponse
	if err := r.postJSON(ctx, base+SignInPath, "", creds, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", ErrNoToken
	}
	return out.Token, nil
}

func (r *Registrar) register(ctx context.Context, base, token string, capability Capability) error {
	return r.postJSON(ctx, base+RegisterPath, token, capability, nil)
}

func (r *Registrar) postJSON(ctx context.Context, endpoint, bearer string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}
