// Package e2e drives a running ledger server through its HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type issuedToken struct {
	Token string `json:"token"`
	JTI   string `json:"jti"`
}

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	tokens map[string]issuedToken
	ids    map[string]uint64

	lastStatus int
	lastBody   []byte
}

// NewTestContext reads LEDGER_BASE_URL and ADMIN_TOKEN from the environment.
func NewTestContext() *TestContext {
	baseURL := os.Getenv("LEDGER_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:    baseURL,
		adminToken: os.Getenv("ADMIN_TOKEN"),
		client:     &http.Client{Timeout: 10 * time.Second},
		tokens:     make(map[string]issuedToken),
		ids:        make(map[string]uint64),
	}
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.tokens = make(map[string]issuedToken)
	tc.ids = make(map[string]uint64)
	tc.lastStatus = 0
	tc.lastBody = nil
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) bearer(actor string) map[string]string {
	tok, ok := tc.tokens[actor]
	if !ok {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + tok.Token}
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// Send issues a request as actor. Actors without a token send none.
func (tc *TestContext) Send(actor, method, path string, body any) error {
	return tc.do(method, path, body, tc.bearer(actor))
}

// Admin issues a request carrying the admin token.
func (tc *TestContext) Admin(method, path string, body any) error {
	return tc.do(method, path, body, map[string]string{"X-Admin-Token": tc.adminToken})
}

// IssueToken asks the admin API for a token and remembers it for actor.
func (tc *TestContext) IssueToken(actor string) error {
	if err := tc.Admin(http.MethodPost, "/admin/tokens", map[string]string{"actor": actor}); err != nil {
		return err
	}
	if tc.lastStatus != http.StatusCreated {
		return fmt.Errorf("issue token for %s: status %d: %s", actor, tc.lastStatus, tc.lastBody)
	}
	var tok issuedToken
	if err := json.Unmarshal(tc.lastBody, &tok); err != nil {
		return fmt.Errorf("decode issued token: %w", err)
	}
	tc.tokens[actor] = tok
	return nil
}

// JTIFor returns the token id issued to actor.
func (tc *TestContext) JTIFor(actor string) (string, error) {
	tok, ok := tc.tokens[actor]
	if !ok {
		return "", fmt.Errorf("no token issued to %s", actor)
	}
	return tok.JTI, nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.lastBody
}

// GetResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response %s", field, tc.lastBody)
	}
	return v, nil
}

// Remember stores the id from the last {"ok":id} response under alias.
func (tc *TestContext) Remember(alias string) error {
	var body struct {
		OK *uint64 `json:"ok"`
	}
	if err := json.Unmarshal(tc.lastBody, &body); err != nil || body.OK == nil {
		return fmt.Errorf("expected an {\"ok\":id} response, got %d: %s", tc.lastStatus, tc.lastBody)
	}
	tc.ids[alias] = *body.OK
	return nil
}

// IDOf returns the id remembered under alias.
func (tc *TestContext) IDOf(alias string) (uint64, error) {
	id, ok := tc.ids[alias]
	if !ok {
		return 0, fmt.Errorf("no record remembered as %q", alias)
	}
	return id, nil
}
