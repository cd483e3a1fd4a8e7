package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefledger/internal/ledger"
	"reliefledger/internal/registry"
	"reliefledger/internal/registry/service"
	"reliefledger/pkg/testutil"
)

const (
	alice ledger.Actor = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	bob   ledger.Actor = "ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG"
)

func newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgers := registry.NewLedgers()
	r := chi.NewRouter()
	New(service.New(ledgers.Equipment), registry.ToEquipmentRecord, logger).Register(r, "/equipment")
	New(service.New(ledgers.Deployments), registry.ToDeploymentRecord, logger).Register(r, "/deployments")
	New(service.New(ledgers.Returns), registry.ToReturnRecord, logger).Register(r, "/returns")
	return r
}

func send(t *testing.T, h http.Handler, actor ledger.Actor, method, path string, body any) *http.Response {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if actor != "" {
		req = testutil.WithActor(req, actor)
	}
	return testutil.DoRequest(h, req).Result()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestEquipmentLifecycle(t *testing.T) {
	h := newRouter()
	generator := registry.Equipment{Name: "Generator", Type: "Power", Serial: "GEN-001"}

	testutil.Given(t, "an empty equipment registry", func(t *testing.T) {
		testutil.When(t, "alice registers a generator", func(t *testing.T) {
			resp := send(t, h, alice, http.MethodPost, "/equipment", generator)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			assert.Equal(t, map[string]any{"ok": 1.0}, decode[map[string]any](t, resp))
		})

		testutil.Then(t, "anyone can read it with alice as owner", func(t *testing.T) {
			resp := send(t, h, bob, http.MethodGet, "/equipment/1", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			rec := decode[registry.EquipmentRecord](t, resp)
			assert.Equal(t, alice, rec.Owner)
			assert.Equal(t, registry.StatusAvailable, rec.Status)
			assert.Equal(t, "GEN-001", rec.Serial)
		})

		testutil.When(t, "alice marks it for maintenance", func(t *testing.T) {
			resp := send(t, h, alice, http.MethodPut, "/equipment/1/status", map[string]string{"status": "maintenance"})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, map[string]any{"ok": true}, decode[map[string]any](t, resp))
		})

		testutil.When(t, "bob tries to change it", func(t *testing.T) {
			resp := send(t, h, bob, http.MethodPut, "/equipment/1/status", map[string]string{"status": "stolen"})
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
			body := decode[map[string]any](t, resp)
			assert.EqualValues(t, 2, body["err"])
			assert.Equal(t, "forbidden", body["error"])
		})

		testutil.Then(t, "the status is still alice's", func(t *testing.T) {
			rec := decode[registry.EquipmentRecord](t, send(t, h, bob, http.MethodGet, "/equipment/1", nil))
			assert.Equal(t, ledger.Status("maintenance"), rec.Status)
		})
	})
}

func TestNotFound(t *testing.T) {
	h := newRouter()

	for _, actor := range []ledger.Actor{alice, bob} {
		req := testutil.WithActor(testutil.NewJSONRequest(t, http.MethodPut, "/equipment/999/status", map[string]string{"status": "x"}), actor)
		testutil.AssertLedgerErr(t, testutil.DoRequest(h, req), http.StatusNotFound, ledger.CodeNotFound)
	}

	req := testutil.WithActor(testutil.NewRequest(t, http.MethodGet, "/returns/5"), alice)
	testutil.AssertLedgerErr(t, testutil.DoRequest(h, req), http.StatusNotFound, ledger.CodeNotFound)
}

func TestDeploymentCompletes(t *testing.T) {
	h := newRouter()

	resp := send(t, h, alice, http.MethodPost, "/deployments", registry.Deployment{
		EquipmentID: registry.RefID(1), Location: "Zone A", DisasterID: "DISASTER-001",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = send(t, h, alice, http.MethodPut, "/deployments/1/status", map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := decode[registry.DeploymentRecord](t, send(t, h, bob, http.MethodGet, "/deployments/1", nil))
	assert.Equal(t, alice, rec.Deployer)
	assert.Equal(t, ledger.Status("completed"), rec.Status)
	assert.Equal(t, registry.RefID(1), rec.EquipmentID)
}

func TestReturnProcessing(t *testing.T) {
	h := newRouter()

	resp := send(t, h, alice, http.MethodPost, "/returns", registry.Return{
		DeploymentID: registry.RefID(1), EquipmentID: registry.RefID(1), Condition: "good", Location: "Warehouse",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	rec := decode[registry.ReturnRecord](t, send(t, h, alice, http.MethodGet, "/returns/1", nil))
	assert.Equal(t, registry.StatusProcessed, rec.Status)
	assert.Equal(t, alice, rec.Returner)

	resp = send(t, h, bob, http.MethodPut, "/returns/1/status", map[string]string{"status": "verified"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = send(t, h, alice, http.MethodPut, "/returns/1/status", map[string]string{"status": "verified"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReferencesKeepArbitraryValues(t *testing.T) {
	h := newRouter()

	tests := []struct {
		name string
		path string
		body string
		want string
	}{
		{"negative equipment id", "/deployments", `{"equipmentId":-1,"location":"Zone A","disasterId":"D1"}`, `"equipmentId":-1`},
		{"string equipment id", "/deployments", `{"equipmentId":"EQ-7","location":"Zone A","disasterId":"D1"}`, `"equipmentId":"EQ-7"`},
		{"missing equipment id", "/deployments", `{"location":"Zone A"}`, `"equipmentId":null`},
		{"string deployment id", "/returns", `{"deploymentId":"DEP-9","equipmentId":3.5,"condition":"good"}`, `"deploymentId":"DEP-9","equipmentId":3.5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithActor(testutil.NewRequestWithBody(t, http.MethodPost, tt.path, tt.body), alice)
			rr := testutil.DoRequest(h, req)
			testutil.AssertStatus(t, rr, http.StatusCreated)
			created := testutil.UnmarshalResponse[map[string]uint64](t, rr)

			get := testutil.WithActor(testutil.NewRequest(t, http.MethodGet, tt.path+"/"+strconv.FormatUint((*created)["ok"], 10)), alice)
			rr = testutil.DoRequest(h, get)
			testutil.AssertStatusOK(t, rr)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestBadInput(t *testing.T) {
	h := newRouter()
	send(t, h, alice, http.MethodPost, "/equipment", registry.Equipment{Name: "Radio"})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed create body", http.MethodPost, "/equipment", `{"name":`, http.StatusBadRequest},
		{"non-numeric id", http.MethodGet, "/equipment/abc", ``, http.StatusBadRequest},
		{"negative id", http.MethodPut, "/equipment/-1/status", `{"status":"x"}`, http.StatusBadRequest},
		{"missing status", http.MethodPut, "/equipment/1/status", `{}`, http.StatusBadRequest},
		{"wrong status type", http.MethodPut, "/equipment/1/status", `{"status":5}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithActor(testutil.NewRequestWithBody(t, tt.method, tt.path, tt.body), alice)
			rr := testutil.DoRequest(h, req)
			testutil.AssertStatus(t, rr, tt.status)
		})
	}
}

func TestMissingActorIsUnauthorized(t *testing.T) {
	h := newRouter()

	resp := send(t, h, "", http.MethodPost, "/equipment", registry.Equipment{Name: "Radio"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "unauthorized", body["error"])
	assert.NotContains(t, body, "err")
}

func TestEmptyStatusIsAccepted(t *testing.T) {
	h := newRouter()
	send(t, h, alice, http.MethodPost, "/equipment", registry.Equipment{Name: "Radio"})

	resp := send(t, h, alice, http.MethodPut, "/equipment/1/status", map[string]string{"status": ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec := decode[registry.EquipmentRecord](t, send(t, h, alice, http.MethodGet, "/equipment/1", nil))
	assert.Equal(t, ledger.Status(""), rec.Status)
}
