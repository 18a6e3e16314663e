package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KevinKickass/OpenGroveCore/internal/config"
	"github.com/KevinKickass/OpenGroveCore/internal/devices"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware"
	"github.com/KevinKickass/OpenGroveCore/internal/firmware/sim"
	"github.com/KevinKickass/OpenGroveCore/internal/interfaces"
	"github.com/KevinKickass/OpenGroveCore/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type testLifecycle struct {
	cfg     *config.Config
	catalog *devices.CatalogLoader
	store   storage.AssignmentStore
	manager *devices.Manager
}

func (l *testLifecycle) Config() *config.Config { return l.cfg }
func (l *testLifecycle) Catalog() *devices.CatalogLoader { return l.catalog }
func (l *testLifecycle) Storage() storage.AssignmentStore { return l.store }
func (l *testLifecycle) DeviceManager() *devices.Manager { return l.manager }
func (l *testLifecycle) Shutdown(ctx context.Context) error { return nil }

func (l *testLifecycle) GetCurrentStatus() interfaces.SystemStatus {
	return interfaces.SystemStatus{
		State:        "RUNNING",
		IOPCount:     len(l.manager.IOPs()),
		AdapterCount: len(l.manager.List()),
		Persistent:   l.store != nil,
	}
}

func newTestServer(t *testing.T) (*Server, *testLifecycle) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	catalog, err := devices.NewCatalogLoader(nil)
	if err != nil {
		t.Fatalf("NewCatalogLoader: %v", err)
	}
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(store.Close)

	iops := []firmware.IOP{
		sim.New("iop_pmoda", catalog, logger),
		sim.New("iop_arduino", catalog, logger),
	}

	lm := &testLifecycle{
		cfg:     &config.Config{},
		catalog: catalog,
		store:   store,
		manager: devices.NewManager(iops, logger),
	}
	return NewServer(lm.cfg, lm, logger), lm
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, out
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	e, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("no error body in %v", body)
	}
	return e["code"].(string)
}

func TestHealthAndStatus(t *testing.T) {
	s, _ := newTestServer(t)

	w, body := doRequest(t, s, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", w.Code, body)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/system/status", nil)
	if w.Code != http.StatusOK || body["state"] != "RUNNING" || body["iop_count"] != float64(2) {
		t.Fatalf("status = %d %v", w.Code, body)
	}
}

func TestModulesEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	w, body := doRequest(t, s, http.MethodGet, "/api/v1/modules", nil)
	if w.Code != http.StatusOK || body["count"].(float64) == 0 {
		t.Fatalf("modules = %d %v", w.Code, body)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/modules?class=adc", nil)
	if w.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("adc modules = %d %v", w.Code, body)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/modules/grove_adc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("grove_adc = %d %v", w.Code, body)
	}
	if body["module"].(map[string]interface{})["class"] != "adc" {
		t.Fatalf("grove_adc = %v", body)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/modules/badmodule", nil)
	if w.Code != http.StatusNotFound || errorCode(t, body) != "MODULE_NOT_FOUND" {
		t.Fatalf("badmodule = %d %v", w.Code, body)
	}
}

func TestVariantsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w, body := doRequest(t, s, http.MethodGet, "/api/v1/variants", nil)
	if w.Code != http.StatusOK || body["count"] != float64(5) {
		t.Fatalf("variants = %d %v", w.Code, body)
	}
}

func TestAdapterLifecycle(t *testing.T) {
	s, lm := newTestServer(t)
	ctx := context.Background()

	board := map[string]interface{}{
		"name":    "bench",
		"iop":     "iop_pmoda",
		"variant": "pmod",
		"ports": map[string]interface{}{
			"G1": "grove_servo",
			"G4": []string{"grove_led_stick", "grove_oled"},
		},
	}

	w, body := doRequest(t, s, http.MethodPost, "/api/v1/adapters", board)
	if w.Code != http.StatusCreated {
		t.Fatalf("attach = %d %v", w.Code, body)
	}
	if body["assignment_id"] == nil {
		t.Fatal("assignment should be persisted")
	}
	if ports := body["ports"].([]interface{}); len(ports) != 2 {
		t.Fatalf("ports = %v", ports)
	}

	saved, err := lm.store.LoadAllAssignments(ctx)
	if err != nil || len(saved) != 1 || saved[0].Name != "bench" {
		t.Fatalf("saved = %v %v", saved, err)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/adapters", nil)
	if w.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("list = %d %v", w.Code, body)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/adapters/bench", nil)
	if w.Code != http.StatusOK || body["variant"] != "pmod" {
		t.Fatalf("get = %d %v", w.Code, body)
	}
	id := body["id"].(string)

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/iops", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("iops = %d %v", w.Code, body)
	}
	for _, entry := range body["iops"].([]interface{}) {
		iop := entry.(map[string]interface{})
		if iop["name"] == "iop_pmoda" {
			if iop["adapter"] != "bench" || len(iop["devices"].([]interface{})) != 3 {
				t.Fatalf("iop_pmoda = %v", iop)
			}
		}
	}

	w, body = doRequest(t, s, http.MethodPost, "/api/v1/adapters", board)
	if w.Code != http.StatusConflict || errorCode(t, body) != "IOP_IN_USE" {
		t.Fatalf("second attach = %d %v", w.Code, body)
	}

	w, body = doRequest(t, s, http.MethodDelete, "/api/v1/adapters/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detach = %d %v", w.Code, body)
	}

	saved, _ = lm.store.LoadAllAssignments(ctx)
	if len(saved) != 0 {
		t.Fatalf("assignment should be deleted, got %v", saved)
	}

	w, body = doRequest(t, s, http.MethodGet, "/api/v1/adapters/"+id, nil)
	if w.Code != http.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Fatalf("get after detach = %d %v", w.Code, body)
	}
}

func TestAttachErrors(t *testing.T) {
	s, lm := newTestServer(t)

	tests := []struct {
		name   string
		board  map[string]interface{}
		status int
		code   string
	}{
		{
			name:   "missing module",
			board:  map[string]interface{}{"name": "a", "iop": "iop_pmoda", "variant": "pmod", "ports": map[string]interface{}{"G1": "badmodule"}},
			status: http.StatusUnprocessableEntity,
			code:   "MODULE_NOT_FOUND",
		},
		{
			name:   "illegal chain",
			board:  map[string]interface{}{"name": "a", "iop": "iop_arduino", "variant": "arduino_seeed", "ports": map[string]interface{}{"I2C": "grove_adc.grove_servo"}},
			status: http.StatusUnprocessableEntity,
			code:   "ILLEGAL_CHAIN",
		},
		{
			name:   "unsupported address",
			board:  map[string]interface{}{"name": "a", "iop": "iop_pmoda", "variant": "pmod", "ports": map[string]interface{}{"G1": "grove_servo@10"}},
			status: http.StatusUnprocessableEntity,
			code:   "UNSUPPORTED_ADDRESS",
		},
		{
			name:   "binding failed",
			board:  map[string]interface{}{"name": "a", "iop": "iop_pmoda", "variant": "pmod", "ports": map[string]interface{}{"G1": "grove_oled"}},
			status: http.StatusUnprocessableEntity,
			code:   "BINDING_FAILED",
		},
		{
			name:   "invalid spec",
			board:  map[string]interface{}{"name": "a", "iop": "iop_pmoda", "variant": "pmod", "ports": map[string]interface{}{"G1": "grove_adc@zz"}},
			status: http.StatusBadRequest,
			code:   "INVALID_SPEC",
		},
		{
			name:   "unknown port",
			board:  map[string]interface{}{"name": "a", "iop": "iop_pmoda", "variant": "pmod", "ports": map[string]interface{}{"D9": "grove_servo"}},
			status: http.StatusBadRequest,
			code:   "UNKNOWN_PORT",
		},
		{
			name:   "unknown variant",
			board:  map[string]interface{}{"name": "a", "iop": "iop_pmoda", "variant": "shield"},
			status: http.StatusBadRequest,
			code:   "UNKNOWN_VARIANT",
		},
		{
			name:   "unknown iop",
			board:  map[string]interface{}{"name": "a", "iop": "iop_nowhere", "variant": "pmod"},
			status: http.StatusBadRequest,
			code:   "UNKNOWN_IOP",
		},
		{
			name:   "missing fields",
			board:  map[string]interface{}{"iop": "iop_pmoda"},
			status: http.StatusBadRequest,
			code:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest(t, s, http.MethodPost, "/api/v1/adapters", tt.board)
			if w.Code != tt.status || errorCode(t, body) != tt.code {
				t.Fatalf("got %d %v, want %d %s", w.Code, body, tt.status, tt.code)
			}
		})
	}

	if n := len(lm.manager.List()); n != 0 {
		t.Fatalf("failed attaches left %d adapters", n)
	}
	saved, _ := lm.store.LoadAllAssignments(context.Background())
	if len(saved) != 0 {
		t.Fatalf("failed attaches were persisted: %v", saved)
	}
}
