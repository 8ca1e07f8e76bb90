package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcncl/omconv/internal/config"
	"github.com/mcncl/omconv/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && strings.HasPrefix(target, "/api/") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestValidate(t *testing.T) {
	h := New(nil, nil).Handler()

	tests := []struct {
		name      string
		target    string
		body      string
		wantValid bool
	}{
		{"valid variable", "/api/v1/validate", `{"kind": "OMV", "name": "x"}`, true},
		{"valid against kind", "/api/v1/validate?kind=OMS", `{"kind": "OMS", "cd": "transc1", "name": "sin"}`, true},
		{"wrong kind", "/api/v1/validate?kind=OMS", `{"kind": "OMV", "name": "x"}`, false},
		{"missing field", "/api/v1/validate?kind=OMI", `{"kind": "OMI"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusOK, rec.Code)
			require.True(t, resp.Success, resp.Message)

			var result schema.Result
			require.NoError(t, json.Unmarshal(resp.Result, &result))
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantValid {
				assert.Empty(t, result.Errors)
			} else {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestValidate_BadJSON(t *testing.T) {
	rec, resp := do(t, New(nil, nil).Handler(), http.MethodPost, "/api/v1/validate", `{"kind": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Parsing error")
}

func TestConvertJSON(t *testing.T) {
	h := New(nil, nil).Handler()

	rec, resp := do(t, h, http.MethodPost, "/api/v1/convert/json",
		`<OMA xmlns="http://www.openmath.org/OpenMath"><OMS cd="transc1" name="sin"/><OMV name="x"/></OMA>`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success, resp.Message)
	assert.JSONEq(t, `{
		"kind": "OMA",
		"applicant": {"kind": "OMS", "cd": "transc1", "name": "sin"},
		"arguments": [{"kind": "OMV", "name": "x"}]
	}`, string(resp.Result))
}

func TestConvertJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "Input error"},
		{"malformed XML", `<OMV name="x"`, "Parsing error"},
		{"unknown element", `<OMBVAR/>`, "Conversion error"},
		{"missing attribute", `<OMV/>`, "Conversion error"},
	}

	h := New(nil, nil).Handler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, h, http.MethodPost, "/api/v1/convert/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.message)
		})
	}
}

func TestConvertJSON_StrictAttribution(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Decode.StrictAttribution = true
	body := `<OMATTR><OMATP><OMS cd="ecc" name="type"/><OMS cd="ecc" name="real"/><OMS cd="ecc" name="extra"/></OMATP><OMV name="x"/></OMATTR>`

	_, resp := do(t, New(nil, nil).Handler(), http.MethodPost, "/api/v1/convert/json", body)
	assert.True(t, resp.Success, resp.Message)

	rec, resp := do(t, New(cfg, nil).Handler(), http.MethodPost, "/api/v1/convert/json", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestConvertXML(t *testing.T) {
	rec, resp := do(t, New(nil, nil).Handler(), http.MethodPost, "/api/v1/convert/xml",
		`{"kind": "OMI", "decimal": "-120"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success, resp.Message)

	var out string
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	assert.Equal(t, `<OMI xmlns="http://www.openmath.org/OpenMath">-120</OMI>`, out)
}

func TestConvertXML_Errors(t *testing.T) {
	h := New(nil, nil).Handler()

	rec, resp := do(t, h, http.MethodPost, "/api/v1/convert/xml", `{"kind": "OMBVAR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)

	rec, resp = do(t, h, http.MethodPost, "/api/v1/convert/xml", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestCORS(t *testing.T) {
	h := New(nil, nil).Handler()

	rec, _ := do(t, h, http.MethodPost, "/api/v1/validate", `{"kind": "OMV", "name": "x"}`)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = do(t, h, http.MethodOptions, "/api/v1/convert/xml", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestMethodNotAllowed(t *testing.T) {
	rec, _ := do(t, New(nil, nil).Handler(), http.MethodGet, "/api/v1/validate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDownloadSchema(t *testing.T) {
	rec, _ := do(t, New(nil, nil).Handler(), http.MethodGet, "/download/openmath.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "openmath.json")
	assert.Equal(t, schema.Source, rec.Body.Bytes())
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	do(t, New(nil, logger).Handler(), http.MethodPost, "/api/v1/convert/xml", `{"kind": "OMV", "name": "x"}`)

	out := buf.String()
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/api/v1/convert/xml")
	assert.Contains(t, out, "status=200")
}

func TestListenAndServe_Shutdown(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, nil).ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
