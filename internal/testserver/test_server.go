// Package testserver runs the full HTTP stack over an in-memory sqlite
// database for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpggio/chronos/internal/domain/activity"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/rpggio/chronos/internal/mcp"
	"github.com/rpggio/chronos/internal/sqlite"
	"github.com/rpggio/chronos/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Token     string
	Principal string

	Records  *sqlite.RecordStore
	Configs  *configuration.Service
	Activity *activity.Service
	Timeline *timeline.Service
	Handler  *mcp.Handler
}

// New starts a server whose database is private to the calling test. The
// token is registered as an api key for principal.
func New(t *testing.T, token, principal string, opts ...timeline.Option) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	configRepo := sqlite.NewConfigurationRepository(db)
	fieldRepo := sqlite.NewFieldRepository(db)
	records := sqlite.NewRecordStore(db)
	activityRepo := sqlite.NewActivityRepository(db)
	apiKeys := sqlite.NewAPIKeyRepository(db)

	configSvc := configuration.NewService(configRepo, fieldRepo, records, nil)
	activitySvc := activity.NewService(activityRepo, nil, nil)
	timelineSvc := timeline.NewService(configSvc, records, fieldRepo, activitySvc, nil, opts...)
	handler := mcp.NewHandler(timelineSvc, configSvc, activitySvc, nil)

	server := httptest.NewServer(transport.NewServer(handler, transport.AuthMiddleware(apiKeys)))

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Token:     token,
		Principal: principal,
		Records:   records,
		Configs:   configSvc,
		Activity:  activitySvc,
		Timeline:  timelineSvc,
		Handler:   handler,
	}

	require.NoError(t, apiKeys.Add(context.Background(), token, principal, "test key"))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// Call posts a JSON-RPC request with the server's token and returns the
// decoded result. It fails the test on a transport or JSON-RPC error.
func (ts *TestServer) Call(t *testing.T, method string, params any) map[string]any {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Result map[string]any   `json:"result"`
		Error  *transport.Error `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Nil(t, body.Error, "rpc error: %+v", body.Error)
	return body.Result
}
