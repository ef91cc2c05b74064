package mcp

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chronos/internal/domain/configuration"
	"github.com/rpggio/chronos/internal/domain/record"
	"github.com/rpggio/chronos/internal/domain/timeline"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, handler *Handler) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(Config{Handler: handler, TransportMode: "stdio"})
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func toolText(t *testing.T, res *sdkmcp.CallToolResult) map[string]any {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, NewHandler(timelineStub{}, nil, nil, nil))

	res, err := session.ListTools(context.Background(), &sdkmcp.ListToolsParams{})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, def := range buildToolCatalog() {
		require.True(t, names[def.Name], def.Name)
	}
}

func TestServer_CallTool(t *testing.T) {
	var gotActor string
	session := connect(t, NewHandler(timelineStub{
		listFn: func(context.Context) ([]configuration.Summary, error) {
			return []configuration.Summary{sampleConfig.Summarize()}, nil
		},
		createFn: func(_ context.Context, actor, _ string, _ map[string]any) (*record.Record, error) {
			gotActor = actor
			return nil, timeline.ErrConfigurationInactive
		},
	}, nil, nil, nil))
	ctx := context.Background()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_timeline_configurations",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	out := toolText(t, res)
	require.Equal(t, true, out["success"])
	require.Len(t, out["configurations"], 1)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "create_dynamic_block",
		Arguments: map[string]any{
			"configuration_name": "wo",
			"block_data":         map[string]any{"workstation": "WS-1"},
		},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Equal(t, LocalPrincipal, gotActor)
	require.Equal(t, "CONFIGURATION_INACTIVE", toolText(t, res)["code"])
}

func TestServer_DocResources(t *testing.T) {
	session := connect(t, NewHandler(timelineStub{}, nil, nil, nil))

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "chronos://docs/filters"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "row_filters")
}
