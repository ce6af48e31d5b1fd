package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/models"
	"github.com/locality-resolver/app/services"
	"github.com/locality-resolver/internal/provider"
	"github.com/locality-resolver/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close(ctx) })

	thrissur := models.LocationRecord{Code: "680001", Name: "Thrissur", District: "Thrissur", State: "Kerala"}
	thrissur.SetCoordinates(10.5276, 76.2144)
	require.NoError(t, st.Locations().Insert(ctx, &thrissur))
	college := models.EntityRecord{Name: "Farook College", Category: "college", Code: "673632"}
	require.NoError(t, st.Colleges().Insert(ctx, &college))

	cache, err := services.NewCacheService(100, 10, nil, zap.NewNop())
	require.NoError(t, err)
	opts := services.DefaultResolverOptions()
	chain := provider.NewChain(zap.NewNop())

	locations := services.NewLocationService(st.Locations(), chain, cache, nil, opts, zap.NewNop())
	colleges := services.NewCollegeService(st.Colleges(), cache, nil, opts, zap.NewNop())
	return NewServer(locations, colleges, "test", zap.NewNop())
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestResolvePincode(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleResolvePincode(context.Background(), callRequest("resolve_pincode", map[string]interface{}{"code": "680001"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "Thrissur", out["name"])
	assert.Equal(t, "store", out["strategy"])
	assert.InDelta(t, 10.5276, out["latitude"], 1e-9)
}

func TestResolvePincode_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleResolvePincode(ctx, callRequest("resolve_pincode", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleResolvePincode(ctx, callRequest("resolve_pincode", map[string]interface{}{"code": "68001"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid_input")

	res, err = s.handleResolvePincode(ctx, callRequest("resolve_pincode", map[string]interface{}{"code": "999999"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not_found")
}

func TestSearchLocality_Fuzzy(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearchLocality(context.Background(), callRequest("search_locality", map[string]interface{}{"query": "Thrisur"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), `"name":"Thrissur"`)
	assert.Contains(t, resultText(t, res), `"strategy":"fuzzy"`)
}

func TestSearchCollege(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSearchCollege(ctx, callRequest("search_college", map[string]interface{}{"query": "farook"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), `"category":"college"`)

	res, err = s.handleSearchCollege(ctx, callRequest("search_college", map[string]interface{}{"query": "xyzqwv"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
