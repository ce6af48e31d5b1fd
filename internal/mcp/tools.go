package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/locality-resolver/app/responses"
	"github.com/locality-resolver/app/services"
)

// toolOutput kết quả trả về cho client
type toolOutput struct {
	responses.Record
	Strategy string `json:"strategy"`
	CacheHit bool   `json:"cache_hit"`
}

func (s *Server) handleResolvePincode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("code parameter is required"), nil
	}
	res, err := s.locations.ResolveByCode(ctx, code)
	if err != nil {
		return s.toolError("resolve_pincode", err), nil
	}
	return s.toolResult(toolOutput{
		Record:   responses.FromLocation(res.Record),
		Strategy: string(res.Strategy),
		CacheHit: res.CacheHit,
	})
}

func (s *Server) handleSearchLocality(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	res, err := s.locations.Resolve(ctx, query)
	if err != nil {
		return s.toolError("search_locality", err), nil
	}
	return s.toolResult(toolOutput{
		Record:   responses.FromLocation(res.Record),
		Strategy: string(res.Strategy),
		CacheHit: res.CacheHit,
	})
}

func (s *Server) handleSearchCollege(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	res, err := s.colleges.SearchByName(ctx, query)
	if err != nil {
		return s.toolError("search_college", err), nil
	}
	return s.toolResult(toolOutput{
		Record:   responses.FromEntity(res.Record),
		Strategy: string(res.Strategy),
		CacheHit: res.CacheHit,
	})
}

func (s *Server) toolResult(out toolOutput) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError chuyển lỗi resolve thành tool error, lỗi 500 không lộ chi tiết
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	kind := services.KindOf(err)
	msg := services.MsgUnexpected
	var re *services.ResolveError
	switch {
	case kind == services.KindTimeout:
		msg = services.MsgTimeout
	case kind == services.KindUnexpected:
	case errors.As(err, &re):
		msg = re.Message
	}
	if kind == services.KindTimeout || kind == services.KindUnexpected || kind == services.KindBackingStoreUnavailable {
		s.logger.Error("Tool call thất bại", zap.String("tool", tool), zap.Stringer("kind", kind), zap.Error(err))
	}
	return mcp.NewToolResultError(kind.String() + ": " + msg)
}
