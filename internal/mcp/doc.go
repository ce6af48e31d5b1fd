// Package mcp đưa các thao tác tra cứu địa điểm và college ra dưới dạng
// MCP tools (resolve_pincode, search_locality, search_college) qua stdio.
package mcp
