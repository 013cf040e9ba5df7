package serviceregistry

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolsForEntry converts a registered service's descriptor methods into MCP
// tool definitions, so a console or agent surface built on top of the
// engine can expose every plugin service as an MCP tool without knowing
// anything about the plugin ABI underneath. Grounded on the teacher's
// convertToMCPSchema (internal/aggregator/tool_factory.go): method payload
// descriptions become a free-form object schema since descriptor methods
// only carry string payload/returns hints, not a typed parameter list.
func ToolsForEntry(e *Entry) []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(e.Descriptor.Methods))
	for _, m := range e.Descriptor.Methods {
		desc := m.Payload
		if m.Returns != "" {
			desc = desc + " -> " + m.Returns
		}
		tools = append(tools, mcp.Tool{
			Name:        string(e.ID) + "." + m.Name,
			Description: desc,
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"payload": map[string]interface{}{"type": "string"}},
			},
		})
	}
	return tools
}

// AllTools returns MCP tool definitions for every registered service's
// methods, sorted by service id (via Snapshot's ordering).
func (r *Registry) AllTools() []mcp.Tool {
	var out []mcp.Tool
	for _, snap := range r.Snapshot() {
		entry, ok := r.GetEntry(snap.ID)
		if !ok {
			continue
		}
		out = append(out, ToolsForEntry(entry)...)
	}
	return out
}
