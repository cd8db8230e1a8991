package tools

import (
	"context"
	"encoding/json"

	"github.com/xrpl-agent/gateway/mcp"
	"github.com/xrpl-agent/gateway/utils"
)

// Register wires tools into an MCP server. Tool results are serialized into
// text content; execution failures become tool error results, while schema
// failures propagate as protocol errors.
func Register(registrator McpServerRegistrator, list ...ITool) error {
	for _, tool := range list {
		tool := tool
		err := registrator.RegisterTool(tool.Name(), tool.Description(), tool.Parameters(),
			func(ctx context.Context, args json.RawMessage) (*mcp.ToolResponse, error) {
				result, err := tool.Call(ctx, args)
				if err != nil {
					return nil, err
				}
				return mcp.NewToolResponse(mcp.NewTextContent(utils.ToJSON(result))), nil
			})
		if err != nil {
			return err
		}
	}
	return nil
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions renders a YAML summary of the given tools; used by the
// --list-tools diagnostic.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return utils.ToYAML(d)
}
