// Package simopt exposes the run-options file of a system as tools.
package simopt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dlemos/amekit/internal/ame"
	"github.com/dlemos/amekit/internal/tools"
)

type GetRequest struct {
	System string `json:"system"`
}

type GetResponse struct {
	System  string          `json:"system"`
	Version int             `json:"version"`
	Options *ame.RunOptions `json:"options"`
}

type GetTool struct{}

func NewGetTool() *GetTool {
	return &GetTool{}
}

func (t *GetTool) Name() string {
	return "simopt_get"
}

func (t *GetTool) Description() string {
	return "Read the run options of a system"
}

func (t *GetTool) Title() string {
	return "Get Run Options"
}

func (t *GetTool) Annotations() map[string]bool {
	return tools.ReadOnlyAnnotations()
}

func (t *GetTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"system": {
				"type": "string",
				"description": "Model reference"
			}
		},
		"required": ["system"]
	}`)
}

func (t *GetTool) Execute(input json.RawMessage) (interface{}, error) {
	var req GetRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.System == "" {
		return nil, fmt.Errorf("system is required")
	}

	opt, err := ame.ReadRunOptions(req.System)
	if err != nil {
		return nil, err
	}

	sysname, _ := ame.ExtractSystemName(req.System)
	return &GetResponse{
		System:  sysname,
		Version: opt.Version(),
		Options: opt,
	}, nil
}

type PutRequest struct {
	System  string          `json:"system"`
	Options json.RawMessage `json:"options"`
}

type PutResponse struct {
	System string `json:"system"`
	Path   string `json:"path"`
}

type PutTool struct{}

func NewPutTool() *PutTool {
	return &PutTool{}
}

func (t *PutTool) Name() string {
	return "simopt_put"
}

func (t *PutTool) Description() string {
	return "Write the run options of a system"
}

func (t *PutTool) Title() string {
	return "Set Run Options"
}

func (t *PutTool) Annotations() map[string]bool {
	return tools.SafeWriteAnnotations()
}

func (t *PutTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"system": {
				"type": "string",
				"description": "Model reference"
			},
			"options": {
				"type": "object",
				"description": "Run options to write; omitted fields keep their defaults"
			}
		},
		"required": ["system", "options"]
	}`)
}

func (t *PutTool) Execute(input json.RawMessage) (interface{}, error) {
	var req PutRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.System == "" {
		return nil, fmt.Errorf("system is required")
	}
	if len(req.Options) == 0 {
		return nil, fmt.Errorf("options are required")
	}

	// Omitted fields keep their current values, so updating an existing
	// file preserves its layout revision and untouched settings.
	opt, err := ame.ReadRunOptions(req.System)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		opt = ame.DefaultRunOptions()
	}
	if err := json.Unmarshal(req.Options, opt); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	if err := ame.WriteRunOptions(req.System, opt); err != nil {
		return nil, err
	}

	sysname, _ := ame.ExtractSystemName(req.System)
	return &PutResponse{
		System: sysname,
		Path:   ame.SystemFile(req.System, "_.sim"),
	}, nil
}

func GetTools() []tools.Tool {
	return []tools.Tool{
		NewGetTool(),
		NewPutTool(),
	}
}
