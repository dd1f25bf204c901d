package tools

import (
	"encoding/json"
	"time"

	"github.com/dlemos/amekit/pkg/protocol"
	"github.com/dlemos/amekit/pkg/version"
)

type HealthTool struct {
	startTime time.Time
}

func NewHealthTool() *HealthTool {
	return &HealthTool{startTime: time.Now()}
}

func (t *HealthTool) Name() string {
	return "health"
}

func (t *HealthTool) Description() string {
	return "Check daemon health status"
}

func (t *HealthTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *HealthTool) Execute(input json.RawMessage) (interface{}, error) {
	return &protocol.HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Uptime:  int64(time.Since(t.startTime).Seconds()),
	}, nil
}
