package capabilities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

func (d *Deps) financeAdvice(_ context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}
	return envelope.TextResult{
		Content: "Based on your query, here is some general financial advice: diversify your investments and create a budget.",
	}, nil
}
