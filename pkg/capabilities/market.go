package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

func (d *Deps) marketPost(ctx context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}
	if d.Generator != nil {
		if post, err := d.Generator.SocialPost(ctx, p.Prompt); err == nil {
			return envelope.TextResult{Content: post}, nil
		}
	}
	return envelope.TextResult{Content: SocialPost(p.Prompt)}, nil
}

// SocialPost renders an announcement-style post for the given description.
// The first comma-separated term of the description becomes a hashtag.
func SocialPost(description string) string {
	tag := strings.Split(strings.ReplaceAll(description, " ", ""), ",")[0]
	post := fmt.Sprintf(`🚀 Big News! 🚀
We're excited to announce %s!
Come and check us out! You won't be disappointed.
#NewBusiness #GrandOpening #%s #SupportLocal`, description, tag)
	return strings.TrimSpace(post)
}
