package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

var adsRecommendations = []string{
	"Use high-quality images.",
	"A/B test your ad copy.",
	"Target a specific audience.",
}

func (d *Deps) optimizeAds(_ context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}
	return envelope.TextResult{Content: OptimizeAds(p.Prompt)}, nil
}

// OptimizeAds extracts keywords (words longer than four characters) and
// renders ad copy plus fixed recommendations.
func OptimizeAds(prompt string) string {
	var keywords []string
	for _, word := range strings.Fields(prompt) {
		if len(word) > 4 {
			keywords = append(keywords, word)
		}
	}
	top := keywords
	if len(top) > 3 {
		top = top[:3]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Optimized ad for: %s. Try focusing on keywords like %s.\n", prompt, strings.Join(top, ", "))
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(keywords, ", "))
	}
	b.WriteString("Recommendations:\n")
	for _, rec := range adsRecommendations {
		b.WriteString("- " + rec + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
