// Package capabilities implements the built-in capability handlers and
// registers them against the registry. Handlers decode their own payloads;
// the gateway treats them as opaque collaborators.
package capabilities

import (
	"net/http"
	"time"

	"github.com/GYFX35/AI-services/pkg/envelope"
	"github.com/GYFX35/AI-services/pkg/registry"
)

// Deps carries the external collaborators the built-in handlers need.
type Deps struct {
	// HTTPClient is used by the weather and link-analysis handlers. Nil
	// falls back to a client with a sane timeout.
	HTTPClient *http.Client
	// WeatherAPIKey authorizes weatherapi.com lookups.
	WeatherAPIKey string
	// Generator, when non-nil, replaces the template-based generation for
	// the develop, debug and market capabilities with a model-backed one.
	Generator *Generator
}

func (d *Deps) client() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// RegisterBuiltins registers every built-in capability. All of them require
// authentication.
func RegisterBuiltins(reg *registry.Registry, deps Deps) error {
	specs := []registry.HandlerSpec{
		{
			ID:          "develop.website",
			Description: "Generate a static website from a structured prompt",
			Version:     "1.1.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindCodeSet,
			Handler:     deps.developWebsite,
		},
		{
			ID:          "develop.game",
			Description: "Generate a small browser game",
			Version:     "1.0.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindCodeSet,
			Handler:     deps.developGame,
		},
		{
			ID:          "develop.app",
			Description: "Generate a small browser app",
			Version:     "1.0.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindCodeSet,
			Handler:     deps.developApp,
		},
		{
			ID:          "debug",
			Description: "Heuristic HTML/CSS linting of pasted code or a GitHub file URL",
			Version:     "1.2.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindText,
			Handler:     deps.debugCode,
		},
		{
			ID:          "market.post",
			Description: "Generate a social media post",
			Version:     "1.0.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindText,
			Handler:     deps.marketPost,
		},
		{
			ID:          "optimize.ads",
			Description: "Keyword extraction and ad copy suggestions",
			Version:     "1.0.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindText,
			Handler:     deps.optimizeAds,
		},
		{
			ID:          "finance.advice",
			Description: "General financial guidance",
			Version:     "1.0.0",
			Payload:     registry.PayloadPrompt,
			Kind:        envelope.KindText,
			Handler:     deps.financeAdvice,
		},
		{
			ID:          "weather",
			Description: "Current weather conditions for a location",
			Version:     "1.0.0",
			Payload:     registry.PayloadObject,
			Kind:        envelope.KindText,
			Handler:     deps.weather,
		},
		{
			ID:          "analyze.website",
			Description: "Crawl a page and classify its links as ok, broken or slow",
			Version:     "2.0.0",
			Payload:     registry.PayloadURL,
			Kind:        envelope.KindLinkReport,
			Handler:     deps.analyzeWebsite,
		},
	}
	for _, spec := range specs {
		spec.RequiresAuth = true
		if err := reg.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// promptPayload is the {"prompt": ...} payload shared by most handlers.
type promptPayload struct {
	Prompt string `json:"prompt"`
}
