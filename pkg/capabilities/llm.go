package capabilities

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	genai "google.golang.org/genai"

	"github.com/GYFX35/AI-services/pkg/envelope"
)

const defaultModel = "gemini-2.5-flash"

var (
	htmlBlock = regexp.MustCompile(`(?s)\[HTML\](.*?)\[/HTML\]`)
	cssBlock  = regexp.MustCompile(`(?s)\[CSS\](.*?)\[/CSS\]`)
)

// Generator produces model-backed results for the generation capabilities.
// Handlers fall back to template output when a call fails, so the gateway
// keeps serving when the model is unreachable.
type Generator struct {
	cli   *genai.Client
	model string
}

// NewGenerator creates a Generator. The genai client reads GEMINI_API_KEY
// from the environment.
func NewGenerator(ctx context.Context, model string) (*Generator, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &Generator{cli: cli, model: model}, nil
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no content")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// Website asks the model for a single-page site and extracts the [HTML]
// and [CSS] blocks from its response.
func (g *Generator) Website(ctx context.Context, prompt string) ([]envelope.CodeBlock, error) {
	full := fmt.Sprintf(`You are a skilled web developer. Generate the HTML and CSS for a single-page website based on the following user prompt.

User Prompt:
---
%s
---

Your response must be in the following format, with no other text or explanations:

[HTML]
<!DOCTYPE html>
...
</html>
[/HTML]

[CSS]
body {
    ...
}
[/CSS]`, prompt)

	text, err := g.generate(ctx, full)
	if err != nil {
		return nil, err
	}
	htmlMatch := htmlBlock.FindStringSubmatch(text)
	cssMatch := cssBlock.FindStringSubmatch(text)
	if htmlMatch == nil || cssMatch == nil {
		return nil, fmt.Errorf("model response missing HTML or CSS block")
	}
	return []envelope.CodeBlock{
		{Language: "html", Filename: "index.html", Content: strings.TrimSpace(htmlMatch[1])},
		{Language: "css", Filename: "style.css", Content: strings.TrimSpace(cssMatch[1])},
	}, nil
}

// Debug asks the model to review the given code and returns its findings
// as a flat report, one issue per line.
func (g *Generator) Debug(ctx context.Context, code string) (string, error) {
	full := fmt.Sprintf(`You are an expert code reviewer. Analyze the following code and identify any potential bugs, errors, or style issues.

Code:
---
%s
---

List the issues you find, one per line. If you find no issues, return an empty response.`, code)

	text, err := g.generate(ctx, full)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "No obvious issues found in your code.", nil
	}
	return text, nil
}

// SocialPost asks the model for a short post with hashtags.
func (g *Generator) SocialPost(ctx context.Context, description string) (string, error) {
	full := fmt.Sprintf(`You are a creative marketing assistant. Write an engaging social media post based on the following description.

Description:
---
%s
---

The post should be short, catchy, and include relevant hashtags.`, description)

	text, err := g.generate(ctx, full)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
