package capabilities

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/GYFX35/AI-services/pkg/envelope"
)

func TestGenerateWebsite_SectionsAndImages(t *testing.T) {
	prompt := strings.Join([]string{
		"title: Bakery",
		"header: Welcome to the Bakery",
		"footer: All rights reserved",
		"section: About Us",
		"  text: We bake bread.",
		"  images: 2",
	}, "\n")

	blocks, err := GenerateWebsite(prompt)
	if err != nil {
		t.Fatalf("capabilities:develop_test - generate failed: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("capabilities:develop_test - expected 2 blocks, got %d", len(blocks))
	}
	page := blocks[0]
	if page.Filename != "index.html" || page.Language != "html" {
		t.Errorf("capabilities:develop_test - unexpected first block %s/%s", page.Language, page.Filename)
	}
	if !strings.Contains(page.Content, "<title>Bakery</title>") {
		t.Errorf("capabilities:develop_test - title missing from page")
	}
	if !strings.Contains(page.Content, "<h2>About Us</h2>") {
		t.Errorf("capabilities:develop_test - section heading missing")
	}
	if got := strings.Count(page.Content, "placeholder image"); got != 2 {
		t.Errorf("capabilities:develop_test - expected 2 placeholder images, got %d", got)
	}
	if blocks[1].Filename != "style.css" {
		t.Errorf("capabilities:develop_test - expected style.css, got %s", blocks[1].Filename)
	}
}

func TestGenerateWebsite_Errors(t *testing.T) {
	cases := []struct {
		name   string
		prompt string
		want   string
	}{
		{"bad line", "title Bakery", "key: value"},
		{"orphan indent", "  text: hello", "outside of a section"},
		{"too many images", "section: Pics\n  images: 11", "between 0 and 10"},
		{"non-numeric images", "section: Pics\n  images: many", "invalid number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateWebsite(tc.prompt)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("capabilities:develop_test - expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestGenerateGame_Overrides(t *testing.T) {
	blocks := GenerateGame("name: Lucky Seven\ndescription: Pick a number.")
	if len(blocks) != 3 {
		t.Fatalf("capabilities:develop_test - expected 3 blocks, got %d", len(blocks))
	}
	if !strings.Contains(blocks[0].Content, "<h1>Lucky Seven</h1>") {
		t.Errorf("capabilities:develop_test - game name not applied")
	}
	if blocks[2].Language != "javascript" || blocks[2].Filename != "script.js" {
		t.Errorf("capabilities:develop_test - unexpected script block %s/%s", blocks[2].Language, blocks[2].Filename)
	}
}

func TestGenerateApp_Defaults(t *testing.T) {
	blocks := GenerateApp("")
	if len(blocks) != 3 {
		t.Fatalf("capabilities:develop_test - expected 3 blocks, got %d", len(blocks))
	}
	if !strings.Contains(blocks[0].Content, "To-Do App") {
		t.Errorf("capabilities:develop_test - default app name missing")
	}
}

func TestDevelopWebsiteHandler_Kind(t *testing.T) {
	deps := Deps{}
	payload, _ := json.Marshal(promptPayload{Prompt: "title: Shop"})
	result, err := deps.developWebsite(context.Background(), payload, nil)
	if err != nil {
		t.Fatalf("capabilities:develop_test - handler failed: %v", err)
	}
	if result.Kind() != envelope.KindCodeSet {
		t.Errorf("capabilities:develop_test - expected code_set, got %s", result.Kind())
	}
}
