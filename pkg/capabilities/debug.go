package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

const checkerUserAgent = "AI-Agent-Checker/1.0"

func (d *Deps) debugCode(ctx context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}

	code := p.Prompt
	if strings.HasPrefix(strings.TrimSpace(code), "http") {
		fetched, err := d.fetchGitHubFile(ctx, strings.TrimSpace(code))
		if err != nil {
			return nil, err
		}
		code = fetched
	}

	if d.Generator != nil {
		if report, err := d.Generator.Debug(ctx, code); err == nil {
			return envelope.TextResult{Content: report}, nil
		}
	}
	return envelope.TextResult{Content: LintCode(code)}, nil
}

// LintCode runs heuristic checks against pasted code. Code starting with
// '<' is treated as HTML, everything else as CSS.
func LintCode(code string) string {
	var findings []string
	var lang string
	lower := strings.ToLower(code)

	if strings.HasPrefix(strings.TrimSpace(code), "<") {
		lang = "HTML"
		if !strings.HasPrefix(strings.TrimSpace(lower), "<!doctype html>") {
			findings = append(findings, "Missing <!DOCTYPE html> declaration at the beginning.")
		}
		for _, tag := range []string{"html", "head", "body"} {
			if strings.Count(lower, "<"+tag) != strings.Count(lower, "</"+tag) {
				findings = append(findings, fmt.Sprintf("Mismatched <%s> tags.", tag))
			}
		}
	} else {
		lang = "CSS"
		if strings.Count(code, "{") != strings.Count(code, "}") {
			findings = append(findings, "Mismatched curly braces {}.")
		}
		inBlock := false
		for i, line := range strings.Split(code, "\n") {
			line = strings.TrimSpace(line)
			if strings.Contains(line, "{") {
				inBlock = true
			}
			if strings.Contains(line, "}") {
				inBlock = false
				continue
			}
			if inBlock && line != "" && !strings.HasSuffix(line, "{") && !strings.HasSuffix(line, ";") {
				findings = append(findings, fmt.Sprintf("Line %d: Missing semicolon ';'.", i+1))
			}
		}
	}

	if len(findings) == 0 {
		return fmt.Sprintf("No obvious issues found in your %s code.", lang)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found potential issues in your %s code:\n", lang)
	for _, finding := range findings {
		b.WriteString("- " + finding + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// fetchGitHubFile resolves a github.com blob URL to its raw content. Only
// URLs of the form github.com/user/repo/blob/branch/path are accepted.
func (d *Deps) fetchGitHubFile(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() != "github.com" {
		return "", fmt.Errorf("not a valid GitHub URL")
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 5 || parts[2] != "blob" {
		return "", fmt.Errorf("URL does not appear to be a valid GitHub file URL (e.g., .../user/repo/blob/branch/file)")
	}
	user, repo, branch := parts[0], parts[1], parts[3]
	filePath := strings.Join(parts[4:], "/")
	target := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", user, repo, branch, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("fetching file from GitHub: %w", err)
	}
	req.Header.Set("User-Agent", checkerUserAgent)

	resp, err := d.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching file from GitHub: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching file from GitHub: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("fetching file from GitHub: %w", err)
	}
	return string(body), nil
}
