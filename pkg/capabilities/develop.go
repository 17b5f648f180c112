package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/envelope"
)

// promptFields parses "key: value" lines from a prompt. Keys are lowercased.
func promptFields(prompt string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(prompt, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return fields
}

func (d *Deps) developWebsite(ctx context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}
	if d.Generator != nil {
		blocks, err := d.Generator.Website(ctx, p.Prompt)
		if err == nil {
			return envelope.CodeSetResult{Blocks: blocks}, nil
		}
		// Model failures degrade to template generation.
	}
	blocks, err := GenerateWebsite(p.Prompt)
	if err != nil {
		return nil, err
	}
	return envelope.CodeSetResult{Blocks: blocks}, nil
}

func (d *Deps) developGame(_ context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}
	return envelope.CodeSetResult{Blocks: GenerateGame(p.Prompt)}, nil
}

func (d *Deps) developApp(_ context.Context, payload json.RawMessage, _ *auth.Caller) (envelope.ResultPayload, error) {
	var p promptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("prompt is required")
	}
	return envelope.CodeSetResult{Blocks: GenerateApp(p.Prompt)}, nil
}

// websiteSection is one "section:" block of a website prompt.
type websiteSection struct {
	title  string
	fields map[string]string
}

// GenerateWebsite builds a site from a structured prompt. Top-level lines
// set page properties (title, header, footer); "section: Title" starts a
// section whose indented "key: value" lines fill it. Sections support text
// and an image count between 0 and 10.
func GenerateWebsite(prompt string) ([]envelope.CodeBlock, error) {
	props := map[string]string{}
	var sections []*websiteSection
	var current *websiteSection

	for i, line := range strings.Split(prompt, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indented := len(line) > len(strings.TrimLeft(line, " "))
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			return nil, fmt.Errorf("error on line %d: each line must be in 'key: value' format", i+1)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case !indented && key == "section":
			current = &websiteSection{title: value, fields: map[string]string{}}
			sections = append(sections, current)
		case !indented:
			props[key] = value
			current = nil
		case current != nil:
			current.fields[key] = value
		default:
			return nil, fmt.Errorf("error on line %d: indented item outside of a section", i+1)
		}
	}

	var main strings.Builder
	for _, section := range sections {
		main.WriteString("    <section>\n")
		fmt.Fprintf(&main, "      <h2>%s</h2>\n", section.title)
		if text, ok := section.fields["text"]; ok {
			fmt.Fprintf(&main, "      <p>%s</p>\n", text)
		}
		if images, ok := section.fields["images"]; ok {
			count, err := strconv.Atoi(images)
			if err != nil {
				return nil, fmt.Errorf("invalid number for images: %q", images)
			}
			if count < 0 || count > 10 {
				return nil, fmt.Errorf("number of images must be between 0 and 10")
			}
			for i := 0; i < count; i++ {
				fmt.Fprintf(&main, "      <img src='https://via.placeholder.com/150' alt='placeholder image %d'>\n", i+1)
			}
		}
		main.WriteString("    </section>\n")
	}

	title := props["title"]
	if title == "" {
		title = "My Website"
	}
	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <header>
        <h1>%s</h1>
    </header>
    <main>
%s    </main>
    <footer>
        <p>%s</p>
    </footer>
</body>
</html>`, title, props["header"], main.String(), props["footer"])

	cssContent := `body { font-family: sans-serif; line-height: 1.6; margin: 0; padding: 0; background: #f4f4f4; color: #333; }
header { background: #333; color: #fff; padding: 1rem 0; text-align: center; }
main { padding: 1rem; background: #fff; }
section { margin-bottom: 1.5rem; }
h2 { color: #333; }
img { max-width: 100%; height: auto; margin: 0.5rem; }
footer { text-align: center; padding: 1rem 0; background: #333; color: #fff; margin-top: 1rem; }`

	return []envelope.CodeBlock{
		{Language: "html", Filename: "index.html", Content: htmlContent},
		{Language: "css", Filename: "style.css", Content: cssContent},
	}, nil
}

// GenerateGame builds a number-guessing game. The prompt may override its
// name and description via "name:" and "description:" lines.
func GenerateGame(prompt string) []envelope.CodeBlock {
	fields := promptFields(prompt)
	name := fields["name"]
	if name == "" {
		name = "Guess the Number"
	}
	description := fields["description"]
	if description == "" {
		description = "A simple number guessing game."
	}

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <h1>%s</h1>
    <p>%s</p>
    <p>I'm thinking of a number between 1 and 100.</p>
    <input type="number" id="guess-input" min="1" max="100">
    <button id="guess-btn">Guess</button>
    <p id="message"></p>
    <script src="script.js"></script>
</body>
</html>`, name, name, description)

	cssContent := `body { font-family: sans-serif; text-align: center; margin-top: 50px; }
h1 { color: #333; }
input { padding: 5px; }
button { padding: 5px 10px; }
#message { margin-top: 20px; font-weight: bold; }`

	jsContent := `document.addEventListener('DOMContentLoaded', () => {
    const guessInput = document.getElementById('guess-input');
    const guessBtn = document.getElementById('guess-btn');
    const message = document.getElementById('message');
    let randomNumber = Math.floor(Math.random() * 100) + 1;
    let attempts = 0;
    guessBtn.addEventListener('click', () => {
        const userGuess = parseInt(guessInput.value);
        attempts++;
        if (isNaN(userGuess) || userGuess < 1 || userGuess > 100) {
            message.textContent = 'Please enter a valid number between 1 and 100.';
            return;
        }
        if (userGuess === randomNumber) {
            message.textContent = 'Congratulations! You guessed the number in ' + attempts + ' attempts.';
            message.style.color = 'green';
            guessBtn.disabled = true;
        } else if (userGuess < randomNumber) {
            message.textContent = 'Too low! Try again.';
            message.style.color = 'red';
        } else {
            message.textContent = 'Too high! Try again.';
            message.style.color = 'red';
        }
    });
});`

	return []envelope.CodeBlock{
		{Language: "html", Filename: "index.html", Content: htmlContent},
		{Language: "css", Filename: "style.css", Content: cssContent},
		{Language: "javascript", Filename: "script.js", Content: jsContent},
	}
}

// GenerateApp builds a to-do list app. The prompt may override its name and
// description via "name:" and "description:" lines.
func GenerateApp(prompt string) []envelope.CodeBlock {
	fields := promptFields(prompt)
	name := fields["name"]
	if name == "" {
		name = "To-Do App"
	}
	description := fields["description"]
	if description == "" {
		description = "A simple to-do list application."
	}

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <h1>%s</h1>
    <p>%s</p>
    <input type="text" id="task-input" placeholder="Add a new task...">
    <button id="add-task-btn">Add Task</button>
    <ul id="task-list"></ul>
    <script src="script.js"></script>
</body>
</html>`, name, name, description)

	cssContent := `body { font-family: sans-serif; margin: 2rem; }
h1 { color: #333; }
input { padding: 10px; width: 300px; }
button { padding: 10px 15px; }
ul { list-style-type: none; padding: 0; }
li { padding: 10px; border-bottom: 1px solid #ccc; display: flex; justify-content: space-between; align-items: center; }
li button { background: #ff4d4d; color: white; border: none; padding: 5px 10px; cursor: pointer; }`

	jsContent := `document.addEventListener('DOMContentLoaded', () => {
    const taskInput = document.getElementById('task-input');
    const addTaskBtn = document.getElementById('add-task-btn');
    const taskList = document.getElementById('task-list');
    addTaskBtn.addEventListener('click', () => {
        const taskText = taskInput.value.trim();
        if (taskText !== '') {
            addTask(taskText);
            taskInput.value = '';
        }
    });
    function addTask(taskText) {
        const li = document.createElement('li');
        li.textContent = taskText;
        const deleteBtn = document.createElement('button');
        deleteBtn.textContent = 'Delete';
        deleteBtn.addEventListener('click', () => {
            li.remove();
        });
        li.appendChild(deleteBtn);
        taskList.appendChild(li);
    }
});`

	return []envelope.CodeBlock{
		{Language: "html", Filename: "index.html", Content: htmlContent},
		{Language: "css", Filename: "style.css", Content: cssContent},
		{Language: "javascript", Filename: "script.js", Content: jsContent},
	}
}
