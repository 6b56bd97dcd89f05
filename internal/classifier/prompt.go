package classifier

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompts.json
var promptFiles embed.FS

// loadPrompt reads a prompt template from the embedded prompt file.
func loadPrompt(key string) (string, error) {
	data, err := promptFiles.ReadFile("prompts.json")
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return "", fmt.Errorf("failed to parse prompt file: %w", err)
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return prompt, nil
}

// mustLoadPrompt panics on a missing prompt; templates are embedded, so a
// failure here is a build defect.
func mustLoadPrompt(key string) string {
	prompt, err := loadPrompt(key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// formatPrompt replaces {{.Key}} placeholders with values from data.
func formatPrompt(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// BuildPrompt constructs the classification prompt for one job.
func BuildPrompt(req Request) string {
	template := mustLoadPrompt("classify-tools")
	return formatPrompt(template, map[string]string{
		"Company":     req.Company,
		"JobTitle":    req.JobTitle,
		"Description": req.Description,
	})
}
