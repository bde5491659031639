package utils

import (
	"embed"
	"fmt"
)

//go:embed prompts
var promptFiles embed.FS

// LoadPrompt returns the named prompt template from the embedded markdown
// files, e.g. "researchers/bull_researcher".
func LoadPrompt(path string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", path))
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", path, err)
	}
	return string(content), nil
}
