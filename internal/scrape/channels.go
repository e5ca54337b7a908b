package scrape

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadChannelList reads the channel input file: one channel name or handle
// per line, UTF-8, blank lines and #-comments skipped, order preserved.
func ReadChannelList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel file: %w", err)
	}
	defer f.Close()

	var channels []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		channels = append(channels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read channel file: %w", err)
	}

	return channels, nil
}

// ReadPromptTemplate reads the summary prompt template used verbatim
// around transcript text.
func ReadPromptTemplate(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %w", err)
	}

	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		return "", fmt.Errorf("prompt template %s is empty", path)
	}

	return prompt, nil
}
