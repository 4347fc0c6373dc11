package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .doc2mcp.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to doc2mcp! Let's configure your server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider selection.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{
			"local  — deterministic, offline, no API key",
			"openai — text-embedding-3-small/large (needs OPENAI_API_KEY)",
			"ollama — local Ollama server",
		},
	}
	providerIdx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	providers := []ProviderType{ProviderLocal, ProviderOpenAI, ProviderOllama}
	cfg.Embedding.Provider = providers[providerIdx]

	switch cfg.Embedding.Provider {
	case ProviderOpenAI:
		cfg.Embedding.Model = "text-embedding-3-small"
		if os.Getenv("OPENAI_API_KEY") == "" {
			fmt.Println("\nNote: Set OPENAI_API_KEY in your environment before running doc2mcp serve.")
		}
	case ProviderOllama:
		modelPrompt := promptui.Prompt{
			Label:   "Ollama embedding model",
			Default: "nomic-embed-text",
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("ollama model: %w", err)
		}
		cfg.Embedding.Model = model
	}

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("must be a port number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. Public base URL used to build retrieval endpoints.
	basePrompt := promptui.Prompt{
		Label:   "Public base URL",
		Default: fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
	}
	baseURL, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	cfg.Server.BaseURL = baseURL

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configPath := ".doc2mcp.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
