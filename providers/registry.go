package providers

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderRegistry manages the registration and retrieval of completion
// providers. It provides thread-safe access to provider constructors and
// supports dynamic provider registration.
type ProviderRegistry struct {
	providers map[string]ProviderConstructor
	configs   map[string]ProviderConfig
	mutex     sync.RWMutex
}

// NewProviderRegistry creates a new provider registry with the specified providers.
// If no providers are specified, all known providers are registered by default.
func NewProviderRegistry(providerNames ...string) *ProviderRegistry {
	registry := &ProviderRegistry{
		providers: make(map[string]ProviderConstructor),
		configs:   getStandardConfigs(),
	}

	knownProviders := getKnownProviders()
	if len(providerNames) == 0 {
		for name, constructor := range knownProviders {
			registry.providers[name] = constructor
		}
		return registry
	}

	for _, name := range providerNames {
		if constructor, ok := knownProviders[name]; ok {
			registry.providers[name] = constructor
		}
	}
	return registry
}

// getKnownProviders returns all known provider constructors
func getKnownProviders() map[string]ProviderConstructor {
	return map[string]ProviderConstructor{
		"openai":     NewOpenAIProvider,
		"groq":       NewOpenAIProvider,
		"deepseek":   NewOpenAIProvider,
		"mistral":    NewOpenAIProvider,
		"openrouter": NewOpenAIProvider,
		"ollama":     NewOpenAIProvider,
		"anthropic":  NewAnthropicProvider,
		"gemini":     NewGeminiProvider,
		"google":     NewGeminiProvider,
		"mock":       newMockFromConfig,
	}
}

// getStandardConfigs returns standard provider configurations
func getStandardConfigs() map[string]ProviderConfig {
	return map[string]ProviderConfig{
		"openai":     {Name: "openai", RequiresAPIKey: true},
		"groq":       {Name: "groq", Endpoint: "https://api.groq.com/openai/v1", RequiresAPIKey: true},
		"deepseek":   {Name: "deepseek", Endpoint: "https://api.deepseek.com/v1", RequiresAPIKey: true},
		"mistral":    {Name: "mistral", Endpoint: "https://api.mistral.ai/v1", RequiresAPIKey: true},
		"openrouter": {Name: "openrouter", Endpoint: "https://openrouter.ai/api/v1", RequiresAPIKey: true},
		"ollama":     {Name: "ollama", Endpoint: "http://localhost:11434/v1"},
		"anthropic":  {Name: "anthropic", RequiresAPIKey: true},
		"gemini":     {Name: "gemini", RequiresAPIKey: true},
		"google":     {Name: "google", RequiresAPIKey: true},
		"mock":       {Name: "mock"},
	}
}

// Register adds or replaces a provider constructor.
func (r *ProviderRegistry) Register(name string, constructor ProviderConstructor, cfg ProviderConfig) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if cfg.Name == "" {
		cfg.Name = name
	}
	r.providers[name] = constructor
	r.configs[name] = cfg
}

// Get builds the named provider. A non-empty endpoint overrides the
// standard one.
func (r *ProviderRegistry) Get(name, apiKey, endpoint string) (Provider, error) {
	r.mutex.RLock()
	constructor, ok := r.providers[name]
	cfg := r.configs[name]
	r.mutex.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	return constructor(apiKey, cfg)
}

// Config returns the standard config for name.
func (r *ProviderRegistry) Config(name string) (ProviderConfig, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Names lists the registered providers, sorted.
func (r *ProviderRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
