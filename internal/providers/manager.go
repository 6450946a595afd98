package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Kyo-70/game-translator/internal/ports"
)

// apiConfig holds the per-provider settings read from the config file.
type apiConfig struct {
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Email    string `json:"email,omitempty"`
}

type managerConfig struct {
	ActiveAPI *string              `json:"active_api"`
	APIs      map[string]apiConfig `json:"apis"`
}

// Manager owns the registered backends and the shared cache and usage
// tracker. Translation requests walk the fallback chain: the active
// provider first, then the rest in registration order.
type Manager struct {
	mu         sync.Mutex
	log        *logrus.Logger
	configPath string
	config     managerConfig
	cache      *lruCache
	usage      *UsageTracker
	order      []ports.Provider
	byName     map[string]ports.Provider
	active     string
}

// NewManager loads the provider configuration from configPath and
// registers every backend it can construct from it. Keyless backends are
// always registered; keyed ones only when their credentials are present.
func NewManager(configPath, usagePath string, log *logrus.Logger) *Manager {
	m := &Manager{
		log:        log,
		configPath: configPath,
		cache:      newLRUCache(defaultCacheSize),
		usage:      NewUsageTracker(usagePath, log),
		byName:     map[string]ports.Provider{},
	}
	m.loadConfig()
	if cfg, ok := m.config.APIs["deepl"]; ok && cfg.APIKey != "" {
		m.Register(NewDeepL(cfg.APIKey, cfg.Endpoint, m.cache, m.usage, log))
	}
	if cfg, ok := m.config.APIs["google"]; ok && cfg.APIKey != "" {
		m.Register(NewGoogleTranslate(cfg.APIKey, m.cache, m.usage, log))
	}
	m.Register(NewLibreTranslate(m.cache, m.usage, log))
	m.Register(NewMyMemory(m.config.APIs["mymemory"].Email, m.cache, m.usage, log))
	if m.config.ActiveAPI != nil {
		if _, ok := m.byName[*m.config.ActiveAPI]; ok {
			m.active = *m.config.ActiveAPI
		}
	}
	return m
}

func (m *Manager) loadConfig() {
	m.config = managerConfig{APIs: map[string]apiConfig{}}
	raw, err := os.ReadFile(m.configPath)
	if err != nil {
		return
	}
	if err := json.Unmarshal(raw, &m.config); err != nil {
		m.log.WithError(err).WithField("path", m.configPath).Warn("provider config unreadable, using defaults")
		m.config = managerConfig{APIs: map[string]apiConfig{}}
	}
	if m.config.APIs == nil {
		m.config.APIs = map[string]apiConfig{}
	}
}

func (m *Manager) persistConfig() {
	raw, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(m.configPath); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(m.configPath, raw, 0o644); err != nil {
		m.log.WithError(err).WithField("path", m.configPath).Warn("could not persist provider config")
	}
}

// Register appends a backend to the fallback chain. Registering a name
// twice replaces the earlier instance but keeps its position.
func (m *Manager) Register(p ports.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[p.Name()]; exists {
		for i, old := range m.order {
			if old.Name() == p.Name() {
				m.order[i] = p
				break
			}
		}
	} else {
		m.order = append(m.order, p)
	}
	m.byName[p.Name()] = p
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, p.Name())
	}
	return out
}

// Active returns the preferred provider name, empty when none is pinned.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetActive pins a provider to the front of the fallback chain and
// persists the choice. An empty name clears the pin.
func (m *Manager) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name != "" {
		if _, ok := m.byName[name]; !ok {
			return fmt.Errorf("unknown provider %q", name)
		}
	}
	m.active = name
	if name == "" {
		m.config.ActiveAPI = nil
	} else {
		m.config.ActiveAPI = &name
	}
	m.persistConfig()
	return nil
}

// chain returns providers in fallback order: active first, then the rest
// in registration order.
func (m *Manager) chain() []ports.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.Provider, 0, len(m.order))
	if m.active != "" {
		if p, ok := m.byName[m.active]; ok {
			out = append(out, p)
		}
	}
	for _, p := range m.order {
		if p.Name() == m.active {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Translate walks the fallback chain and returns the first success along
// with the name of the provider that produced it.
func (m *Manager) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, string, error) {
	var lastErr error
	for _, p := range m.chain() {
		translated, err := p.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			m.log.WithError(err).WithField("provider", p.Name()).Debug("provider failed, trying next")
			lastErr = err
			continue
		}
		return translated, p.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no providers registered")
	}
	return "", "", lastErr
}

// TranslateBatch deduplicates texts preserving first-seen order, then
// drains them through the chain until every text is resolved or the
// chain is exhausted.
func (m *Manager) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) map[string]string {
	seen := make(map[string]struct{}, len(texts))
	pending := make([]string, 0, len(texts))
	for _, text := range texts {
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		pending = append(pending, text)
	}
	results := make(map[string]string, len(pending))
	for _, p := range m.chain() {
		if len(pending) == 0 {
			break
		}
		for text, translated := range p.TranslateBatch(ctx, pending, sourceLang, targetLang) {
			results[text] = translated
		}
		remaining := pending[:0]
		for _, text := range pending {
			if _, done := results[text]; !done {
				remaining = append(remaining, text)
			}
		}
		pending = remaining
	}
	return results
}

// Usage exposes the shared tracker for reporting.
func (m *Manager) Usage() *UsageTracker { return m.usage }

// CacheLen reports how many results the shared cache currently holds.
func (m *Manager) CacheLen() int { return m.cache.Len() }
