package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Manager owns the profile directory. On construction it loads every .json
// file in the directory (regardless of filename) and then creates the
// default profiles that are still missing, so user edits of defaults are
// never overwritten.
type Manager struct {
	dir      string
	log      *logrus.Logger
	profiles map[string]*Profile
}

func NewManager(dir string, log *logrus.Logger) (*Manager, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	m := &Manager{dir: dir, log: log, profiles: map[string]*Profile{}}
	m.loadAll()
	m.createDefaults()
	return m, nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, Slugify(name)+".json")
}

func (m *Manager) loadAll() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.log.WithError(err).WithField("dir", m.dir).Error("read profile dir failed")
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if _, err := m.Load(filepath.Join(m.dir, e.Name())); err != nil {
			m.log.WithError(err).WithField("file", e.Name()).Error("load profile failed")
		}
	}
}

// Load reads one profile file into the manager. The profile name comes from
// the JSON body, not the filename.
func (m *Manager) Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.FileType == "" {
		p.FileType = "json"
	}
	m.profiles[p.Name] = &p
	return &p, nil
}

// Save persists the profile as <slug>.json and registers it under its
// original name.
func (m *Manager) Save(p *Profile) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path(p.Name), raw, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	m.profiles[p.Name] = p
	return nil
}

func (m *Manager) Get(name string) (*Profile, bool) {
	p, ok := m.profiles[name]
	return p, ok
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		out = append(out, name)
	}
	return out
}

// Delete removes the profile file and forgets the profile.
func (m *Manager) Delete(name string) error {
	p := m.path(name)
	if _, err := os.Stat(p); err == nil {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	delete(m.profiles, name)
	return nil
}

// Export writes a copy of a profile to an arbitrary path for sharing.
func (m *Manager) Export(name, exportPath string) error {
	p, ok := m.profiles[name]
	if !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(exportPath, raw, 0o644)
}

// Import brings in an external profile file. A name collision gets a
// " (n)" suffix rather than overwriting the existing profile.
func (m *Manager) Import(importPath string) (*Profile, error) {
	raw, err := os.ReadFile(importPath)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", importPath, err)
	}
	if _, exists := m.profiles[p.Name]; exists {
		base := p.Name
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s (%d)", base, n)
			if _, taken := m.profiles[candidate]; !taken {
				p.Name = candidate
				break
			}
		}
	}
	if err := m.Save(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *Manager) createDefaults() {
	defaults := []*Profile{
		{
			Name:        "Generic JSON",
			Description: "Extracts string values from JSON files",
			CapturePatterns: []string{
				`"([^"]+)"\s*:\s*"([^"]+)"`,
				`:\s*"([^"]+)"`,
			},
			ExcludePatterns: []string{
				`"id"\s*:\s*"[^"]+"`,
				`"key"\s*:\s*"[^"]+"`,
				`"name"\s*:\s*"[a-z_]+"`,
				`"type"\s*:\s*"[^"]+"`,
			},
			FileType: "json",
		},
		{
			Name:        "Generic XML",
			Description: "Extracts text content from XML tags",
			CapturePatterns: []string{
				`>([^<>]+)<`,
				`<[a-zA-Z_]+>([^<>]+)</[a-zA-Z_]+>`,
			},
			ExcludePatterns: []string{
				`<id>.*?</id>`,
				`<key>.*?</key>`,
				`<!--(?s).*?-->`,
			},
			FileType: "xml",
		},
		{
			Name:        "Bannerlord XML",
			Description: "Mount & Blade II: Bannerlord localization XML",
			CapturePatterns: []string{
				`text="([^"]+)"`,
				`<string[^>]*>([^<]+)</string>`,
			},
			ExcludePatterns: []string{
				`id="[^"]+"`,
				`key="[^"]+"`,
				`<!--(?s).*?-->`,
			},
			FileType: "xml",
		},
		{
			Name:        "RimWorld XML",
			Description: "RimWorld definition XML",
			CapturePatterns: []string{
				`<label>([^<]+)</label>`,
				`<description>([^<]+)</description>`,
				`<[a-zA-Z_]+>([^<>]+)</[a-zA-Z_]+>`,
			},
			ExcludePatterns: []string{
				`<defName>.*?</defName>`,
				`<!--(?s).*?-->`,
			},
			FileType: "xml",
		},
	}
	for _, p := range defaults {
		if _, exists := m.profiles[p.Name]; exists {
			continue
		}
		if err := m.Save(p); err != nil {
			m.log.WithError(err).WithField("profile", p.Name).Error("create default profile failed")
		}
	}
}
