package profile

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Generic JSON", "generic-json"},
		{"JSON Genérico", "json-generico"},
		{"  spaced   out  ", "spaced-out"},
		{"Profile v2.0", "profile-v20"},
		{"weird!!!@#chars", "weirdchars"},
		{"already-slugged", "already-slugged"},
		{"under_score_kept", "under_score_kept"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	m, err := NewManager(t.TempDir(), log)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestManagerCreatesDefaults(t *testing.T) {
	m := newTestManager(t)
	for _, name := range []string{"Generic JSON", "Generic XML", "Bannerlord XML", "RimWorld XML"} {
		p, ok := m.Get(name)
		if !ok {
			t.Fatalf("default profile %q missing", name)
		}
		if len(p.CapturePatterns) == 0 {
			t.Fatalf("default profile %q has no capture patterns", name)
		}
		for _, pat := range append(p.CapturePatterns, p.ExcludePatterns...) {
			if _, err := regexp.Compile(pat); err != nil {
				t.Fatalf("default pattern %q does not compile: %v", pat, err)
			}
		}
	}
}

func TestManagerPreservesEditedDefaults(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	m1, err := NewManager(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	edited, _ := m1.Get("Generic JSON")
	edited.Description = "customized"
	if err := m1.Save(edited); err != nil {
		t.Fatal(err)
	}

	m2, err := NewManager(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := m2.Get("Generic JSON")
	if p.Description != "customized" {
		t.Fatal("reconstruction overwrote an edited default")
	}
}

func TestSaveAndDelete(t *testing.T) {
	m := newTestManager(t)
	p := &Profile{Name: "Meu Perfil", FileType: "xml", CapturePatterns: []string{`>([^<>]+)<`}}
	if err := m.Save(p); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(m.dir, "meu-perfil.json")); err != nil {
		t.Fatal("profile file not written under slugified name")
	}
	if err := m.Delete("Meu Perfil"); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Get("Meu Perfil"); ok {
		t.Fatal("profile survived delete")
	}
	if _, err := os.Stat(filepath.Join(m.dir, "meu-perfil.json")); !os.IsNotExist(err) {
		t.Fatal("profile file survived delete")
	}
}

func TestExportImportCollision(t *testing.T) {
	m := newTestManager(t)
	out := filepath.Join(t.TempDir(), "generic-json.json")
	if err := m.Export("Generic JSON", out); err != nil {
		t.Fatal(err)
	}

	p, err := m.Import(out)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Generic JSON (1)" {
		t.Fatalf("imported name = %q; want collision suffix", p.Name)
	}
	p2, err := m.Import(out)
	if err != nil {
		t.Fatal(err)
	}
	if p2.Name != "Generic JSON (2)" {
		t.Fatalf("second import name = %q", p2.Name)
	}
	if _, ok := m.Get("Generic JSON"); !ok {
		t.Fatal("original profile must survive imports")
	}
}

func TestLoadDefaultsFileType(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(t.TempDir(), "typeless.json")
	if err := os.WriteFile(path, []byte(`{"name": "Typeless", "capture_patterns": [">(x)<"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := m.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.FileType != "json" {
		t.Fatalf("file type = %q; want json default", p.FileType)
	}
}
