package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Kyo-70/game-translator/internal/domain"
	"github.com/Kyo-70/game-translator/internal/memory"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()
	fn()
	w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func seedStore(t *testing.T, dir string) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store := memory.NewStore(log)
	if !store.Connect(filepath.Join(dir, "translation_memory.db")) {
		t.Fatal("could not open translation memory")
	}
	defer store.Close()
	store.Add("Sword", "Espada", domain.AddOptions{Category: "items"})
	store.Add("Continue", "Continuar", domain.AddOptions{Category: "ui"})
}

func TestMemoryStatsCommand(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir)

	out := captureStdout(t, func() {
		root := newRootCmd()
		root.SetArgs([]string{"--data-dir", dir, "memory", "stats"})
		if err := root.Execute(); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
	})

	if !strings.Contains(out, "translations: 2") {
		t.Fatalf("row count missing:\n%s", out)
	}
	if !strings.Contains(out, "categories:   2") {
		t.Fatalf("category count missing:\n%s", out)
	}
	for _, name := range []string{"items", "ui"} {
		if !strings.Contains(out, name) {
			t.Fatalf("category %q missing:\n%s", name, out)
		}
	}
}
