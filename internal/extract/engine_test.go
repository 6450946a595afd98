package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/sirupsen/logrus"

	"github.com/Kyo-70/game-translator/internal/profile"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadEngine(t *testing.T, p *profile.Profile, name, content string) *Engine {
	t.Helper()
	e := New(p, quietLog())
	if err := e.LoadFile(writeFile(t, name, content), ""); err != nil {
		t.Fatal(err)
	}
	e.ExtractTexts()
	return e
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	e := New(nil, quietLog())
	if err := e.LoadFile(writeFile(t, "save.dat", "data"), ""); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestExtractJSONDefault(t *testing.T) {
	content := `{
	"id": "npc_01",
	"title": "Welcome traveler",
	"flag": "enabled",
	"dialog": "Buy my wares"
}`
	e := loadEngine(t, nil, "dialog.json", content)

	got := make([]string, 0)
	for _, entry := range e.Entries() {
		got = append(got, entry.OriginalText)
	}
	want := []string{"Welcome traveler", "Buy my wares"}
	if len(got) != len(want) {
		t.Fatalf("extracted %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %q; want %q", i, got[i], want[i])
		}
	}
	// positions must point at the value inside the snapshot
	for _, entry := range e.Entries() {
		at := e.Content()[entry.Position : entry.Position+len(entry.OriginalText)]
		if at != entry.OriginalText {
			t.Fatalf("position %d points at %q, not %q", entry.Position, at, entry.OriginalText)
		}
	}
}

func TestExtractJSONSkipsTechnicalShortValues(t *testing.T) {
	content := `{"type": "weapon", "description": "A fine blade"}`
	e := loadEngine(t, nil, "item.json", content)
	if len(e.Entries()) != 1 || e.Entries()[0].OriginalText != "A fine blade" {
		t.Fatalf("entries = %+v; want only the description", e.Entries())
	}
}

func TestExtractXMLDefault(t *testing.T) {
	content := `<items>
	<item>Iron Sword</item>
	<count>42</count>
	<code>item_key</code>
	<desc>  Sharp and reliable  </desc>
</items>`
	e := loadEngine(t, nil, "items.xml", content)

	got := make([]string, 0)
	for _, entry := range e.Entries() {
		got = append(got, entry.OriginalText)
	}
	want := []string{"Iron Sword", "Sharp and reliable"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("extracted %v; want %v", got, want)
	}
	// trimmed text still maps to its exact offset
	for _, entry := range e.Entries() {
		at := e.Content()[entry.Position : entry.Position+len(entry.OriginalText)]
		if at != entry.OriginalText {
			t.Fatalf("position %d points at %q, not %q", entry.Position, at, entry.OriginalText)
		}
	}
}

func TestExtractWithProfile(t *testing.T) {
	content := `<!-- <string>commented out</string> -->
<string>Hello world</string>
<string>Hello world</string>
<string>Second line</string>`
	p := &profile.Profile{
		Name:            "test",
		FileType:        "xml",
		CapturePatterns: []string{`<string>([^<>]+)</string>`},
		ExcludePatterns: []string{`<!--(?s).*?-->`},
	}
	e := loadEngine(t, p, "strings.xml", content)

	entries := e.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries; want 2 (deduplicated, comment excluded)", len(entries))
	}
	if entries[0].OriginalText != "Hello world" || entries[1].OriginalText != "Second line" {
		t.Fatalf("unexpected entries: %q, %q", entries[0].OriginalText, entries[1].OriginalText)
	}
	if entries[0].Index != 0 || entries[1].Index != 1 {
		t.Fatal("indexes must be reassigned after dedup")
	}
	// first occurrence wins
	first := strings.Index(e.Content(), "Hello world")
	if entries[0].Position != first {
		t.Fatalf("position = %d; want first occurrence at %d", entries[0].Position, first)
	}
}

func TestExtractWithProfileSkipsInvalidPattern(t *testing.T) {
	content := `<string>Hello world</string>`
	p := &profile.Profile{
		Name:            "broken",
		FileType:        "xml",
		CapturePatterns: []string{`<string>([unclosed`, `<string>([^<>]+)</string>`},
	}
	e := loadEngine(t, p, "strings.xml", content)
	if len(e.Entries()) != 1 {
		t.Fatalf("got %d entries; want the valid pattern to still run", len(e.Entries()))
	}
}

func TestApplyTranslationsLengthDrift(t *testing.T) {
	// Replacements at lower offsets must not invalidate higher ones, and
	// growing replacements must not corrupt their neighbors.
	content := `{"greeting": "Hi", "farewell": "Bye now"}`
	e := loadEngine(t, nil, "ui.json", content)

	result := e.ApplyTranslations(map[string]string{
		"Hi":      "Olá, como vai você",
		"Bye now": "Tchau",
	})
	want := `{"greeting": "Olá, como vai você", "farewell": "Tchau"}`
	if result != want {
		t.Fatalf("result = %s; want %s", result, want)
	}
}

func TestApplyTranslationsPartial(t *testing.T) {
	content := `{"a": "First text", "b": "Second text"}`
	e := loadEngine(t, nil, "ui.json", content)

	result := e.ApplyTranslations(map[string]string{"Second text": "Segundo texto"})
	if !strings.Contains(result, "First text") || !strings.Contains(result, "Segundo texto") {
		t.Fatalf("partial apply broke content: %s", result)
	}
}

func TestApplyTranslationsIdentity(t *testing.T) {
	content := `{"a": "One two", "b": "Three four"}`
	e := loadEngine(t, nil, "ui.json", content)

	identity := map[string]string{}
	for _, entry := range e.Entries() {
		identity[entry.OriginalText] = entry.OriginalText
	}
	if got := e.ApplyTranslations(identity); got != e.Content() {
		t.Fatalf("identity apply changed content:\n%s", got)
	}
}

func TestSaveFileCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.json")
	if err := os.WriteFile(path, []byte(`{"a": "Hello there"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	e := New(nil, quietLog())
	if err := e.LoadFile(path, ""); err != nil {
		t.Fatal(err)
	}
	e.ExtractTexts()

	out := e.ApplyTranslations(map[string]string{"Hello there": "Olá"})
	if err := e.SaveFile(path, out, true, ""); err != nil {
		t.Fatal(err)
	}

	backups, err := filepath.Glob(filepath.Join(dir, "backups", "ui.json.backup_*"))
	if err != nil || len(backups) != 1 {
		t.Fatalf("backups = %v; want exactly one", backups)
	}
	raw, _ := os.ReadFile(backups[0])
	if string(raw) != `{"a": "Hello there"}` {
		t.Fatalf("backup holds %q; want the pre-translation snapshot", raw)
	}
	saved, _ := os.ReadFile(path)
	if string(saved) != `{"a": "Olá"}` {
		t.Fatalf("saved file holds %q", saved)
	}
}

func TestStatistics(t *testing.T) {
	content := `{"a": "First text", "b": "Second text"}`
	e := loadEngine(t, nil, "ui.json", content)

	e.Entries()[0].TranslatedText = "Primeiro texto"
	st := e.Statistics()
	if st.TotalEntries != 2 || st.Translated != 1 || st.Pending != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Progress != 50 {
		t.Fatalf("progress = %v; want 50", st.Progress)
	}
}

func TestApplyTranslationsLengthShiftSafe(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 40
	params.Rng.Seed(11)
	properties := gopter.NewProperties(params)

	render := func(count int, seed string, values func(i int) string) string {
		var b strings.Builder
		b.WriteString("{\n")
		for i := 0; i < count; i++ {
			fmt.Fprintf(&b, "\t\"k%d\": \"%s\",\n", i, values(i))
		}
		b.WriteString("\t\"id\": \"internal_id\"\n}")
		return b.String()
	}

	properties.Property("shrinking and growing replacements keep neighbors intact", prop.ForAll(
		func(count int, wordSeed, transSeed string) bool {
			original := func(i int) string { return fmt.Sprintf("W%d %s", i, wordSeed) }
			translated := func(i int) string {
				return fmt.Sprintf("T%d %s", i, strings.Repeat(transSeed, i%3+1))
			}

			e := loadEngine(t, nil, "prop.json", render(count, wordSeed, original))
			if len(e.Entries()) != count {
				return false
			}
			translations := make(map[string]string, count)
			for i := 0; i < count; i++ {
				translations[original(i)] = translated(i)
			}
			return e.ApplyTranslations(translations) == render(count, wordSeed, translated)
		},
		gen.IntRange(1, 8),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
