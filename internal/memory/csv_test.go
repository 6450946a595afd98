package memory

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kyo-70/game-translator/internal/domain"
)

func TestCSVRoundTrip(t *testing.T) {
	src := newTestStore(t)
	src.Add("Sword", "Espada", domain.AddOptions{Category: "weapons", Notes: "blade"})
	src.Add("Bread, fresh", "Pão fresco", domain.AddOptions{Category: "food"})

	path := filepath.Join(t.TempDir(), "memory.csv")
	if !src.ExportCSV(path) {
		t.Fatal("export failed")
	}

	dst := newTestStore(t)
	imported, skipped := dst.ImportCSV(path)
	if imported != 2 || skipped != 0 {
		t.Fatalf("imported=%d skipped=%d; want 2, 0", imported, skipped)
	}
	got, ok := dst.Lookup("Bread, fresh")
	if !ok || got != "Pão fresco" {
		t.Fatalf("comma-bearing text lost in round trip: %q, %v", got, ok)
	}
}

func TestExportCSVHeader(t *testing.T) {
	s := newTestStore(t)
	s.Add("A", "a", domain.AddOptions{})

	path := filepath.Join(t.TempDir(), "memory.csv")
	if !s.ExportCSV(path) {
		t.Fatal("export failed")
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d; want header + 1", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][1] != "Original" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
}

func TestImportCSVSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.csv")
	raw := "ID,Original,Tradução\n" +
		"1,Sword,Espada\n" +
		"2,,\n" + // empty pair
		"3,OnlyOriginal,\n" +
		"4,Bow,Arco\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t)
	imported, skipped := s.ImportCSV(path)
	if imported != 2 {
		t.Fatalf("imported = %d; want 2 valid rows", imported)
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d; want 2 bad rows", skipped)
	}
	if _, ok := s.Lookup("Bow"); !ok {
		t.Fatal("valid row missing after import")
	}
}

func TestImportCSVMissingFile(t *testing.T) {
	s := newTestStore(t)
	imported, skipped := s.ImportCSV(filepath.Join(t.TempDir(), "absent.csv"))
	if imported != 0 || skipped != 0 {
		t.Fatalf("imported=%d skipped=%d; want 0, 0", imported, skipped)
	}
}
