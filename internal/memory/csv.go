package memory

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Kyo-70/game-translator/internal/adapters/db/sqlite"
	"github.com/Kyo-70/game-translator/internal/domain"
)

var csvHeader = []string{"ID", "Original", "Tradução", "Categoria", "Notas", "Usos"}

// ExportCSV writes the whole memory to a CSV file with the canonical
// header. Returns false when disconnected or on any I/O failure.
func (s *Store) ExportCSV(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false
	}
	records := s.listLocked(sqlite.ListFilter{})
	f, err := os.Create(path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Error("memory export failed")
		return false
	}
	defer f.Close()
	w := csv.NewWriter(f)
	_ = w.Write(csvHeader)
	for _, rec := range records {
		_ = w.Write([]string{
			strconv.FormatInt(rec.ID, 10),
			rec.OriginalText,
			rec.TranslatedText,
			rec.Category,
			rec.Notes,
			strconv.FormatInt(rec.UsageCount, 10),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.log.WithError(err).Error("memory export failed")
		return false
	}
	return true
}

// ImportCSV reads pairs from a CSV file and feeds them through the batch
// upsert under category "imported". Columns are positional ([1] original,
// [2] translated); two-column files are read as (original, translated).
// Malformed or empty rows are skipped. Returns (imported, failed).
func (s *Store) ImportCSV(path string) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, 0
	}
	f, err := os.Open(path)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Error("memory import failed")
		return 0, 0
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil { // header
		return 0, 0
	}
	var pairs []domain.TranslationPair
	skipped := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		var original, translated string
		switch {
		case len(row) >= 3:
			original, translated = row[1], row[2]
		case len(row) == 2:
			original, translated = row[0], row[1]
		default:
			skipped++
			continue
		}
		if strings.TrimSpace(original) == "" || strings.TrimSpace(translated) == "" {
			skipped++
			continue
		}
		pairs = append(pairs, domain.TranslationPair{Original: original, Translated: translated})
	}
	imported, failed := s.addBatchLocked(pairs, domain.AddOptions{Category: "imported"})
	return imported, failed + skipped
}
