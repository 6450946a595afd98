// Package extract reads game asset files, locates translatable fragments
// via regex profiles (or built-in defaults), and reinserts translations at
// exact offsets.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kyo-70/game-translator/internal/domain"
	"github.com/Kyo-70/game-translator/internal/profile"
)

const minTextLength = 2

var (
	jsonPairRE   = regexp.MustCompile(`"([^"]+)"\s*:\s*"([^"]+)"`)
	xmlTextRE    = regexp.MustCompile(`>([^<>]+)<`)
	identifierRE = regexp.MustCompile(`^[a-z_0-9]+$`)
	digitsOnlyRE = regexp.MustCompile(`^[0-9]+$`)
)

// technicalJSONKeys whose short values are ids/codes, not prose.
var technicalJSONKeys = map[string]struct{}{
	"id": {}, "key": {}, "type": {}, "name": {},
}

// Engine processes one file at a time: load, extract, apply, save. It is
// synchronous and keeps the original content snapshot that entry positions
// refer to.
type Engine struct {
	log     *logrus.Logger
	profile *profile.Profile

	filePath string
	fileType string
	encoding string
	content  string
	entries  []*domain.TranslationEntry
}

// New builds an engine. A nil profile selects the built-in default
// extractor for the file type.
func New(p *profile.Profile, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{log: log, profile: p, encoding: "utf-8"}
}

// LoadFile reads and decodes the file. With an empty encodingOverride the
// encoding is auto-detected; decoding failures walk the common game code
// pages and finally fall back to lossy UTF-8. An unsupported extension is a
// hard failure.
func (e *Engine) LoadFile(path, encodingOverride string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		e.fileType = "json"
	case ".xml":
		e.fileType = "xml"
	default:
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	enc := encodingOverride
	if enc == "" {
		enc = DetectEncoding(raw)
	}
	content, err := decodeBytes(raw, enc)
	if err != nil {
		content, enc = e.decodeWithFallbacks(raw, enc)
	}

	e.filePath = path
	e.encoding = enc
	e.content = content
	e.entries = nil
	return nil
}

func (e *Engine) decodeWithFallbacks(raw []byte, failed string) (string, string) {
	for _, name := range commonGameEncodings {
		if name == failed {
			continue
		}
		if content, err := decodeBytes(raw, name); err == nil {
			e.log.WithFields(logrus.Fields{"detected": failed, "used": name}).
				Warn("detected encoding failed to decode, using fallback")
			return content, name
		}
	}
	e.log.WithField("detected", failed).Warn("all decode attempts failed, replacing invalid bytes")
	return decodeLossy(raw), "utf-8"
}

// DetectedEncoding reports the encoding resolved by the last LoadFile.
func (e *Engine) DetectedEncoding() string { return e.encoding }

func (e *Engine) FileType() string { return e.fileType }

// Content returns the original, untranslated snapshot.
func (e *Engine) Content() string { return e.content }

// Entries returns the extracted occurrences; callers fill TranslatedText
// in place as translations resolve.
func (e *Engine) Entries() []*domain.TranslationEntry { return e.entries }

// ExtractTexts scans the loaded content for translatable fragments. With a
// profile, the pipeline is fixed: exclusion spans first, then capture
// patterns in list order (last group is the candidate), then first-seen
// de-duplication with reassigned indexes. Without one, a default extractor
// per file type applies.
func (e *Engine) ExtractTexts() []*domain.TranslationEntry {
	e.entries = nil
	if e.profile == nil {
		switch e.fileType {
		case "json":
			e.extractJSONDefault()
		case "xml":
			e.extractXMLDefault()
		}
		return e.entries
	}
	e.extractWithProfile()
	return e.entries
}

func (e *Engine) extractJSONDefault() {
	for _, m := range jsonPairRE.FindAllStringSubmatchIndex(e.content, -1) {
		key := e.content[m[2]:m[3]]
		value := e.content[m[4]:m[5]]
		if _, tech := technicalJSONKeys[strings.ToLower(key)]; tech && len(value) < 50 {
			continue
		}
		if identifierRE.MatchString(value) {
			continue
		}
		e.entries = append(e.entries, &domain.TranslationEntry{
			Index:        len(e.entries),
			OriginalText: value,
			Position:     m[4],
			Context:      e.content[m[0]:m[1]],
		})
	}
}

func (e *Engine) extractXMLDefault() {
	for _, m := range xmlTextRE.FindAllStringSubmatchIndex(e.content, -1) {
		raw := e.content[m[2]:m[3]]
		text := strings.TrimSpace(raw)
		if len(text) < minTextLength {
			continue
		}
		if digitsOnlyRE.MatchString(text) || identifierRE.MatchString(text) {
			continue
		}
		e.entries = append(e.entries, &domain.TranslationEntry{
			Index:        len(e.entries),
			OriginalText: text,
			Position:     m[2] + strings.Index(raw, text),
			Context:      e.content[m[0]:m[1]],
		})
	}
}

type span struct{ start, end int }

func (e *Engine) extractWithProfile() {
	// Pass 1: union of excluded spans. A malformed pattern is skipped and
	// reported; the rest still run.
	var excluded []span
	for _, pat := range e.profile.ExcludePatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			e.log.WithError(err).WithField("pattern", pat).Error("invalid exclude pattern")
			continue
		}
		for _, m := range re.FindAllStringIndex(e.content, -1) {
			excluded = append(excluded, span{m[0], m[1]})
		}
	}

	// Pass 2: capture patterns in list order, last group is the candidate.
	var entries []*domain.TranslationEntry
	for _, pat := range e.profile.CapturePatterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			e.log.WithError(err).WithField("pattern", pat).Error("invalid capture pattern")
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(e.content, -1) {
			last := len(m)/2 - 1
			if last < 1 || m[2*last] < 0 {
				continue
			}
			raw := e.content[m[2*last]:m[2*last+1]]
			text := strings.TrimSpace(raw)
			if len(text) < minTextLength {
				continue
			}
			if insideSpan(excluded, m[0]) {
				continue
			}
			entries = append(entries, &domain.TranslationEntry{
				OriginalText: text,
				Position:     m[2*last] + strings.Index(raw, text),
				Context:      e.content[m[0]:m[1]],
			})
		}
	}

	// Pass 3: de-duplicate by exact text, keep first occurrence, reindex.
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.OriginalText]; dup {
			continue
		}
		seen[entry.OriginalText] = struct{}{}
		entry.Index = len(e.entries)
		e.entries = append(e.entries, entry)
	}
}

func insideSpan(spans []span, pos int) bool {
	for _, s := range spans {
		if s.start <= pos && pos <= s.end {
			return true
		}
	}
	return false
}

// ApplyTranslations splices translated text over the original snapshot.
// Entries are processed in descending position order so earlier offsets
// stay valid as replacement lengths drift.
func (e *Engine) ApplyTranslations(translations map[string]string) string {
	sorted := make([]*domain.TranslationEntry, len(e.entries))
	copy(sorted, e.entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position > sorted[j].Position })

	result := e.content
	for _, entry := range sorted {
		translated, ok := translations[entry.OriginalText]
		if !ok {
			continue
		}
		end := entry.Position + len(entry.OriginalText)
		result = result[:entry.Position] + translated + result[end:]
	}
	return result
}

// SaveFile writes content in the detected (or overridden) encoding. With
// createBackup, the original pre-translation snapshot is first copied into
// a sibling backups/ directory under a timestamped name.
func (e *Engine) SaveFile(path, content string, createBackup bool, encodingOverride string) error {
	enc := encodingOverride
	if enc == "" {
		enc = e.encoding
	}
	if createBackup && e.content != "" {
		if err := e.writeBackup(path, enc); err != nil {
			return err
		}
	}
	raw, err := encodeString(content, enc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (e *Engine) writeBackup(path, enc string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	backupDir := filepath.Join(filepath.Dir(abs), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("%s.backup_%s", filepath.Base(path), time.Now().Format("20060102_150405"))
	raw, err := encodeString(e.content, enc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(backupDir, name), raw, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Statistics summarizes extraction progress.
type Statistics struct {
	TotalEntries int     `json:"total_entries"`
	Translated   int     `json:"translated"`
	Pending      int     `json:"pending"`
	Progress     float64 `json:"progress"`
	Encoding     string  `json:"encoding"`
	FileType     string  `json:"file_type"`
}

func (e *Engine) Statistics() Statistics {
	total := len(e.entries)
	translated := 0
	for _, entry := range e.entries {
		if entry.TranslatedText != "" {
			translated++
		}
	}
	st := Statistics{
		TotalEntries: total,
		Translated:   translated,
		Pending:      total - translated,
		Encoding:     e.encoding,
		FileType:     e.fileType,
	}
	if total > 0 {
		st.Progress = float64(translated) / float64(total) * 100
	}
	return st
}
