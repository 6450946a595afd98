// Package smart resolves texts against the translation memory with
// pattern generalization: exact lookup first, then numeric-suffix families
// ("Soldier 01" learns from "Soldier 02"), then lexical variation pairs
// ("Light Armor" learns from "Heavy Armor").
package smart

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Kyo-70/game-translator/internal/domain"
	"github.com/Kyo-70/game-translator/internal/ports"
)

// Origin tells how a translation was resolved.
type Origin int

const (
	OriginNone Origin = iota
	OriginExact
	OriginNumeric
	OriginVariation
)

// suffixGrammars are tried in order; the first match wins. Each grammar
// splits a text into (base, separator, digit string).
var suffixGrammars = []struct {
	re  *regexp.Regexp
	sep string
}{
	{regexp.MustCompile(`^(.*\S)[ ](\d+)$`), " "},
	{regexp.MustCompile(`^(.+)_(\d+)$`), "_"},
	{regexp.MustCompile(`^(.+)-(\d+)$`), "-"},
	{regexp.MustCompile(`^(.*\D)(\d+)$`), ""},
}

// simpleNumericRE is the loose "text + trailing digits" grammar used when
// learning base pattern pairs.
var simpleNumericRE = regexp.MustCompile(`^(.+?)\s*(\d+)$`)

// variationPairs is the fixed antonym/variant table. Both directions of a
// pair are tried.
var variationPairs = [][2]string{
	{"Light", "Heavy"}, {"Small", "Large"}, {"Minor", "Major"},
	{"Weak", "Strong"}, {"Basic", "Advanced"}, {"Old", "New"},
	{"Young", "Old"}, {"Male", "Female"}, {"Upper", "Lower"},
}

// commonDigitLiterals are probed in addition to the zero-padded 0..99
// sweep.
var commonDigitLiterals = []string{"1", "01", "001", "2", "02", "002", "10", "100"}

// Translator generalizes memorized translations. It holds a best-effort
// base-pattern cache; correctness never depends on the cache because store
// lookups stay authoritative.
type Translator struct {
	mem ports.TranslationMemory

	mu           sync.Mutex
	sensitive    bool
	patternCache map[string]string
}

func New(mem ports.TranslationMemory) *Translator {
	return &Translator{mem: mem, sensitive: true, patternCache: map[string]string{}}
}

// ToggleSensitiveMemory flips the numeric/variation states on or off and
// returns the new value. Exact lookup always runs.
func (t *Translator) ToggleSensitiveMemory() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sensitive = !t.sensitive
	return t.sensitive
}

func (t *Translator) SensitiveEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sensitive
}

// Translate resolves one text. The Origin reports which state resolved it;
// OriginNone means unresolved.
func (t *Translator) Translate(text string) (string, Origin) {
	if translated, ok := t.mem.Lookup(text); ok {
		return translated, OriginExact
	}
	if !t.SensitiveEnabled() {
		return "", OriginNone
	}
	if translated, ok := t.numericPattern(text); ok {
		return translated, OriginNumeric
	}
	if translated, ok := t.variationPattern(text); ok {
		return translated, OriginVariation
	}
	return "", OriginNone
}

func parseNumeric(text string) (base, sep, digits string, ok bool) {
	for _, g := range suffixGrammars {
		if m := g.re.FindStringSubmatch(text); m != nil {
			return m[1], g.sep, m[2], true
		}
	}
	return "", "", "", false
}

// candidateDigits builds the probe set for a digit width: 0..99 in the
// same zero-padded width plus common literals, minus the original string.
func candidateDigits(width int, skip string) []string {
	seen := map[string]struct{}{skip: {}}
	out := make([]string, 0, 100+len(commonDigitLiterals))
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for i := 0; i <= 99; i++ {
		add(fmt.Sprintf("%0*d", width, i))
	}
	for _, lit := range commonDigitLiterals {
		add(lit)
	}
	return out
}

// numericPattern infers a translation from a differently-numbered sibling.
// The original digit string is always carried over verbatim, so leading
// zeros and width survive.
func (t *Translator) numericPattern(text string) (string, bool) {
	base, sep, digits, ok := parseNumeric(text)
	if !ok {
		return "", false
	}
	if cached, hit := t.cachedBase(base); hit {
		return cached + sep + digits, true
	}
	if tBase, tSep, found := t.findTranslatedBase(base, sep, len(digits), digits); found {
		return tBase + tSep + digits, true
	}
	return "", false
}

// findTranslatedBase probes the store for any sibling of base+sep and
// parses the first hit to recover the translated base and its separator.
func (t *Translator) findTranslatedBase(base, sep string, width int, skip string) (string, string, bool) {
	for _, cand := range candidateDigits(width, skip) {
		translated, ok := t.mem.Lookup(base + sep + cand)
		if !ok {
			continue
		}
		tBase, tSep, _, parsed := parseNumeric(translated)
		if !parsed {
			continue
		}
		return tBase, tSep, true
	}
	return "", "", false
}

// variationPattern substitutes a variant word, looks the alternative up,
// and maps the substitution back. It succeeds only when the alternative
// text is already translated and its translation still contains the
// substituted word.
func (t *Translator) variationPattern(text string) (string, bool) {
	for _, pair := range variationPairs {
		for _, dir := range [][2]string{{pair[0], pair[1]}, {pair[1], pair[0]}} {
			from, to := dir[0], dir[1]
			if !strings.Contains(text, from) {
				continue
			}
			alternative := strings.ReplaceAll(text, from, to)
			translated, ok := t.mem.Lookup(alternative)
			if !ok || !strings.Contains(translated, to) {
				continue
			}
			return strings.ReplaceAll(translated, to, from), true
		}
	}
	return "", false
}

// BatchTranslate resolves many texts. Numeric generalization runs per base
// group with at most one store-probed representative per group; the second
// map flags entries that were pattern-derived rather than exact.
func (t *Translator) BatchTranslate(texts []string) (map[string]string, map[string]bool) {
	results := make(map[string]string, len(texts))
	derived := make(map[string]bool, len(texts))

	type member struct{ text, digits string }
	type group struct {
		base, sep string
		members   []member
	}
	groups := map[string]*group{}
	sensitive := t.SensitiveEnabled()

	for _, text := range texts {
		if _, done := results[text]; done {
			continue
		}
		if translated, ok := t.mem.Lookup(text); ok {
			results[text] = translated
			derived[text] = false
			continue
		}
		if !sensitive {
			continue
		}
		if base, sep, digits, ok := parseNumeric(text); ok {
			key := base + "\x00" + sep
			g, exists := groups[key]
			if !exists {
				g = &group{base: base, sep: sep}
				groups[key] = g
			}
			g.members = append(g.members, member{text: text, digits: digits})
			continue
		}
		if translated, ok := t.variationPattern(text); ok {
			results[text] = translated
			derived[text] = true
		}
	}

	for _, g := range groups {
		tBase, tSep, found := "", "", false
		if cached, hit := t.cachedBase(g.base); hit {
			tBase, tSep, found = cached, g.sep, true
		} else {
			tBase, tSep, found = t.findTranslatedBase(g.base, g.sep, len(g.members[0].digits), g.members[0].digits)
		}
		if !found {
			// Same fallback order as Translate: variation only after the
			// numeric state came up empty.
			for _, m := range g.members {
				if translated, ok := t.variationPattern(m.text); ok {
					results[m.text] = translated
					derived[m.text] = true
				}
			}
			continue
		}
		for _, m := range g.members {
			results[m.text] = tBase + tSep + m.digits
			derived[m.text] = true
		}
	}
	return results, derived
}

// Learn writes the pair into the store and, when both sides end in
// digits, caches the base mapping for fast reuse.
func (t *Translator) Learn(original, translated string) bool {
	ok := t.mem.Add(original, translated, domain.AddOptions{})
	mo := simpleNumericRE.FindStringSubmatch(original)
	mt := simpleNumericRE.FindStringSubmatch(translated)
	if mo != nil && mt != nil {
		t.mu.Lock()
		t.patternCache[strings.TrimSpace(mo[1])] = strings.TrimSpace(mt[1])
		t.mu.Unlock()
	}
	return ok
}

func (t *Translator) cachedBase(base string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cached, ok := t.patternCache[base]
	return cached, ok
}
