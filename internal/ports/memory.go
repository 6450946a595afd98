package ports

import "github.com/Kyo-70/game-translator/internal/domain"

// TranslationMemory is the store surface the pattern-sensitive translator
// depends on. Lookup increments the usage counter on a hit.
type TranslationMemory interface {
	Lookup(original string) (string, bool)
	Add(original, translated string, opts domain.AddOptions) bool
}
