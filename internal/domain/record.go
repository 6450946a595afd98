package domain

import "time"

// TranslationRecord is one row of the translation memory, keyed by the
// original text (unique, case-sensitive).
type TranslationRecord struct {
	ID             int64     `json:"id"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	Category       string    `json:"category"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UsageCount     int64     `json:"usage_count"`
}

// TranslationPair is the minimal (original, translated) tuple used by bulk
// import paths.
type TranslationPair struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
}

// AddOptions carries the optional metadata of an upsert. Zero values fall
// back to the store defaults (en, pt, general, empty notes).
type AddOptions struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Category   string `json:"category"`
	Notes      string `json:"notes"`
}
