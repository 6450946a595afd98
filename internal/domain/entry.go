package domain

// TranslationEntry is a single extracted occurrence of translatable text.
// Position is a byte offset into the original, untranslated content
// snapshot; it stays valid only while substitutions are applied in
// descending-position order.
type TranslationEntry struct {
	Index          int    `json:"index"`
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	Position       int    `json:"position"`
	Context        string `json:"context"`
}
