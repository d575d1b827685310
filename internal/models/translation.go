package models

// TranslationEntry is one cached translation, keyed by the hash of
// (SourceText, SourceLang, TargetLang). Timestamp is Unix milliseconds.
type TranslationEntry struct {
	Hash           string `json:"hash"`
	SourceText     string `json:"sourceText"`
	SourceLang     string `json:"sourceLang"`
	TargetLang     string `json:"targetLang"`
	TranslatedText string `json:"translatedText"`
	Timestamp      int64  `json:"timestamp"`
}
