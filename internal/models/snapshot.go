package models

// SnapshotVersion is the format tag written by export. It tracks the
// schema version of the documents inside the snapshot.
const SnapshotVersion = 4

// Snapshot is a point-in-time copy of all four tables. It is never stored
// as a table itself.
type Snapshot struct {
	Profiles     []*Profile          `json:"profiles"`
	Categories   []*Category         `json:"categories"`
	UserSettings *UserSettings       `json:"userSettings"`
	Translations []*TranslationEntry `json:"translations"`
	ExportDate   string              `json:"exportDate"`
	Version      int                 `json:"version"`
}
