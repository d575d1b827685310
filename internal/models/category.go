package models

// Phrase is a message template. Texts may carry {name} placeholders; the
// store does not check that source and target placeholders match.
type Phrase struct {
	ID         string `json:"id"`
	SourceText string `json:"sourceText"`
	TargetText string `json:"targetText"`
}

// Category groups phrases; Order drives display sequence.
type Category struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Order    int      `json:"order"`
	Language string   `json:"language,omitempty"`
	Phrases  []Phrase `json:"phrases"`
}

// Phrase returns the phrase with the given id and its index, or -1.
func (c *Category) Phrase(id string) (*Phrase, int) {
	for i := range c.Phrases {
		if c.Phrases[i].ID == id {
			return &c.Phrases[i], i
		}
	}
	return nil, -1
}
