package models

// Nickname is owned by exactly one Profile and has no lifecycle of its own.
type Nickname struct {
	ID          string `json:"id"`
	Display     string `json:"display"`
	SourceValue string `json:"sourceValue"`
	TargetValue string `json:"targetValue"`
}

// Profile is one family member.
//
// Avatar holds an inline image (data URL) or a placeholder URL. Birthdate
// is YYYY-MM-DD and Timezone an IANA zone name; both may be empty.
type Profile struct {
	ID             string     `json:"id"`
	OriginalName   string     `json:"originalName"`
	TranslatedName string     `json:"translatedName"`
	Avatar         string     `json:"avatar,omitempty"`
	Birthdate      string     `json:"birthdate,omitempty"`
	Timezone       string     `json:"timezone,omitempty"`
	Language       string     `json:"language,omitempty"`
	Nicknames      []Nickname `json:"nicknames"`
}

// Nickname returns the nickname with the given id and its index, or -1.
func (p *Profile) Nickname(id string) (*Nickname, int) {
	for i := range p.Nicknames {
		if p.Nicknames[i].ID == id {
			return &p.Nicknames[i], i
		}
	}
	return nil, -1
}
