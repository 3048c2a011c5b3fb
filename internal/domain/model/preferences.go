package model

// Preferences is the user's presentation settings, round-tripped as one
// opaque blob. The server never interprets theme contents.
type Preferences struct {
	Theme            map[string]any `json:"theme,omitempty"`
	FontSize         string         `json:"fontSize,omitempty"`
	FontWeight       string         `json:"fontWeight,omitempty"`
	NarrationEnabled bool           `json:"narrationEnabled"`
}

// DefaultPreferences is what a client sees before it ever saved anything.
func DefaultPreferences() *Preferences {
	return &Preferences{
		FontSize:         "base",
		FontWeight:       "normal",
		NarrationEnabled: false,
	}
}
