package model

// Settings enumerates every recognized user setting. It is passed by value;
// unknown fields arriving at the persistence boundary are dropped rather
// than carried along.
type Settings struct {
	Volume             float64 `json:"volume"`
	AutoPlay           bool    `json:"autoPlay"`
	ShowNotifications  bool    `json:"showNotifications"`
	Language           string  `json:"language"` // "en", "tr" or "es"
	SpotifyAccessToken string  `json:"spotifyAccessToken,omitempty"`
}

// DefaultSettings returns the settings applied before any import.
func DefaultSettings() Settings {
	return Settings{
		Volume:            0.7,
		AutoPlay:          true,
		ShowNotifications: true,
		Language:          "en",
	}
}
