package types

// Settings is the durable runtime configuration blob served by the
// coordinator. It is loaded lazily on first access, falls back to
// DefaultSettings for any missing key, and is mutated only through a save
// that merges partial updates into the persisted whole.
type Settings struct {
	InterceptEnabled  bool   `json:"intercept_enabled"`
	AutoAnalyze       bool   `json:"auto_analyze"`
	ShowNotifications bool   `json:"show_notifications"`
	Language          string `json:"language"`
	APIEndpoint       string `json:"api_endpoint"`
}

// DefaultSettings returns the hard-coded defaults used when no blob has been
// persisted yet.
func DefaultSettings() Settings {
	return Settings{
		InterceptEnabled:  true,
		AutoAnalyze:       true,
		ShowNotifications: true,
		Language:          "en",
		APIEndpoint:       "http://localhost:9090",
	}
}

// Merge applies a partial update and returns the result. Keys follow the
// wire names; unknown keys and mistyped values are ignored so that a partial
// save can never corrupt fields it did not name.
func (s Settings) Merge(update map[string]interface{}) Settings {
	for key, value := range update {
		switch key {
		case "intercept_enabled":
			if v, ok := value.(bool); ok {
				s.InterceptEnabled = v
			}
		case "auto_analyze":
			if v, ok := value.(bool); ok {
				s.AutoAnalyze = v
			}
		case "show_notifications":
			if v, ok := value.(bool); ok {
				s.ShowNotifications = v
			}
		case "language":
			if v, ok := value.(string); ok {
				s.Language = v
			}
		case "api_endpoint":
			if v, ok := value.(string); ok {
				s.APIEndpoint = v
			}
		}
	}
	return s
}
