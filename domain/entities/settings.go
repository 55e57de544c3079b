package entities

// Settings holds the generation provider selection and its credential
type Settings struct {
	Provider string `yaml:"provider" json:"provider"`
	APIKey   string `yaml:"api_key" json:"apiKey"`
}
