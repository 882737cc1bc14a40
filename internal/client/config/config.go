package config

import "time"

// Config holds the flowctl profile.
//
// Fields:
//   - ServerURL: full URL of the flow endpoint.
//   - PublicKeyFile: PEM public key used to encrypt requests.
//   - AppSecret: HMAC secret used to sign request bodies. Empty sends
//     unsigned requests.
//   - FlowTokenSecret: HS256 secret for `token issue`.
//   - Timeout: HTTP client timeout.
//   - TokenTTL: validity of issued flow tokens.
type Config struct {
	ServerURL       string
	PublicKeyFile   string
	AppSecret       string
	FlowTokenSecret string
	Timeout         time.Duration
	TokenTTL        time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080/flow"
	c.PublicKeyFile = "public.pem"
	c.Timeout = 30 * time.Second
	c.TokenTTL = 24 * time.Hour
}

// Load applies defaults, the JSON profile at path (if any), then the
// environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	return cfg, nil
}
