package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish absent keys, which keep their current value.
type JsonConfig struct {
	ServerURL       *string         `json:"server_url"`
	PublicKeyFile   *string         `json:"public_key_file"`
	AppSecret       *string         `json:"app_secret"`
	FlowTokenSecret *string         `json:"flow_token_secret"`
	Timeout         *timex.Duration `json:"timeout"`
	TokenTTL        *timex.Duration `json:"token_ttl"`
}

// parseJson overlays cfg with the profile at path. An empty path is a no-op.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing profile %s: %w", path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.PublicKeyFile, jc.PublicKeyFile)
	setString(&cfg.AppSecret, jc.AppSecret)
	setString(&cfg.FlowTokenSecret, jc.FlowTokenSecret)
	if jc.Timeout != nil {
		cfg.Timeout = time.Duration(jc.Timeout.Duration)
	}
	if jc.TokenTTL != nil {
		cfg.TokenTTL = time.Duration(jc.TokenTTL.Duration)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
