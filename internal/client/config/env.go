package config

import "os"

func parseEnv(cfg *Config) {
	for name, dst := range map[string]*string{
		"FLOWCTL_SERVER_URL":         &cfg.ServerURL,
		"FLOWCTL_PUBLIC_KEY_FILE":    &cfg.PublicKeyFile,
		"TRIPFLOW_APP_SECRET":        &cfg.AppSecret,
		"TRIPFLOW_FLOW_TOKEN_SECRET": &cfg.FlowTokenSecret,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}
