// Package config loads the flowctl profile.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON profile passed with --config.
//  3. Environment variables (TRIPFLOW_APP_SECRET, TRIPFLOW_FLOW_TOKEN_SECRET,
//     FLOWCTL_SERVER_URL, FLOWCTL_PUBLIC_KEY_FILE).
//  4. Command flags, applied by the cli package when explicitly set.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "http://localhost:8080/flow",
//	  "public_key_file": "keys/public.pem",
//	  "app_secret": "...",
//	  "flow_token_secret": "...",
//	  "timeout": "30s",
//	  "token_ttl": "24h"
//	}
package config
