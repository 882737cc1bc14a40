package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable the server reads.
const EnvPrefix = "TRIPFLOW_"

// parseEnv overlays values from the process environment. When -e/-env-file
// names a dotenv file it is loaded first; variables already present in the
// environment are not overridden by the file. Unset or empty variables leave
// the current value alone; malformed numbers, booleans or durations panic.
func parseEnv(config *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envString(&config.FlowPath, "FLOW_PATH")
	envString(&config.StorageBackend, "STORAGE_BACKEND")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.PrivateKey, "PRIVATE_KEY")
	envString(&config.PrivateKeyFile, "PRIVATE_KEY_FILE")
	envString(&config.PrivateKeyPassphrase, "PASSPHRASE")
	envString(&config.AppSecret, "APP_SECRET")
	envString(&config.FlowTokenSecret, "FLOW_TOKEN_SECRET")
	envString(&config.WhatsAppAPIBase, "WHATSAPP_API_BASE")
	envString(&config.WhatsAppPhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	envString(&config.WhatsAppAccessToken, "WHATSAPP_ACCESS_TOKEN")
	envBool(&config.NotifyAsync, "NOTIFY_ASYNC")
	envDuration(&config.NotifyTimeout, "NOTIFY_TIMEOUT")
	envDuration(&config.EventTimeout, "EVENT_TIMEOUT")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.RedisStream, "REDIS_STREAM")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3EventPrefix, "S3_EVENT_PREFIX")
	envString(&config.PriceTableFile, "PRICE_TABLE_FILE")
	envFloat(&config.RateLimitRPS, "RATE_LIMIT_RPS")
	envInt(&config.RateLimitBurst, "RATE_LIMIT_BURST")
	envInt(&config.VersionConflictRetries, "VERSION_CONFLICT_RETRIES")
	envString(&config.LogLevel, "LOG_LEVEL")
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envBool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = b
	}
}

func envInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = n
	}
}

func envFloat(dst *float64, name string) {
	if v, ok := lookup(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = f
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = d
	}
}
