package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tripflow/internal/flagx"
	"github.com/dmitrijs2005/tripflow/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "10s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP       string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC       string         `json:"endpoint_addr_grpc"`
	FlowPath               string         `json:"flow_path"`
	StorageBackend         string         `json:"storage_backend"`
	DatabaseDSN            string         `json:"database_dsn"`
	PrivateKey             string         `json:"private_key"`
	PrivateKeyFile         string         `json:"private_key_file"`
	PrivateKeyPassphrase   string         `json:"private_key_passphrase"`
	AppSecret              string         `json:"app_secret"`
	FlowTokenSecret        string         `json:"flow_token_secret"`
	WhatsAppAPIBase        string         `json:"whatsapp_api_base"`
	WhatsAppPhoneNumberID  string         `json:"whatsapp_phone_number_id"`
	WhatsAppAccessToken    string         `json:"whatsapp_access_token"`
	NotifyAsync            bool           `json:"notify_async"`
	NotifyTimeout          timex.Duration `json:"notify_timeout"`
	EventTimeout           timex.Duration `json:"event_timeout"`
	RedisAddr              string         `json:"redis_addr"`
	RedisStream            string         `json:"redis_stream"`
	S3RootUser             string         `json:"s3_root_user"`
	S3RootPassword         string         `json:"s3_root_password"`
	S3Bucket               string         `json:"s3_bucket"`
	S3Region               string         `json:"s3_region"`
	S3BaseEndpoint         string         `json:"s3_base_endpoint"`
	S3EventPrefix          string         `json:"s3_event_prefix"`
	PriceTableFile         string         `json:"price_table_file"`
	RateLimitRPS           float64        `json:"rate_limit_rps"`
	RateLimitBurst         int            `json:"rate_limit_burst"`
	VersionConflictRetries int            `json:"version_conflict_retries"`
	LogLevel               string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config.
//
// The file is decoded on top of the current values, so keys missing from
// the file keep whatever the defaults set. An unreadable file or invalid
// JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	fromJson(c, config)
}

func toJson(config *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:       config.EndpointAddrHTTP,
		EndpointAddrGRPC:       config.EndpointAddrGRPC,
		FlowPath:               config.FlowPath,
		StorageBackend:         config.StorageBackend,
		DatabaseDSN:            config.DatabaseDSN,
		PrivateKey:             config.PrivateKey,
		PrivateKeyFile:         config.PrivateKeyFile,
		PrivateKeyPassphrase:   config.PrivateKeyPassphrase,
		AppSecret:              config.AppSecret,
		FlowTokenSecret:        config.FlowTokenSecret,
		WhatsAppAPIBase:        config.WhatsAppAPIBase,
		WhatsAppPhoneNumberID:  config.WhatsAppPhoneNumberID,
		WhatsAppAccessToken:    config.WhatsAppAccessToken,
		NotifyAsync:            config.NotifyAsync,
		NotifyTimeout:          timex.Duration{Duration: config.NotifyTimeout},
		EventTimeout:           timex.Duration{Duration: config.EventTimeout},
		RedisAddr:              config.RedisAddr,
		RedisStream:            config.RedisStream,
		S3RootUser:             config.S3RootUser,
		S3RootPassword:         config.S3RootPassword,
		S3Bucket:               config.S3Bucket,
		S3Region:               config.S3Region,
		S3BaseEndpoint:         config.S3BaseEndpoint,
		S3EventPrefix:          config.S3EventPrefix,
		PriceTableFile:         config.PriceTableFile,
		RateLimitRPS:           config.RateLimitRPS,
		RateLimitBurst:         config.RateLimitBurst,
		VersionConflictRetries: config.VersionConflictRetries,
		LogLevel:               config.LogLevel,
	}
}

func fromJson(c *JsonConfig, config *Config) {
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.FlowPath = c.FlowPath
	config.StorageBackend = c.StorageBackend
	config.DatabaseDSN = c.DatabaseDSN
	config.PrivateKey = c.PrivateKey
	config.PrivateKeyFile = c.PrivateKeyFile
	config.PrivateKeyPassphrase = c.PrivateKeyPassphrase
	config.AppSecret = c.AppSecret
	config.FlowTokenSecret = c.FlowTokenSecret
	config.WhatsAppAPIBase = c.WhatsAppAPIBase
	config.WhatsAppPhoneNumberID = c.WhatsAppPhoneNumberID
	config.WhatsAppAccessToken = c.WhatsAppAccessToken
	config.NotifyAsync = c.NotifyAsync
	config.NotifyTimeout = c.NotifyTimeout.Duration
	config.EventTimeout = c.EventTimeout.Duration
	config.RedisAddr = c.RedisAddr
	config.RedisStream = c.RedisStream
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.S3EventPrefix = c.S3EventPrefix
	config.PriceTableFile = c.PriceTableFile
	config.RateLimitRPS = c.RateLimitRPS
	config.RateLimitBurst = c.RateLimitBurst
	config.VersionConflictRetries = c.VersionConflictRetries
	config.LogLevel = c.LogLevel
}
