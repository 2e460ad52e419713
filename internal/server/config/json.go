package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "4h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`
	Storage          string `json:"storage"`
	LogLevel         string `json:"log_level"`

	SecretKey                    string         `json:"secret_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	PasswordHashCost             int            `json:"password_hash_cost"`

	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`

	AvatarFolder    string `json:"avatar_folder"`
	AvatarSize      int    `json:"avatar_size"`
	MaxAvatarBytes  int    `json:"max_avatar_bytes"`
	MaxAvatarPixels int    `json:"max_avatar_pixels"`
	UploadDir       string `json:"upload_dir"`

	SMTPHost            string         `json:"smtp_host"`
	SMTPPort            int            `json:"smtp_port"`
	SMTPUser            string         `json:"smtp_user"`
	SMTPPassword        string         `json:"smtp_password"`
	SMTPFrom            string         `json:"smtp_from"`
	VerificationBaseURL string         `json:"verification_base_url"`
	NotificationTimeout timex.Duration `json:"notification_timeout"`

	RedisAddr    string         `json:"redis_addr"`
	ResendLimit  int            `json:"resend_limit"`
	ResendWindow timex.Duration `json:"resend_window"`
}

// parseJson loads the file named by -c/-config (if any) and copies every
// non-zero value into config. Keys missing from the file keep their current
// value. An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setValue(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setValue(&config.DatabaseDSN, c.DatabaseDSN)
	setValue(&config.Storage, c.Storage)
	setValue(&config.LogLevel, c.LogLevel)

	setValue(&config.SecretKey, c.SecretKey)
	setValue(&config.SessionTokenValidityDuration, c.SessionTokenValidityDuration.Duration)
	setValue(&config.PasswordHashCost, c.PasswordHashCost)

	setValue(&config.S3RootUser, c.S3RootUser)
	setValue(&config.S3RootPassword, c.S3RootPassword)
	setValue(&config.S3Bucket, c.S3Bucket)
	setValue(&config.S3Region, c.S3Region)
	setValue(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setValue(&config.S3PublicBaseURL, c.S3PublicBaseURL)

	setValue(&config.AvatarFolder, c.AvatarFolder)
	setValue(&config.AvatarSize, c.AvatarSize)
	setValue(&config.MaxAvatarBytes, c.MaxAvatarBytes)
	setValue(&config.MaxAvatarPixels, c.MaxAvatarPixels)
	setValue(&config.UploadDir, c.UploadDir)

	setValue(&config.SMTPHost, c.SMTPHost)
	setValue(&config.SMTPPort, c.SMTPPort)
	setValue(&config.SMTPUser, c.SMTPUser)
	setValue(&config.SMTPPassword, c.SMTPPassword)
	setValue(&config.SMTPFrom, c.SMTPFrom)
	setValue(&config.VerificationBaseURL, c.VerificationBaseURL)
	setValue(&config.NotificationTimeout, c.NotificationTimeout.Duration)

	setValue(&config.RedisAddr, c.RedisAddr)
	setValue(&config.ResendLimit, c.ResendLimit)
	setValue(&config.ResendWindow, c.ResendWindow.Duration)
}

func setValue[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
