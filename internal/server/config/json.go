package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vitae/internal/flagx"
	"github.com/dmitrijs2005/vitae/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from an explicit zero value.
type JsonConfig struct {
	Env                   string          `json:"env"`
	EndpointAddrGRPC      string          `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP      string          `json:"endpoint_addr_http"`
	PublicURL             string          `json:"public_url"`
	TrustedOrigins        []string        `json:"trusted_origins"`
	LoginRateLimit        *int            `json:"login_rate_limit"`
	DatabaseDSN           string          `json:"database_dsn"`
	SecretKey             string          `json:"secret_key"`
	TokenFormat           string          `json:"token_format"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	PasswordHashAlgorithm string          `json:"password_hash_algorithm"`
	BcryptCost            int             `json:"bcrypt_cost"`
	SMTPHost              string          `json:"smtp_host"`
	SMTPPort              int             `json:"smtp_port"`
	SMTPUser              string          `json:"smtp_user"`
	SMTPPassword          string          `json:"smtp_password"`
	MailFrom              string          `json:"mail_from"`
	LockBackend           string          `json:"lock_backend"`
	RedisAddr             string          `json:"redis_addr"`
	RedisPassword         string          `json:"redis_password"`
	RedisDB               *int            `json:"redis_db"`
}

// parseJson overlays values from the file named by -c/-config. Keys missing
// from the file leave the current values untouched.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.Env, c.Env)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.PublicURL, c.PublicURL)
	if c.TrustedOrigins != nil {
		config.TrustedOrigins = c.TrustedOrigins
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenFormat, c.TokenFormat)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setString(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.LockBackend, c.LockBackend)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
