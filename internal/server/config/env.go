package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vitae/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays VITAE_* environment variables. Variables from the file
// named by -env (or ./.env when present) are loaded first; real environment
// variables win over the file.
func parseEnv(config *Config, args []string) error {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	var errs []error

	lookupString("VITAE_ENV", &config.Env)
	lookupString("VITAE_GRPC_ADDR", &config.EndpointAddrGRPC)
	lookupString("VITAE_HTTP_ADDR", &config.EndpointAddrHTTP)
	lookupString("VITAE_PUBLIC_URL", &config.PublicURL)
	if v, ok := os.LookupEnv("VITAE_TRUSTED_ORIGINS"); ok {
		config.TrustedOrigins = splitList(v)
	}
	errs = append(errs, lookupInt("VITAE_LOGIN_RATE_LIMIT", &config.LoginRateLimit))
	lookupString("VITAE_DATABASE_DSN", &config.DatabaseDSN)
	lookupString("VITAE_SECRET_KEY", &config.SecretKey)
	lookupString("VITAE_TOKEN_FORMAT", &config.TokenFormat)
	errs = append(errs, lookupDuration("VITAE_TOKEN_VALIDITY", &config.TokenValidityDuration))
	lookupString("VITAE_PASSWORD_HASH", &config.PasswordHashAlgorithm)
	errs = append(errs, lookupInt("VITAE_BCRYPT_COST", &config.BcryptCost))
	lookupString("VITAE_SMTP_HOST", &config.SMTPHost)
	errs = append(errs, lookupInt("VITAE_SMTP_PORT", &config.SMTPPort))
	lookupString("VITAE_SMTP_USER", &config.SMTPUser)
	lookupString("VITAE_SMTP_PASSWORD", &config.SMTPPassword)
	lookupString("VITAE_MAIL_FROM", &config.MailFrom)
	lookupString("VITAE_LOCK_BACKEND", &config.LockBackend)
	lookupString("VITAE_REDIS_ADDR", &config.RedisAddr)
	lookupString("VITAE_REDIS_PASSWORD", &config.RedisPassword)
	errs = append(errs, lookupInt("VITAE_REDIS_DB", &config.RedisDB))

	return errors.Join(errs...)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func lookupDuration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
