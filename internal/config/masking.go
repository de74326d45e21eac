package config

import (
	"strings"
)

// maskSecret keeps the first and last 4 characters of a secret and
// masks the middle. Short secrets are masked entirely.
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 8 {
		return "***"
	}

	prefix := secret[:4]
	suffix := secret[len(secret)-4:]
	return prefix + strings.Repeat("*", len(secret)-8) + suffix
}

// MaskTelegramToken masks a telegram token for errors and logs, keeping
// the bot id visible for diagnostics.
func MaskTelegramToken(token string) string {
	if token == "" {
		return ""
	}

	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return maskSecret(token)
	}

	return parts[0] + ":" + maskSecret(parts[1])
}
