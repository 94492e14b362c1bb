package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// NowStamp - метка времени для журнала и зеркала в таблице.
func NowStamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

// EscapeMarkdown экранирует спецсимволы Telegram Markdown
// (parse_mode="Markdown"): _ * ` [ и обратный слэш ломают разбор.
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}
	r := strings.NewReplacer(
		`\`, `\\`,
		"_", `\_`,
		"*", `\*`,
		"`", "\\`",
		"[", `\[`,
	)
	return r.Replace(text)
}

func HMACSHA256Hex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
