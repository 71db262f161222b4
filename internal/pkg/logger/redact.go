package logger

// RedactSecret masks a credential for safe logging.
// "sk_live_abcdef123456" → "sk_l***3456"
// Values of 8 characters or fewer are fully masked.
func RedactSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
