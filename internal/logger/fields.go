package logger

import (
	"time"

	"go.uber.org/zap"
)

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

func SubscriberID(v string) zap.Field { return zap.String("subscriber_id", v) }

func Action(v string) zap.Field { return zap.String("action", v) }

// Token logs only the first 8 characters of a bearer token.
func Token(v string) zap.Field {
	if len(v) > 8 {
		v = v[:8] + "…"
	}
	return zap.String("token", v)
}

// Phone logs a phone number with all but the last 3 digits masked.
func Phone(v string) zap.Field {
	return zap.String("phone", MaskPhone(v))
}

// MaskPhone keeps the country prefix and last 3 digits: +237******468.
func MaskPhone(v string) string {
	if len(v) <= 7 {
		return "***"
	}
	head := 4
	if v[0] != '+' {
		head = 3
	}
	out := []byte(v)
	for i := head; i < len(out)-3; i++ {
		out[i] = '*'
	}
	return string(out)
}
