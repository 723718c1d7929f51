package imagehost

import (
	"context"
	"strings"
)

// Host uploads an encoded image payload to an external image host and
// returns a durably hosted URL. The payload is base64 without any data-URI
// prefix; name is a hint for the hosted object and may be empty.
type Host interface {
	Upload(ctx context.Context, name, payload string) (string, error)
}

// StripEncodingPrefix removes a "data:<mime>;base64," style prefix, leaving
// the bare encoded payload. Payloads without a separator pass through.
func StripEncodingPrefix(payload string) string {
	if idx := strings.IndexByte(payload, ','); idx >= 0 {
		return payload[idx+1:]
	}
	return payload
}
