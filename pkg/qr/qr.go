package qr

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// DataURL renders the payload as a PNG QR code wrapped in a data URL, the
// format stored on orders and rendered by pickup counters.
func DataURL(payload string) (string, error) {
	if strings.TrimSpace(payload) == "" {
		return "", fmt.Errorf("payload is required")
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, defaultSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
