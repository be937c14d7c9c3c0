// Package qr builds the validation link printed on registered invoices.
package qr

import (
	"fmt"
	"net/url"

	"github.com/SscSPs/invoice_registry/internal/utils/chainhash"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// ValidationURL builds the authority's check link from a canonical payload.
func ValidationURL(baseURL string, payload []byte) (string, error) {
	values, err := chainhash.Parse(payload)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid QR base URL: %w", err)
	}
	q := u.Query()
	q.Set("nif", values["issuer"])
	q.Set("numserie", values["number"])
	q.Set("fecha", values["issued"])
	q.Set("importe", values["total"])
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PNG renders content as a QR code image.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
