package pairing

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/mediavaultapp/companion-server/internal/domain"
)

// qrSize is the pixel width of rendered pairing QR codes.
const qrSize = 256

// QRCode renders a discovery payload as a PNG the desktop UI can display.
// The mobile client scans it instead of typing the code and address by hand.
func QRCode(payload *domain.DiscoveryPayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal discovery payload: %w", err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode pairing QR: %w", err)
	}
	return png, nil
}
