package compositor

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/dtnitsch/adbuilder/models"
)

func (c *Compositor) placeQR(canvas *image.NRGBA, q models.QRRegion, meta models.Metadata, resourceDir string) (*image.NRGBA, error) {
	meta, err := sidecar(meta, q.PostFolder, resourceDir)
	if err != nil {
		return nil, err
	}
	v, ok := meta.Lookup(q.Lang, q.Text)
	if !ok || v == "" {
		c.logger.Debug("qr value missing", "lang", q.Lang, "key", q.Text)
		return canvas, nil
	}

	img, err := QRImage(q.Prefix+v, q.Size)
	if err != nil {
		return nil, err
	}
	return Paste(canvas, img, image.Pt(q.X, q.Y)), nil
}

// QRImage encodes content as a size x size QR code.
func QRImage(content string, size int) (image.Image, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return code.Image(size), nil
}
