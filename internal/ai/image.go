package ai

import (
    "bytes"
    "encoding/base64"
    "fmt"
    "image"
    "image/jpeg"
    "image/png"
)

const jpegQuality = 90

// EncodeImage re-encodes a decoded bitmap for transport. JPEG sources stay JPEG; every
// other format is sent as PNG. Returns the bytes and their MIME type.
func EncodeImage(img image.Image, format string) ([]byte, string, error) {
    var buf bytes.Buffer
    if format == "jpeg" {
        if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
            return nil, "", fmt.Errorf("failed to encode JPEG: %w", err)
        }
        return buf.Bytes(), "image/jpeg", nil
    }
    if err := png.Encode(&buf, img); err != nil {
        return nil, "", fmt.Errorf("failed to encode PNG: %w", err)
    }
    return buf.Bytes(), "image/png", nil
}

// EncodeToBase64 converts binary data to base64 string
func EncodeToBase64(data []byte) string {
    return base64.StdEncoding.EncodeToString(data)
}

// DataURL builds a data: URL for inline image transport.
func DataURL(mime string, data []byte) string {
    return fmt.Sprintf("data:%s;base64,%s", mime, EncodeToBase64(data))
}
