package filetype

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestDetect(t *testing.T) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	cases := []struct {
		name string
		data []byte
		kind Kind
		mime string
	}{
		{"png", pngBuf.Bytes(), KindImage, "image/png"},
		{"pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"), KindPDF, "application/pdf"},
		{"text", []byte("patient has a cough for 3 days"), KindUnknown, "text/plain"},
		{"binary", []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff}, KindUnknown, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := Detect(tc.data)
			if info.Kind != tc.kind {
				t.Fatalf("kind: want %s got %s (%s)", tc.kind, info.Kind, info.MIMEType)
			}
			if info.MIMEType != tc.mime {
				t.Fatalf("mime: want %s got %s", tc.mime, info.MIMEType)
			}
			if info.IsImage() != (tc.kind == KindImage) || info.IsPDF() != (tc.kind == KindPDF) {
				t.Fatalf("IsImage=%v IsPDF=%v for %s", info.IsImage(), info.IsPDF(), tc.kind)
			}
		})
	}
}
