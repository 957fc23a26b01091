package filetype

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind is the coarse class of an uploaded payload.
type Kind string

const (
	KindImage   Kind = "image"
	KindPDF     Kind = "pdf"
	KindUnknown Kind = "unknown"
)

// Info contains detected file type information
type Info struct {
	MIMEType  string
	Extension string
	Kind      Kind
}

// IsImage reports whether the payload looked like a raster image.
func (i Info) IsImage() bool { return i.Kind == KindImage }

// IsPDF reports whether the payload looked like a PDF document.
func (i Info) IsPDF() bool { return i.Kind == KindPDF }

// Detect detects the actual file type of an in-memory upload using magic bytes, not the filename
// or the client-supplied Content-Type.
func Detect(data []byte) Info {
	mtype := mimetype.Detect(data)
	info := Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	// mimetype appends parameters such as "; charset=utf-8" for text
	if i := strings.Index(info.MIMEType, ";"); i >= 0 {
		info.MIMEType = strings.TrimSpace(info.MIMEType[:i])
	}
	classify(&info)

	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Int("bytes", len(data)).Msg("detected upload type")
	return info
}

// classify determines the coarse kind of the payload. Anything other than a PDF or a
// raster image is unknown to the pipeline.
func classify(info *Info) {
	switch mimeType := info.MIMEType; {
	case mimeType == "application/pdf":
		info.Kind = KindPDF
	case strings.HasPrefix(mimeType, "image/"):
		info.Kind = KindImage
	default:
		info.Kind = KindUnknown
	}
}
