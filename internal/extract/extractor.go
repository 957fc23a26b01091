package extract

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "image"
    "strings"
    "sync"

    // decoders registered with image.Decode
    _ "image/gif"
    _ "image/jpeg"
    _ "image/png"

    _ "golang.org/x/image/bmp"
    _ "golang.org/x/image/tiff"
    _ "golang.org/x/image/webp"

    fitz "github.com/gen2brain/go-fitz"
    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/rs/zerolog"

    "github.com/local/medsummarizer/internal/filetype"
    "github.com/local/medsummarizer/internal/metrics"
)

var (
    ErrImageDecode = errors.New("image decode failed")
    ErrNotPDF      = errors.New("payload is not a pdf")
    ErrPDFOpen     = errors.New("pdf open failed")
)

// Payload is an uploaded binary blob. A nil *Payload means the field was not supplied.
type Payload struct {
    Filename string
    Data     []byte
}

// Context is what the pipeline derives from the uploads of one request.
type Context struct {
    Image       image.Image // nil when no image was supplied
    ImageFormat string      // format name reported by the decoder, e.g. "png"
    PDFText     string      // "" when no PDF was supplied
    PDFPages    int
}

// HasImage reports whether a decoded bitmap is available.
func (c Context) HasImage() bool { return c.Image != nil }

// Document is a paged document that yields plain text per 0-based page index.
type Document interface {
    NumPage() int
    Text(pageNumber int) (string, error)
    Close() error
}

// Opener opens an in-memory PDF.
type Opener func(data []byte) (Document, error)

// FitzOpener opens PDFs with MuPDF through go-fitz.
func FitzOpener(data []byte) (Document, error) {
    doc, err := fitz.NewFromMemory(data)
    if err != nil { return nil, err }
    return doc, nil
}

// Extractor turns optional image and PDF uploads into an ExtractedContext.
type Extractor struct {
    open  Opener
    count func([]byte) (int, error)
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithOpener replaces the PDF opener.
func WithOpener(o Opener) Option { return func(e *Extractor) { e.open = o } }

// WithPageCounter replaces the structural page counter used to cross-check the opener.
func WithPageCounter(c func([]byte) (int, error)) Option { return func(e *Extractor) { e.count = c } }

// New creates an Extractor backed by go-fitz, cross-checked by pdfcpu.
func New(opts ...Option) *Extractor {
    e := &Extractor{open: FitzOpener, count: PageCount}
    for _, o := range opts { o(e) }
    return e
}

// Extract decodes the image and collects the PDF text. Either payload may be nil.
// Any decode failure is returned; there is no partial result.
func (e *Extractor) Extract(ctx context.Context, img, pdf *Payload) (Context, error) {
    logger := zerolog.Ctx(ctx)
    var out Context

    if img != nil {
        if info := filetype.Detect(img.Data); !info.IsImage() {
            return Context{}, fmt.Errorf("%w: detected %s", ErrImageDecode, info.MIMEType)
        }
        decoded, format, err := DecodeImage(img.Data)
        if err != nil { return Context{}, err }
        out.Image = decoded
        out.ImageFormat = format
        b := decoded.Bounds()
        logger.Debug().Str("format", format).Int("width", b.Dx()).Int("height", b.Dy()).Msg("decoded image")
    }

    if pdf != nil {
        text, pages, err := e.PDFText(pdf.Data)
        if err != nil { return Context{}, err }
        out.PDFText = text
        out.PDFPages = pages
        metrics.ObservePDFPages(pages)
        if e.count != nil {
            if n, err := e.count(pdf.Data); err != nil {
                logger.Debug().Err(err).Msg("pdfcpu page count unavailable")
            } else if n != pages {
                logger.Warn().Int("mupdf_pages", pages).Int("pdfcpu_pages", n).Msg("page count mismatch")
            }
        }
        logger.Debug().Int("pages", pages).Int("chars", len(text)).Msg("extracted pdf text")
    }

    return out, nil
}

// DecodeImage decodes any registered raster format into an in-memory bitmap.
func DecodeImage(data []byte) (image.Image, string, error) {
    img, format, err := image.Decode(bytes.NewReader(data))
    if err != nil {
        return nil, "", fmt.Errorf("%w: %w", ErrImageDecode, err)
    }
    return img, format, nil
}

// PDFText concatenates the text of every page in page order. A page without text
// contributes "". MuPDF closes every text block with a newline; those are trimmed
// per page. Returns the text and the page count.
func (e *Extractor) PDFText(data []byte) (string, int, error) {
    if info := filetype.Detect(data); !info.IsPDF() {
        return "", 0, fmt.Errorf("%w: detected %s", ErrNotPDF, info.MIMEType)
    }
    doc, err := e.open(data)
    if err != nil { return "", 0, fmt.Errorf("%w: %w", ErrPDFOpen, err) }
    defer doc.Close()

    n := doc.NumPage()
    var b strings.Builder
    for i := 0; i < n; i++ {
        text, err := doc.Text(i)
        if err != nil {
            return "", n, fmt.Errorf("text page %d: %w", i+1, err)
        }
        b.WriteString(strings.TrimRight(text, "\n"))
    }
    return b.String(), n, nil
}

var disableConfigDir sync.Once

// PageCount returns the number of pages pdfcpu finds in an in-memory PDF.
func PageCount(data []byte) (int, error) {
    disableConfigDir.Do(api.DisableConfigDir)
    n, err := api.PageCount(bytes.NewReader(data), nil)
    if err != nil {
        return 0, fmt.Errorf("pdf page count failed: %w", err)
    }
    return n, nil
}
