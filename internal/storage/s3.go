package storage

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "path"

    "github.com/aws/aws-sdk-go-v2/aws"
    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/credentials"
    "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog"

    cfgpkg "github.com/local/medsummarizer/internal/config"
)

// Uploader is the part of manager.Uploader the archive needs.
type Uploader interface {
    Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// BucketHeader checks bucket access; *s3.Client satisfies it.
type BucketHeader interface {
    HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Record is everything archived for one summarize request. Nil/empty fields are skipped.
type Record struct {
    ID        string
    Text      string
    Image     []byte
    ImageName string
    PDF       []byte
    PDFName   string
    Summary   string
    Backend   string
    Model     string
}

// Archive writes request inputs and results to S3 under <prefix>/<id>/, sealed when a
// passphrase is configured.
type Archive struct {
    up         Uploader
    head       BucketHeader
    bucket     string
    prefix     string
    passphrase string
}

// NewS3Archive loads AWS config (static keys when provided, default chain otherwise).
func NewS3Archive(ctx context.Context, cfg cfgpkg.ArchiveConfig) (*Archive, error) {
    var opts []func(*awscfg.LoadOptions) error
    if cfg.Region != "" { opts = append(opts, awscfg.WithRegion(cfg.Region)) }
    if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
        opts = append(opts, awscfg.WithCredentialsProvider(
            credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
    }
    awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
    if err != nil { return nil, fmt.Errorf("failed to load AWS config: %w", err) }
    cli := s3.NewFromConfig(awsConf)
    a := NewArchive(manager.NewUploader(cli), cfg.Bucket, cfg.Prefix, cfg.Passphrase)
    a.head = cli
    return a, nil
}

func NewArchive(up Uploader, bucket, prefix, passphrase string) *Archive {
    return &Archive{up: up, bucket: bucket, prefix: prefix, passphrase: passphrase}
}

// Ping checks that the bucket is reachable. Archives built without an S3 client report nil.
func (a *Archive) Ping(ctx context.Context) error {
    if a.head == nil { return nil }
    if _, err := a.head.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
        return fmt.Errorf("head bucket %s: %w", a.bucket, err)
    }
    return nil
}

func (a *Archive) key(id, name string) string { return path.Join(a.prefix, id, name) }

// Put uploads one object. extra is added to the object metadata.
func (a *Archive) Put(ctx context.Context, id, name, contentType string, data []byte, extra map[string]string) error {
    meta := map[string]string{"encrypted": "false"}
    for k, v := range extra { meta[k] = v }
    body := data
    if a.passphrase != "" {
        sealed, err := Seal(data, a.passphrase)
        if err != nil { return fmt.Errorf("failed to seal %s: %w", name, err) }
        body = sealed
        meta["encrypted"] = "true"
        meta["encryption-format"] = sealMagic
        contentType = "application/octet-stream"
    }
    key := a.key(id, name)
    _, err := a.up.Upload(ctx, &s3.PutObjectInput{
        Bucket:      aws.String(a.bucket),
        Key:         aws.String(key),
        Body:        bytes.NewReader(body),
        ContentType: aws.String(contentType),
        Metadata:    meta,
    })
    if err != nil { return fmt.Errorf("failed to upload %s: %w", key, err) }
    zerolog.Ctx(ctx).Debug().Str("key", key).Int("size", len(body)).Msg("archived object")
    return nil
}

// Store uploads every present part of rec. All parts are attempted; errors are joined.
func (a *Archive) Store(ctx context.Context, rec Record) error {
    if rec.ID == "" { return errors.New("archive record id is empty") }
    var errs []error
    put := func(name, ct string, data []byte, extra map[string]string) {
        if len(data) == 0 { return }
        if err := a.Put(ctx, rec.ID, name, ct, data, extra); err != nil { errs = append(errs, err) }
    }
    put("text.txt", "text/plain; charset=utf-8", []byte(rec.Text), nil)
    put(objectName("image", rec.ImageName), "application/octet-stream", rec.Image, nil)
    put(objectName("document", rec.PDFName), "application/pdf", rec.PDF, nil)
    put("summary.txt", "text/plain; charset=utf-8", []byte(rec.Summary), map[string]string{"backend": rec.Backend, "model": rec.Model})
    return errors.Join(errs...)
}

// objectName keeps only the base of a client supplied filename.
func objectName(fallback, name string) string {
    base := path.Base(path.Clean("/" + name))
    if base == "/" || base == "." { return fallback }
    return fallback + "_" + base
}
