package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/utils/logging"
	"google.golang.org/api/option"
)

// GCS stores uploaded exports in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.FileArchive = &GCS{}

// Option configures GCS
type Option func(*gcsConfig)

type gcsConfig struct {
	prefix     string
	clientOpts []option.ClientOption
}

// WithPrefix sets the object name prefix
func WithPrefix(prefix string) Option {
	return func(c *gcsConfig) {
		c.prefix = prefix
	}
}

// WithClientOptions passes options to the underlying storage client
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *gcsConfig) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// New creates a GCS archive for bucket
func New(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	cfg := &gcsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := storage.NewClient(ctx, cfg.clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: cfg.prefix,
	}, nil
}

// Save writes data to <prefix>/<date>/<file name> and returns its gs:// URI
func (g *GCS) Save(ctx context.Context, date time.Time, fileName, contentType string, data []byte) (string, error) {
	name := ObjectName(g.prefix, date, fileName)

	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"date":          model.DateKey(date),
		"original_name": fileName,
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write object",
			goerr.V("bucket", g.bucket),
			goerr.V("object", name),
		)
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object",
			goerr.V("bucket", g.bucket),
			goerr.V("object", name),
		)
	}

	uri := fmt.Sprintf("gs://%s/%s", g.bucket, name)
	logging.From(ctx).Info("upload archived", "uri", uri, "size", len(data))
	return uri, nil
}

// Close releases the storage client
func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectName builds the object path for an upload. Directory parts of fileName are
// dropped and an empty name becomes "upload".
func ObjectName(prefix string, date time.Time, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return path.Join(strings.Trim(prefix, "/"), model.DateKey(date), base)
}
