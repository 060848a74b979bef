package gcsuploader

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

//Client stages merged tables in a Cloud Storage bucket
type Client struct {
	Project   string
	GCSClient *storage.Client
	log       zerolog.Logger
}

var validBucket = regexp.MustCompile(`^(gs://)?([a-z0-9][a-z0-9._-]{1,61}[a-z0-9])/?$`)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

//New returns a client using application default credentials
func New(ctx context.Context, project string, log zerolog.Logger) (*Client, error) {
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	if project == "" {
		project = creds.ProjectID
	}
	gcs, err := storage.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}
	return &Client{Project: project, GCSClient: gcs, log: log}, nil
}

func (c *Client) Close() error {
	return c.GCSClient.Close()
}

//BucketName accepts "bucket" or "gs://bucket" and returns the bare name
func BucketName(s string) (string, error) {
	m := validBucket.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", fmt.Errorf("invalid bucket %q", s)
	}
	return m[2], nil
}

//ObjectURL is the gs:// address a staged file ends up at
func ObjectURL(bucket, inputFile string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, path.Base(inputFile))
}

//Stage uploads inputFile to bucket under its base name. An object with the
//same name and checksum is left alone.
func (c *Client) Stage(ctx context.Context, inputFile string, bucket string) (string, error) {
	bucket, err := BucketName(bucket)
	if err != nil {
		return "", err
	}
	if err := c.ensureBucket(ctx, bucket); err != nil {
		return "", err
	}

	filename := path.Base(inputFile)
	gcsURL := ObjectURL(bucket, inputFile)
	obj := c.GCSClient.Bucket(bucket).Object(filename)

	sum, err := fileCRC32C(inputFile)
	if err != nil {
		return "", err
	}
	attrs, err := obj.Attrs(ctx)
	switch {
	case err == nil && attrs.CRC32C == sum:
		c.log.Info().Str("url", gcsURL).Msg("object already staged")
		return gcsURL, nil
	case err != nil && !errors.Is(err, storage.ErrObjectNotExist):
		return "", err
	}

	file, err := os.Open(inputFile)
	if err != nil {
		return "", err
	}
	defer file.Close()

	start := time.Now()
	upload := obj.NewWriter(ctx)
	upload.ChunkSize = 10 * 256 * 1024
	upload.ContentType = "text/tab-separated-values"
	upload.CRC32C = sum
	upload.SendCRC32C = true

	b, err := io.Copy(upload, file)
	if err != nil {
		upload.Close()
		return "", err
	}
	if err := upload.Close(); err != nil {
		return "", err
	}
	c.log.Info().Int64("bytes", b).Dur("took", time.Since(start)).Str("url", gcsURL).Msg("copied to staging bucket")
	return gcsURL, nil
}

func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	bh := c.GCSClient.Bucket(bucket)
	_, err := bh.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if c.Project == "" {
		return fmt.Errorf("bucket %q does not exist and no project is set to create it in", bucket)
	}
	c.log.Info().Str("bucket", bucket).Str("project", c.Project).Msg("could not find bucket, creating it now")
	return bh.Create(ctx, c.Project, nil)
}

func fileCRC32C(p string) (uint32, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := crc32.New(castagnoli)
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
