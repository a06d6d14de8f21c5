package shipping

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// LabelArchiver stores a durable copy of a carrier label document. Carrier
// label URLs expire; the archive copy does not.
type LabelArchiver interface {
	// Archive fetches the label from its carrier URL and stores it under
	// the given key, returning the archive URL.
	Archive(ctx context.Context, labelURL, key string) (string, error)
}

// s3LabelArchiver implements LabelArchiver on AWS S3.
type s3LabelArchiver struct {
	client     *s3.Client
	bucket     string
	prefix     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewS3LabelArchiver creates an S3-backed label archiver.
func NewS3LabelArchiver(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (LabelArchiver, error) {
	logger = logger.With().Str("component", "label-archive").Logger()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("label archive initialised")

	return &s3LabelArchiver{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		prefix:     prefix,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// Archive downloads the label and uploads it to S3.
func (a *s3LabelArchiver) Archive(ctx context.Context, labelURL, key string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, labelURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build label request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch label: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("label fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read label body: %w", err)
	}

	fullKey := a.prefix + key
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(a.bucket),
		Key:         awssdk.String(fullKey),
		Body:        bytes.NewReader(body),
		ContentType: awssdk.String(resp.Header.Get("Content-Type")),
	})
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("bucket", a.bucket).
			Str("key", fullKey).
			Msg("failed to upload label to S3")
		return "", fmt.Errorf("failed to upload label to S3: %w", err)
	}

	archiveURL := fmt.Sprintf("s3://%s/%s", a.bucket, fullKey)
	a.logger.Info().
		Str("key", fullKey).
		Int("size", len(body)).
		Msg("label archived")

	return archiveURL, nil
}
