// Package archive persists committed snapshots out-of-band. The engine's
// contract does not require snapshot persistence; archives exist so the
// platform can audit how the network looked at any committed version.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/logging"
)

// Document is the serialised form of a snapshot.
type Document struct {
	Version     uint64                `json:"version"`
	CommittedAt time.Time             `json:"committed_at"`
	Communities []graph.CommunityNode `json:"communities"`
	Bridges     []graph.BridgeEdge    `json:"bridges"`
}

// Config holds S3 archive settings.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`   // for S3-compatible stores
	AccessKey string `yaml:"access_key"` // empty means ambient credentials
	SecretKey string `yaml:"secret_key"`
}

// S3Archiver uploads snappy-compressed snapshot documents to S3.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	log    logging.Logger
}

// NewS3Archiver builds an archiver from config.
func NewS3Archiver(ctx context.Context, cfg Config, log logging.Logger) (*S3Archiver, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log.With(logging.Component("archive")),
	}, nil
}

// Archive uploads one snapshot. Called asynchronously after commit; errors
// are logged by the scheduler and never fail the commit.
func (a *S3Archiver) Archive(ctx context.Context, snap *graph.NetworkSnapshot) error {
	doc := Document{
		Version:     snap.Version(),
		CommittedAt: snap.CreatedAt(),
		Communities: snap.Nodes(),
		Bridges:     snap.Edges(),
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot %d: %w", snap.Version(), err)
	}
	compressed := snappy.Encode(nil, raw)

	key := fmt.Sprintf("%ssnapshots/v%010d.json.snappy", a.prefix, snap.Version())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(compressed),
	})
	if err != nil {
		return fmt.Errorf("upload snapshot %d: %w", snap.Version(), err)
	}

	a.log.Debug("snapshot archived",
		logging.SnapshotVersion(snap.Version()),
		logging.String("key", key),
		logging.Int("bytes", len(compressed)))
	return nil
}

// Decode unpacks an archived document, used by restore tooling and tests.
func Decode(data []byte) (Document, error) {
	var doc Document
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return doc, fmt.Errorf("decompress archive: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode archive: %w", err)
	}
	return doc, nil
}
