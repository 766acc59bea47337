package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/internal/models"
)

// Mirror is the remote copy of rotation state, used solely for recovery
// after local storage loss. Local state stays authoritative when present.
type Mirror interface {
	Get(ctx context.Context, prefix string) (*models.RotationSnapshot, error)
	Put(ctx context.Context, prefix string, snapshot models.RotationSnapshot) error
}

// R2Mirror keeps the whole mirror in a single JSON object on Cloudflare R2,
// a map of state_prefix to snapshot. Updates are document-level
// read-modify-write; concurrent writers can clobber each other, which is
// acceptable for a recovery aid.
type R2Mirror struct {
	config cfg.Config
	client *s3.Client
}

func NewR2Mirror(config cfg.Config) *R2Mirror {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.R2.AccessKey, config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Error(err.Error())
		return &R2Mirror{config: config}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", config.R2.AccountID))
	})

	return &R2Mirror{config: config, client: client}
}

func (m *R2Mirror) enabled() bool {
	return m.client != nil && m.config.R2.AccessKey != "" && m.config.R2.BucketName != ""
}

func (m *R2Mirror) fetchDocument(ctx context.Context) (map[string]models.RotationSnapshot, error) {
	doc := make(map[string]models.RotationSnapshot)

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.config.R2.BucketName),
		Key:    aws.String(m.config.R2.StateKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return doc, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := json.Unmarshal(body, &doc); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return doc, nil
}

func (m *R2Mirror) Get(ctx context.Context, prefix string) (*models.RotationSnapshot, error) {
	if !m.enabled() {
		return nil, nil
	}

	doc, err := m.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, ok := doc[prefix]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (m *R2Mirror) Put(ctx context.Context, prefix string, snapshot models.RotationSnapshot) error {
	if !m.enabled() {
		return nil
	}

	// Fetch current document first so other accounts' keys survive the write.
	doc, err := m.fetchDocument(ctx)
	if err != nil {
		doc = make(map[string]models.RotationSnapshot)
	}
	doc[prefix] = snapshot

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.config.R2.BucketName),
		Key:         aws.String(m.config.R2.StateKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
