package deploy

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/Staticpast/WeatherVoting/build"
	perrors "github.com/Staticpast/WeatherVoting/errors"
	"github.com/Staticpast/WeatherVoting/fs"
)

// PutObjectAPI is the slice of the S3 client the mirror uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror uploads artifacts to s3://Bucket/Prefix/<file>.
type S3Mirror struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

var _ Mirror = (*S3Mirror)(nil)

// NewS3Mirror creates a mirror on an existing client.
func NewS3Mirror(client PutObjectAPI, bucket, prefix string, logger *zap.Logger) *S3Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Mirror{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// NewS3MirrorFromEnv loads AWS configuration from the default credential
// chain. An empty region keeps whatever the chain resolves.
func NewS3MirrorFromEnv(ctx context.Context, region, bucket, prefix string, logger *zap.Logger) (*S3Mirror, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CodeInvalidConfig, "s3 mirror", "load AWS configuration")
	}

	return NewS3Mirror(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// Key returns the object key for a file name.
func (m *S3Mirror) Key(file string) string {
	if m.prefix == "" {
		return file
	}
	return path.Join(m.prefix, file)
}

// Publish implements Mirror and returns the s3:// location.
func (m *S3Mirror) Publish(ctx context.Context, artifact *build.Artifact, src fs.Filesystem) (string, error) {
	f, err := src.Open(artifact.Path)
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodeArtifactNotFound, "s3 mirror", "open %s", artifact.Path)
	}
	defer f.Close()

	contentType, err := detectContentType(f)
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodeDeployFailed, "s3 mirror", "read %s", artifact.Path)
	}

	key := m.Key(artifact.File())
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(m.bucket),
		Key:          aws.String(key),
		Body:         f,
		ContentType:  aws.String(contentType),
		StorageClass: types.StorageClassStandard,
		Metadata: map[string]string{
			"artifact": artifact.Name,
			"version":  artifact.Version.String(),
		},
	})
	if err != nil {
		return "", perrors.Wrapf(err, perrors.CodeDeployFailed, "s3 mirror", "put s3://%s/%s", m.bucket, key)
	}

	loc := fmt.Sprintf("s3://%s/%s", m.bucket, key)
	m.logger.Info("artifact mirrored", zap.String("location", loc), zap.String("content_type", contentType))
	return loc, nil
}

// detectContentType sniffs the head of r and rewinds it.
func detectContentType(r io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mt.String(), nil
}
