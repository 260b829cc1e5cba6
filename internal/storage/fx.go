package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/smallbiznis/catalog/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(New),
)

func New(cfg config.Config, log *zap.Logger) (Storage, error) {
	sc := cfg.Storage
	switch sc.Driver {
	case "", DriverLocal:
		if err := os.MkdirAll(sc.LocalRoot, 0o755); err != nil {
			return nil, fmt.Errorf("create storage root: %w", err)
		}
		log.Info("storage driver configured", zap.String("driver", DriverLocal), zap.String("root", sc.LocalRoot))
		return NewLocal(sc.LocalRoot, sc.PublicBaseURL), nil
	case DriverS3:
		client, err := newS3Client(context.Background(), sc)
		if err != nil {
			return nil, err
		}
		log.Info("storage driver configured", zap.String("driver", DriverS3), zap.String("bucket", sc.S3Bucket))
		return NewS3(client, S3Options{
			Bucket:        sc.S3Bucket,
			Region:        sc.S3Region,
			Endpoint:      sc.S3Endpoint,
			PublicBaseURL: sc.PublicBaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", sc.Driver)
	}
}

func newS3Client(ctx context.Context, sc config.StorageConfig) (*s3.Client, error) {
	if sc.S3Bucket == "" {
		return nil, fmt.Errorf("STORAGE_S3_BUCKET is required for the s3 driver")
	}
	region := sc.S3Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	accessKey, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" || secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secret, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.S3Endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(sc.S3Endpoint)
		}
	}), nil
}
