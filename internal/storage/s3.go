package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/config"
)

// MediaAsset describes an uploaded media object. DurationSeconds is zero when
// the store cannot derive it; callers supply it out of band in that case.
type MediaAsset struct {
	URL             string
	DurationSeconds float64
}

// MediaStore uploads media files and returns their stable public location.
type MediaStore interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (MediaAsset, error)
}

// S3Storage implements MediaStore backed by an S3-compatible service.
type S3Storage struct {
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Storage{
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores the content under a unique key derived from the folder and
// original filename and returns its public location.
func (s *S3Storage) Upload(ctx context.Context, folder, filename string, r io.Reader) (MediaAsset, error) {
	ext := path.Ext(filename)
	key := path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
	if key == "" || key == "/" {
		return MediaAsset{}, fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return MediaAsset{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	if s.baseURL == "" {
		return MediaAsset{URL: key}, nil
	}

	return MediaAsset{URL: fmt.Sprintf("%s/%s", s.baseURL, key)}, nil
}

// UploadMultipart reads a multipart form file and uploads it.
func UploadMultipart(ctx context.Context, store MediaStore, folder string, header *multipart.FileHeader) (MediaAsset, error) {
	file, err := header.Open()
	if err != nil {
		return MediaAsset{}, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	return store.Upload(ctx, folder, header.Filename, file)
}

var _ MediaStore = (*S3Storage)(nil)
