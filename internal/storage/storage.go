// Package storage lists the objects of a bucket for scanning.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/example/ppe-scan/internal/logging"
)

// DefaultMaxKeys is the largest page a single ListObjectsV2 call returns.
const DefaultMaxKeys int32 = 1000

// Sentinel errors for listing failures, usable with errors.Is.
var (
	ErrBucketNotFound = errors.New("storage: bucket not found")
	ErrAccessDenied   = errors.New("storage: access denied")
)

// Object is a single listed object.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Listing is one page of objects in listing order.
type Listing struct {
	Objects   []Object
	Truncated bool
}

// Lister lists the objects stored in a bucket.
type Lister interface {
	ListObjects(ctx context.Context, bucket string) (*Listing, error)
}

// ListObjectsV2API is the subset of the S3 client used by S3Lister.
type ListObjectsV2API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Lister lists bucket contents with a single ListObjectsV2 request.
// Continuation tokens are not followed, so buckets larger than maxKeys
// are truncated.
type S3Lister struct {
	client  ListObjectsV2API
	maxKeys int32
	logger  *zap.Logger
}

// NewS3Lister constructs a lister over an S3 client.
func NewS3Lister(client ListObjectsV2API, maxKeys int32, logger *zap.Logger) *S3Lister {
	if maxKeys <= 0 || maxKeys > DefaultMaxKeys {
		maxKeys = DefaultMaxKeys
	}
	return &S3Lister{client: client, maxKeys: maxKeys, logger: logger.Named("s3_lister")}
}

// ListObjects returns the first page of objects in bucket.
func (l *S3Lister) ListObjects(ctx context.Context, bucket string) (*Listing, error) {
	out, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(l.maxKeys),
	})
	if err != nil {
		wrapped := logging.NewTargetError("storage.list_objects", "", bucket, "", classify(err))
		l.logger.Error("list objects failed", zap.Error(wrapped), zap.String("bucket", bucket))
		return nil, wrapped
	}

	listing := &Listing{
		Objects:   make([]Object, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		listing.Objects = append(listing.Objects, Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         aws.ToString(obj.ETag),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return listing, nil
}

// classify maps AWS error codes onto the storage sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	case "AccessDenied", "AllAccessDisabled", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return err
}
