package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"conversionloader/internal/tags"
)

// S3 implements Store on the AWS SDK. One configured client is constructed
// per process and reused across calls.
type S3 struct {
	client s3API
}

// s3API is the subset of the S3 client the store uses; a fake satisfies it
// in unit tests.
type s3API interface {
	GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	CopyObjectWithContext(ctx aws.Context, in *s3.CopyObjectInput, opts ...request.Option) (*s3.CopyObjectOutput, error)
	DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error)
	HeadObjectWithContext(ctx aws.Context, in *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error)
	GetObjectTaggingWithContext(ctx aws.Context, in *s3.GetObjectTaggingInput, opts ...request.Option) (*s3.GetObjectTaggingOutput, error)
	PutObjectTaggingWithContext(ctx aws.Context, in *s3.PutObjectTaggingInput, opts ...request.Option) (*s3.PutObjectTaggingOutput, error)
	ListObjectsV2WithContext(ctx aws.Context, in *s3.ListObjectsV2Input, opts ...request.Option) (*s3.ListObjectsV2Output, error)
	GetObjectRequest(in *s3.GetObjectInput) (req presignable, out *s3.GetObjectOutput)
}

// presignable matches the Presign method on *request.Request.
type presignable interface {
	Presign(expire time.Duration) (string, error)
}

// NewS3 builds an S3 store from an AWS session.
func NewS3(sess *session.Session) *S3 {
	return &S3{client: sdkClient{s3.New(sess)}}
}

// sdkClient adapts *s3.S3 to s3API (GetObjectRequest needs a return-type
// shim for the presignable seam).
type sdkClient struct{ *s3.S3 }

func (c sdkClient) GetObjectRequest(in *s3.GetObjectInput) (presignable, *s3.GetObjectOutput) {
	req, out := c.S3.GetObjectRequest(in)
	return req, out
}

func (s *S3) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3) Put(ctx context.Context, bucket, key string, body []byte, tagSet tags.Set) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if len(tagSet) > 0 {
		in.Tagging = aws.String(encodeTagging(tagSet))
	}
	_, err := s.client.PutObjectWithContext(ctx, in)
	return err
}

func (s *S3) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	_, err := s.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(url.PathEscape(bucket + "/" + srcKey)),
	})
	return mapNotFound(err)
}

func (s *S3) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *S3) LastModified(ctx context.Context, bucket, key string) (time.Time, error) {
	out, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return time.Time{}, mapNotFound(err)
	}
	if out.LastModified == nil {
		return time.Time{}, nil
	}
	return *out.LastModified, nil
}

func (s *S3) GetTags(ctx context.Context, bucket, key string) (tags.Set, error) {
	out, err := s.client.GetObjectTaggingWithContext(ctx, &s3.GetObjectTaggingInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	set := make(tags.Set, len(out.TagSet))
	for _, t := range out.TagSet {
		set[aws.StringValue(t.Key)] = aws.StringValue(t.Value)
	}
	return set, nil
}

func (s *S3) PutTags(ctx context.Context, bucket, key string, tagSet tags.Set) error {
	clamped := tagSet.Clamped()
	sdkTags := make([]*s3.Tag, 0, len(clamped))
	for _, k := range clamped.SortedKeys() {
		sdkTags = append(sdkTags, &s3.Tag{Key: aws.String(k), Value: aws.String(clamped[k])})
	}
	_, err := s.client.PutObjectTaggingWithContext(ctx, &s3.PutObjectTaggingInput{
		Bucket:  aws.String(bucket),
		Key:     aws.String(key),
		Tagging: &s3.Tagging{TagSet: sdkTags},
	})
	return mapNotFound(err)
}

func (s *S3) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	for {
		out, err := s.client.ListObjectsV2WithContext(ctx, in)
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		if !aws.BoolValue(out.IsTruncated) {
			return keys, nil
		}
		in.ContinuationToken = out.NextContinuationToken
	}
}

func (s *S3) Presign(bucket, key string, expiry time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return req.Presign(expiry)
}

// encodeTagging renders a tag set as the URL-encoded Tagging header value
// PutObject expects.
func encodeTagging(tagSet tags.Set) string {
	clamped := tagSet.Clamped()
	vals := url.Values{}
	for _, k := range clamped.SortedKeys() {
		vals.Set(k, clamped[k])
	}
	return vals.Encode()
}

// mapNotFound normalizes the SDK's missing-object error codes onto
// ErrNotFound so callers can branch without SDK knowledge.
func mapNotFound(err error) error {
	if err == nil {
		return nil
	}
	var ae awserr.Error
	if errors.As(err, &ae) {
		switch ae.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return ErrNotFound
		}
	}
	return err
}
