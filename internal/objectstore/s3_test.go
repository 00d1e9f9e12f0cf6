package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"

	"conversionloader/internal/tags"
)

// fakeS3 satisfies s3API and records the inputs it sees.
type fakeS3 struct {
	getOut     *s3.GetObjectOutput
	getErr     error
	putIn      *s3.PutObjectInput
	copyIn     *s3.CopyObjectInput
	tagIn      *s3.PutObjectTaggingInput
	listPages  []*s3.ListObjectsV2Output
	listTokens []*string
	page       int
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, _ *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	return f.getOut, f.getErr
}
func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.putIn = in
	return &s3.PutObjectOutput{}, nil
}
func (f *fakeS3) CopyObjectWithContext(_ aws.Context, in *s3.CopyObjectInput, _ ...request.Option) (*s3.CopyObjectOutput, error) {
	f.copyIn = in
	return &s3.CopyObjectOutput{}, nil
}
func (f *fakeS3) DeleteObjectWithContext(aws.Context, *s3.DeleteObjectInput, ...request.Option) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}
func (f *fakeS3) HeadObjectWithContext(aws.Context, *s3.HeadObjectInput, ...request.Option) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{LastModified: aws.Time(time.Unix(1705329900, 0))}, nil
}
func (f *fakeS3) GetObjectTaggingWithContext(aws.Context, *s3.GetObjectTaggingInput, ...request.Option) (*s3.GetObjectTaggingOutput, error) {
	return &s3.GetObjectTaggingOutput{TagSet: []*s3.Tag{
		{Key: aws.String("Pillar"), Value: aws.String("FIN")},
	}}, nil
}
func (f *fakeS3) PutObjectTaggingWithContext(_ aws.Context, in *s3.PutObjectTaggingInput, _ ...request.Option) (*s3.PutObjectTaggingOutput, error) {
	f.tagIn = in
	return &s3.PutObjectTaggingOutput{}, nil
}
func (f *fakeS3) ListObjectsV2WithContext(_ aws.Context, in *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	f.listTokens = append(f.listTokens, in.ContinuationToken)
	out := f.listPages[f.page]
	f.page++
	return out, nil
}

type fakePresign struct{ expiry time.Duration }

func (p *fakePresign) Presign(expire time.Duration) (string, error) {
	p.expiry = expire
	return "https://signed.example/object", nil
}

func (f *fakeS3) GetObjectRequest(*s3.GetObjectInput) (presignable, *s3.GetObjectOutput) {
	return &fakePresign{}, &s3.GetObjectOutput{}
}

func TestS3Get_NotFoundMapping(t *testing.T) {
	t.Parallel()

	client := &fakeS3{getErr: awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)}
	store := &S3{client: client}

	if _, err := store.Get(context.Background(), "bkt", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	client.getErr = awserr.New("NotFound", "head 404", nil)
	if _, err := store.Get(context.Background(), "bkt", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for head-style code, got %v", err)
	}

	client.getErr = awserr.New("AccessDenied", "denied", nil)
	if _, err := store.Get(context.Background(), "bkt", "k"); errors.Is(err, ErrNotFound) {
		t.Fatal("unrelated codes must not map to ErrNotFound")
	}
}

func TestS3Get_ReadsBody(t *testing.T) {
	t.Parallel()

	client := &fakeS3{getOut: &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("ID,Name\r\n"))}}
	store := &S3{client: client}

	body, err := store.Get(context.Background(), "bkt", "k")
	if err != nil || string(body) != "ID,Name\r\n" {
		t.Fatalf("body = %q, err %v", body, err)
	}
}

// TestS3Put_EncodesTagging checks the URL-encoded Tagging header.
func TestS3Put_EncodesTagging(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	store := &S3{client: client}

	err := store.Put(context.Background(), "bkt", "k", []byte("x"), tags.Set{
		"Data Entity": "AP",
		"Pillar":      "FIN",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := aws.StringValue(client.putIn.Tagging); got != "Data+Entity=AP&Pillar=FIN" {
		t.Fatalf("tagging = %q", got)
	}

	client.putIn = nil
	if err := store.Put(context.Background(), "bkt", "k", []byte("x"), nil); err != nil {
		t.Fatal(err)
	}
	if client.putIn.Tagging != nil {
		t.Fatal("empty tag set must omit the Tagging header")
	}
}

// TestS3Copy_EscapesSource covers spaces in the copy source path.
func TestS3Copy_EscapesSource(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	store := &S3{client: client}

	if err := store.Copy(context.Background(), "bkt", "a folder/file.csv", "dst.csv"); err != nil {
		t.Fatal(err)
	}
	src := aws.StringValue(client.copyIn.CopySource)
	if strings.Contains(src, " ") {
		t.Fatalf("copy source must be escaped: %q", src)
	}
	if aws.StringValue(client.copyIn.Key) != "dst.csv" {
		t.Fatalf("dst = %q", aws.StringValue(client.copyIn.Key))
	}
}

// TestS3PutTags_SortedAndClamped sends tags in lexical key order.
func TestS3PutTags_SortedAndClamped(t *testing.T) {
	t.Parallel()

	client := &fakeS3{}
	store := &S3{client: client}

	long := strings.Repeat("e", 300)
	err := store.PutTags(context.Background(), "bkt", "k", tags.Set{
		"Source":              "SAP",
		"Errors and Warnings": long,
	})
	if err != nil {
		t.Fatal(err)
	}
	sent := client.tagIn.Tagging.TagSet
	if len(sent) != 2 || aws.StringValue(sent[0].Key) != "Errors and Warnings" {
		t.Fatalf("tag order wrong: %v", sent)
	}
	if len(aws.StringValue(sent[0].Value)) != 256 {
		t.Fatalf("value not clamped: %d", len(aws.StringValue(sent[0].Value)))
	}
}

// TestS3List_Paginates follows continuation tokens to the end.
func TestS3List_Paginates(t *testing.T) {
	t.Parallel()

	client := &fakeS3{listPages: []*s3.ListObjectsV2Output{
		{
			Contents:              []*s3.Object{{Key: aws.String("TSQLFiles/a.sql")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("tok1"),
		},
		{
			Contents:    []*s3.Object{{Key: aws.String("TSQLFiles/b.sql")}},
			IsTruncated: aws.Bool(false),
		},
	}}
	store := &S3{client: client}

	keys, err := store.List(context.Background(), "bkt", "TSQLFiles/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[1] != "TSQLFiles/b.sql" {
		t.Fatalf("keys = %v", keys)
	}
	if client.listTokens[0] != nil || aws.StringValue(client.listTokens[1]) != "tok1" {
		t.Fatalf("tokens = %v", client.listTokens)
	}
}

func TestS3Presign(t *testing.T) {
	t.Parallel()

	store := &S3{client: &fakeS3{}}
	link, err := store.Presign("bkt", "k", time.Hour)
	if err != nil || link == "" {
		t.Fatalf("link = %q, err %v", link, err)
	}
}
