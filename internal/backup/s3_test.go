package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket that pages List results two at a time.
type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	pages   int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.pages++
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	if len(keys) > 2 {
		keys = keys[:2]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Sink_PutGetList(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	sink := &S3Sink{client: fake, bucket: "famlink"}

	for _, name := range []string{"c.json", "a.json", "b.json"} {
		require.NoError(t, sink.Put(ctx, name, []byte(name)))
	}
	fake.objects["other/prefix.json"] = []byte("x")
	fake.objects[S3Prefix+"nested/deep.json"] = []byte("x")

	got, err := sink.Get(ctx, "b.json")
	require.NoError(t, err)
	assert.Equal(t, "b.json", string(got))

	names, err := sink.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "c.json"}, names)
	assert.Equal(t, 2, fake.pages)

	_, err = sink.Get(ctx, "missing.json")
	require.ErrorIs(t, err, common.ErrNotFound)

	fake.putErr = errors.New("access denied")
	require.Error(t, sink.Put(ctx, "d.json", nil))
}

func TestNewS3Sink_ConfiguresClient(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "eu-west-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		if lo.Credentials == nil {
			t.Fatalf("static credentials not applied")
		}
		return aws.Config{Region: lo.Region}, nil
	}

	var opts s3.Options
	fake := newFakeS3()
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fake
	}

	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:       "famlink",
		Region:       "eu-west-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
	})
	require.NoError(t, err)
	assert.Same(t, fake, sink.client)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Sink_Errors(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	require.Error(t, err)

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}
	_, err = NewS3Sink(context.Background(), S3Config{Bucket: "b"})
	require.ErrorContains(t, err, "no profile")
}
