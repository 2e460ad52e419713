package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutObject struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.inputs = append(f.inputs, in)
	if in.Body != nil {
		b, _ := io.ReadAll(in.Body)
		f.bodies = append(f.bodies, b)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestStorageIDHelpers(t *testing.T) {
	assert.Equal(t, "avatars/abc", StorageID("avatars", "abc"))
	assert.Equal(t, "abc", StorageID("", "abc"))
	assert.Equal(t, "abc", SlotFromStorageID("avatars/abc", "avatars"))
	assert.Equal(t, "abc", SlotFromStorageID("avatars/abc", "avatars/"))
	assert.Equal(t, "other/abc", SlotFromStorageID("other/abc", "avatars"))
	assert.Equal(t, "abc", SlotFromStorageID("abc", ""))
}

func TestS3Store_UploadPutsUnderSlot(t *testing.T) {
	fake := &fakePutObject{}
	s := newS3Store(fake, S3Options{Bucket: "media", Endpoint: "http://minio:9000/"})
	s.now = func() time.Time { return time.Unix(0, 42) }

	res, err := s.Upload(context.Background(), bytes.NewReader([]byte("png-bytes")), UploadOptions{
		SlotID: "slot-1", Folder: "avatars", ContentType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "avatars/slot-1", res.StorageID)
	assert.Equal(t, "http://minio:9000/media/avatars/slot-1.png?v=42", res.URL)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "media", aws.ToString(in.Bucket))
	assert.Equal(t, "avatars/slot-1.png", aws.ToString(in.Key))
	assert.Equal(t, "image/png", aws.ToString(in.ContentType))
	assert.Equal(t, []byte("png-bytes"), fake.bodies[0])
}

func TestS3Store_ReuploadSameKeyNewURL(t *testing.T) {
	fake := &fakePutObject{}
	s := newS3Store(fake, S3Options{Bucket: "media", PublicBaseURL: "https://cdn.example/"})
	tick := int64(0)
	s.now = func() time.Time { tick++; return time.Unix(0, tick) }

	opts := UploadOptions{SlotID: "s", Folder: "avatars", ContentType: "image/png"}
	first, err := s.Upload(context.Background(), strings.NewReader("a"), opts)
	require.NoError(t, err)
	second, err := s.Upload(context.Background(), strings.NewReader("b"), opts)
	require.NoError(t, err)

	assert.Equal(t, first.StorageID, second.StorageID)
	assert.NotEqual(t, first.URL, second.URL)
	assert.True(t, strings.HasPrefix(second.URL, "https://cdn.example/avatars/s.png?v="))
	assert.Equal(t, aws.ToString(fake.inputs[0].Key), aws.ToString(fake.inputs[1].Key))
}

func TestS3Store_UploadError(t *testing.T) {
	s := newS3Store(&fakePutObject{err: errors.New("access denied")}, S3Options{Bucket: "b"})

	_, err := s.Upload(context.Background(), strings.NewReader("x"), UploadOptions{SlotID: "s"})
	require.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Store_EmptySlot(t *testing.T) {
	fake := &fakePutObject{}
	s := newS3Store(fake, S3Options{Bucket: "b"})

	_, err := s.Upload(context.Background(), strings.NewReader("x"), UploadOptions{})
	require.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Empty(t, fake.inputs)
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	defer func() { loadDefaultAWSConfig = orig }()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Store(context.Background(), S3Options{Bucket: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load aws config")
}

func TestNewS3Store_UsesPathStyleAndEndpoint(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	defer func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew }()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	var got s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&got)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	s, err := NewS3Store(context.Background(), S3Options{Bucket: "b", Endpoint: "http://minio:9000"})
	require.NoError(t, err)
	assert.True(t, got.UsePathStyle)
	assert.Equal(t, "http://minio:9000", aws.ToString(got.BaseEndpoint))
	assert.Equal(t, "http://minio:9000/b", s.baseURL)
}

func TestMemoryStore_Upsert(t *testing.T) {
	m := NewMemoryStore("memory://objects")
	opts := UploadOptions{SlotID: "s", Folder: "avatars", ContentType: "image/png"}

	first, err := m.Upload(context.Background(), strings.NewReader("one"), opts)
	require.NoError(t, err)
	second, err := m.Upload(context.Background(), strings.NewReader("two"), opts)
	require.NoError(t, err)

	assert.Equal(t, "avatars/s", first.StorageID)
	assert.Equal(t, first.StorageID, second.StorageID)
	assert.NotEqual(t, first.URL, second.URL)
	assert.Equal(t, 1, m.Len())

	b, ok := m.Object("avatars/s")
	require.True(t, ok)
	assert.Equal(t, "two", string(b))

	_, err = m.Upload(context.Background(), strings.NewReader("x"), UploadOptions{})
	assert.ErrorIs(t, err, common.ErrUploadFailed)
}

var (
	_ Store = (*S3Store)(nil)
	_ Store = (*MemoryStore)(nil)
)
