package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edustream-api/pkg/config"
)

type fakeObjectAPI struct {
	headErr     error
	createErr   error
	putErr      error
	deleteErr   error
	headCalls   int
	createCalls int
	putKeys     []string
	deleted     []string
}

func (f *fakeObjectAPI) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.headCalls++
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeObjectAPI) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.createCalls++
	return &s3.CreateBucketOutput{}, f.createErr
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKeys = append(f.putKeys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{Endpoint: "http://minio:9000", Bucket: "edustream", PublicBase: "https://cdn.example.com/storage"}
}

func TestS3StoreUploadCreatesBucketOnce(t *testing.T) {
	api := &fakeObjectAPI{headErr: &types.NotFound{}}
	store := newS3Store(api, testStorageConfig(), nil)

	key, err := store.Upload(context.Background(), Object{Folder: "course-thumbnails", Filename: "my cover.png", Body: strings.NewReader("img"), Size: 3})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "course-thumbnails/"))
	assert.True(t, strings.HasSuffix(key, "-my_cover.png"))

	api.headErr = nil
	_, err = store.Upload(context.Background(), Object{Folder: "course-thumbnails", Filename: "b.png", Body: strings.NewReader("b")})
	require.NoError(t, err)

	assert.Equal(t, 1, api.headCalls)
	assert.Equal(t, 1, api.createCalls)
	assert.Len(t, api.putKeys, 2)
}

func TestS3StoreUploadHeadFailure(t *testing.T) {
	api := &fakeObjectAPI{headErr: errors.New("access denied")}
	store := newS3Store(api, testStorageConfig(), nil)

	_, err := store.Upload(context.Background(), Object{Folder: "f", Filename: "a", Body: strings.NewReader("a")})
	require.Error(t, err)
	assert.Equal(t, 0, api.createCalls)
}

func TestS3StoreDeleteSwallowsErrors(t *testing.T) {
	api := &fakeObjectAPI{deleteErr: errors.New("boom")}
	store := newS3Store(api, testStorageConfig(), nil)

	assert.NotPanics(t, func() { store.Delete(context.Background(), "course-thumbnails/a.png") })
}

func TestS3StoreURLUsesPublicBase(t *testing.T) {
	store := newS3Store(&fakeObjectAPI{}, testStorageConfig(), nil)
	assert.Equal(t, "https://cdn.example.com/storage/edustream/course-thumbnails/a.png", store.URL("course-thumbnails/a.png"))
	assert.Equal(t, "", store.URL(""))

	cfg := testStorageConfig()
	cfg.PublicBase = ""
	store = newS3Store(&fakeObjectAPI{}, cfg, nil)
	assert.Equal(t, "http://minio:9000/edustream/course-thumbnails/a.png", store.URL("course-thumbnails/a.png"))
}

func TestS3StoreKeyFromURLShapes(t *testing.T) {
	store := newS3Store(&fakeObjectAPI{}, testStorageConfig(), nil)

	cases := map[string]string{
		"http://minio:9000/edustream/course-thumbnails/a.png":           "course-thumbnails/a.png",
		"https://cdn.example.com/storage/edustream/course-videos/v.mp4": "course-videos/v.mp4",
		"https://proxy.example.com/files/course-thumbnails/legacy.png":  "course-thumbnails/legacy.png",
		"https://youtube.com/watch":                                     "",
		"":                                                              "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, store.KeyFromURL(raw), raw)
	}
}
