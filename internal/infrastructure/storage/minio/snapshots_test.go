package minio

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privlens/privlens/internal/domain/analysis"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/pkg/errors"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: map[string][]byte{}}
}

func (f *fakeObjectAPI) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+key] = data
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeObjectAPI) GetObject(context.Context, string, string, minio.GetObjectOptions) (*minio.Object, error) {
	return nil, minio.ErrorResponse{Code: "NotImplemented"}
}

func (f *fakeObjectAPI) StatObject(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if data, ok := f.objects[bucket+"/"+key]; ok {
		return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
	}
	return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
}

func (f *fakeObjectAPI) BucketExists(context.Context, string) (bool, error) { return true, nil }

func (f *fakeObjectAPI) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	return nil
}

func TestArchiveStoresContentAddressedKey(t *testing.T) {
	api := newFakeObjectAPI()
	store := newSnapshotStoreWithAPI(api, "privlens-snapshots", logging.NewNopLogger())

	content := "These are the terms."
	hash := analysis.HashContent(content)

	err := store.Archive(context.Background(), hash, analysis.ContentTermsOfService, content)
	require.NoError(t, err)

	key := "privlens-snapshots/snapshots/terms_of_service/" + string(hash) + ".txt"
	assert.Equal(t, []byte(content), api.objects[key])
}

func TestArchiveFailure(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErr = minio.ErrorResponse{Code: "AccessDenied"}
	store := newSnapshotStoreWithAPI(api, "privlens-snapshots", logging.NewNopLogger())

	err := store.Archive(context.Background(), "hash", analysis.ContentPrivacyPolicy, "text")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSnapshotArchiveFailed))
}

func TestExists(t *testing.T) {
	api := newFakeObjectAPI()
	store := newSnapshotStoreWithAPI(api, "privlens-snapshots", logging.NewNopLogger())

	content := "Privacy policy text."
	hash := analysis.HashContent(content)
	require.NoError(t, store.Archive(context.Background(), hash, analysis.ContentPrivacyPolicy, content))

	ok, err := store.Exists(context.Background(), hash, analysis.ContentPrivacyPolicy)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(context.Background(), "missing", analysis.ContentPrivacyPolicy)
	require.NoError(t, err)
	assert.False(t, ok)
}
