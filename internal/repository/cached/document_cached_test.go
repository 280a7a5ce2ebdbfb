package cached

import (
	"context"
	"errors"
	"testing"

	cacheMocks "doclib/internal/cache/mocks"
	"doclib/internal/model"
	repoMocks "doclib/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDocumentCached_LoadAll(t *testing.T) {
	ctx := context.Background()
	docs := []model.Document{{ID: "a"}, {ID: "b"}}

	tests := []struct {
		name       string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository, mCache *cacheMocks.MockListCache)
		want       []model.Document
		wantErr    bool
	}{
		{
			name: "cache hit skips store",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mCache *cacheMocks.MockListCache) {
				mCache.On("GetList", ctx).Return(docs, true, nil)
			},
			want: docs,
		},
		{
			name: "cache miss fills cache",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mCache *cacheMocks.MockListCache) {
				mCache.On("GetList", ctx).Return(nil, false, nil)
				mRepo.On("LoadAll", ctx).Return(docs, nil)
				mCache.On("SetList", ctx, docs).Return(nil)
			},
			want: docs,
		},
		{
			name: "cache errors fall through",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mCache *cacheMocks.MockListCache) {
				mCache.On("GetList", ctx).Return(nil, false, errors.New("redis down"))
				mRepo.On("LoadAll", ctx).Return(docs, nil)
				mCache.On("SetList", ctx, docs).Return(errors.New("redis down"))
			},
			want: docs,
		},
		{
			name: "store error is returned and not cached",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mCache *cacheMocks.MockListCache) {
				mCache.On("GetList", ctx).Return(nil, false, nil)
				mRepo.On("LoadAll", ctx).Return(nil, errors.New("io"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			mCache := new(cacheMocks.MockListCache)
			tt.setupMocks(mRepo, mCache)

			got, err := NewDocumentCached(mRepo, mCache).LoadAll(ctx)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			mRepo.AssertExpectations(t)
			mCache.AssertExpectations(t)
		})
	}
}

func TestDocumentCached_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mCache := new(cacheMocks.MockListCache)
	r := NewDocumentCached(mRepo, mCache)

	mRepo.On("Append", ctx, model.Document{ID: "a"}).Return(nil).Once()
	mRepo.On("SaveAll", ctx, mock.Anything).Return(errors.New("disk full")).Once()
	mRepo.On("Remove", ctx, "a").Return(true, nil).Once()
	mCache.On("Invalidate", ctx).Return(nil).Times(3)

	assert.NoError(t, r.Append(ctx, model.Document{ID: "a"}))
	assert.Error(t, r.SaveAll(ctx, nil))
	found, err := r.Remove(ctx, "a")
	assert.NoError(t, err)
	assert.True(t, found)

	mRepo.AssertExpectations(t)
	mCache.AssertExpectations(t)
}

func TestDocumentCached_RemoveMissDoesNotInvalidate(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mCache := new(cacheMocks.MockListCache)

	mRepo.On("Remove", ctx, "x").Return(false, nil).Once()

	found, err := NewDocumentCached(mRepo, mCache).Remove(ctx, "x")

	assert.NoError(t, err)
	assert.False(t, found)
	mCache.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestDocumentCached_AppendDuringLoadSkipsStaleSet(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mCache := new(cacheMocks.MockListCache)
	r := NewDocumentCached(mRepo, mCache)

	entered := make(chan struct{})
	release := make(chan struct{})
	added := model.Document{ID: "new"}

	mCache.On("GetList", ctx).Return(nil, false, nil).Once()
	mRepo.On("LoadAll", ctx).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return([]model.Document{}, nil).Once()
	mRepo.On("Append", ctx, added).Return(nil).Once()
	mCache.On("Invalidate", ctx).Return(nil).Once()

	done := make(chan []model.Document)
	go func() {
		docs, err := r.LoadAll(ctx)
		assert.NoError(t, err)
		done <- docs
	}()

	<-entered
	assert.NoError(t, r.Append(ctx, added))
	close(release)

	assert.Empty(t, <-done)
	mCache.AssertNotCalled(t, "SetList", mock.Anything, mock.Anything)
	mRepo.AssertExpectations(t)
	mCache.AssertExpectations(t)
}

func TestDocumentCached_AppendDuringSetInvalidatesAgain(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mCache := new(cacheMocks.MockListCache)
	r := NewDocumentCached(mRepo, mCache)

	stale := []model.Document{{ID: "a"}}
	added := model.Document{ID: "new"}

	mCache.On("GetList", ctx).Return(nil, false, nil).Once()
	mRepo.On("LoadAll", ctx).Return(stale, nil).Once()
	mRepo.On("Append", ctx, added).Return(nil).Once()
	mCache.On("SetList", ctx, stale).Run(func(mock.Arguments) {
		assert.NoError(t, r.Append(ctx, added))
	}).Return(nil).Once()
	mCache.On("Invalidate", ctx).Return(nil).Twice()

	docs, err := r.LoadAll(ctx)

	assert.NoError(t, err)
	assert.Equal(t, stale, docs)
	mRepo.AssertExpectations(t)
	mCache.AssertExpectations(t)
}
