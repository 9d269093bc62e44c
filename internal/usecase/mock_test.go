package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/vidlib/internal/domain/model"
	"github.com/hszk-dev/vidlib/internal/domain/repository"
)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createFn        func(ctx context.Context, video *model.Video) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*model.Video, error)
	getByFilenameFn func(ctx context.Context, filename string) (*model.Video, error)
	listFn          func(ctx context.Context) ([]*model.Video, error)
	searchFn        func(ctx context.Context, query string) ([]*model.Video, error)
	updateFn        func(ctx context.Context, video *model.Video) error
	deleteFn        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockVideoRepository) Create(ctx context.Context, video *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) GetByFilename(ctx context.Context, filename string) (*model.Video, error) {
	if m.getByFilenameFn != nil {
		return m.getByFilenameFn(ctx, filename)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) Search(ctx context.Context, query string) ([]*model.Video, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, video *model.Video) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// memoryVideoRepository is a map-backed VideoRepository with filename uniqueness.
type memoryVideoRepository struct {
	mu      sync.Mutex
	videos  map[uuid.UUID]*model.Video
	creates int
}

func newMemoryVideoRepository() *memoryVideoRepository {
	return &memoryVideoRepository{videos: make(map[uuid.UUID]*model.Video)}
}

func (m *memoryVideoRepository) Create(ctx context.Context, video *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.videos {
		if v.Filename == video.Filename {
			return repository.ErrDuplicateVideo
		}
	}
	stored := *video
	m.videos[video.ID] = &stored
	m.creates++
	return nil
}

func (m *memoryVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, repository.ErrVideoNotFound
	}
	out := *v
	return &out, nil
}

func (m *memoryVideoRepository) GetByFilename(ctx context.Context, filename string) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.videos {
		if v.Filename == filename {
			out := *v
			return &out, nil
		}
	}
	return nil, repository.ErrVideoNotFound
}

func (m *memoryVideoRepository) List(ctx context.Context) ([]*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Video{}
	for _, v := range m.videos {
		c := *v
		out = append(out, &c)
	}
	return out, nil
}

func (m *memoryVideoRepository) Search(ctx context.Context, query string) ([]*model.Video, error) {
	return m.List(ctx)
}

func (m *memoryVideoRepository) Update(ctx context.Context, video *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[video.ID]; !ok {
		return repository.ErrVideoNotFound
	}
	stored := *video
	m.videos[video.ID] = &stored
	return nil
}

func (m *memoryVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[id]; !ok {
		return repository.ErrVideoNotFound
	}
	delete(m.videos, id)
	return nil
}

func (m *memoryVideoRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.videos)
}

// memoryBlobStore is a map-backed BlobStore that records every call.
type memoryBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	calls   []string
	saveErr error
	delErr  error
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{blobs: make(map[string][]byte)}
}

func (m *memoryBlobStore) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *memoryBlobStore) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("save " + name)
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	if _, ok := m.blobs[name]; ok {
		return 0, repository.ErrBlobExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.blobs[name] = data
	return int64(len(data)), nil
}

func (m *memoryBlobStore) Open(ctx context.Context, name string) (repository.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("open " + name)
	data, ok := m.blobs[name]
	if !ok {
		return nil, repository.ErrBlobNotFound
	}
	return &memoryBlob{Reader: bytes.NewReader(data), name: name}, nil
}

func (m *memoryBlobStore) Stat(ctx context.Context, name string) (repository.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return repository.BlobInfo{}, repository.ErrBlobNotFound
	}
	return repository.BlobInfo{Name: name, Size: int64(len(data))}, nil
}

func (m *memoryBlobStore) Exists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[name]
	return ok, nil
}

func (m *memoryBlobStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete " + name)
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.blobs[name]; !ok {
		return repository.ErrBlobNotFound
	}
	delete(m.blobs, name)
	return nil
}

func (m *memoryBlobStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *memoryBlobStore) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[name]
	return ok
}

type memoryBlob struct {
	*bytes.Reader
	name   string
	closed bool
}

func (b *memoryBlob) Close() error {
	b.closed = true
	return nil
}

func (b *memoryBlob) Info() repository.BlobInfo {
	return repository.BlobInfo{Name: b.name, Size: b.Reader.Size(), ModTime: time.Time{}}
}

// mockEventPublisher records published events.
type mockEventPublisher struct {
	mu        sync.Mutex
	events    []repository.VideoEvent
	publishFn func(ctx context.Context, event repository.VideoEvent) error
}

func (m *mockEventPublisher) PublishVideoEvent(ctx context.Context, event repository.VideoEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

func (m *mockEventPublisher) Close() error {
	return nil
}

func (m *mockEventPublisher) published() []repository.VideoEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.VideoEvent(nil), m.events...)
}
