package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/veronikad26/chemical-equip-analyser/pkg/apperrors"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
	"github.com/veronikad26/chemical-equip-analyser/pkg/repositories"
)

// mockDatasetRepo is an in-memory DatasetRepository for service tests.
type mockDatasetRepo struct {
	mu        sync.Mutex
	datasets  []*models.Dataset
	insertErr error
	evictErr  error
}

func newMockDatasetRepo() *mockDatasetRepo {
	return &mockDatasetRepo{}
}

var _ repositories.DatasetRepository = (*mockDatasetRepo)(nil)

func (m *mockDatasetRepo) Insert(ctx context.Context, ds *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *ds
	m.datasets = append(m.datasets, &cp)
	return nil
}

func (m *mockDatasetRepo) GetByID(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ds := range m.datasets {
		if ds.ID == id && ds.OwnerID == owner {
			cp := *ds
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockDatasetRepo) ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := m.ownedNewestFirst(owner)
	if len(owned) > limit {
		owned = owned[:limit]
	}
	out := make([]*models.Dataset, 0, len(owned))
	for _, ds := range owned {
		cp := *ds
		cp.Rows = nil
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockDatasetRepo) CountByOwner(ctx context.Context, owner uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ownedNewestFirst(owner)), nil
}

func (m *mockDatasetRepo) Delete(ctx context.Context, id, owner uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ds := range m.datasets {
		if ds.ID == id && ds.OwnerID == owner {
			m.datasets = append(m.datasets[:i], m.datasets[i+1:]...)
			return ds.BlobRef, nil
		}
	}
	return "", apperrors.ErrNotFound
}

func (m *mockDatasetRepo) EvictExcess(ctx context.Context, owner uuid.UUID, keep int, dropBlob repositories.BlobDropper) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.evictErr != nil {
		return 0, m.evictErr
	}
	owned := m.ownedNewestFirst(owner)
	if len(owned) <= keep {
		return 0, nil
	}
	evicted := 0
	for _, victim := range owned[keep:] {
		if err := dropBlob(ctx, victim.ID, victim.BlobRef); err != nil {
			return evicted, err
		}
		for i, ds := range m.datasets {
			if ds.ID == victim.ID {
				m.datasets = append(m.datasets[:i], m.datasets[i+1:]...)
				break
			}
		}
		evicted++
	}
	return evicted, nil
}

func (m *mockDatasetRepo) ownedNewestFirst(owner uuid.UUID) []*models.Dataset {
	var owned []*models.Dataset
	for _, ds := range m.datasets {
		if ds.OwnerID == owner {
			owned = append(owned, ds)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].UploadedAt.After(owned[j].UploadedAt)
	})
	return owned
}

// mockBlobStore is an in-memory blob.Store for service tests.
type mockBlobStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.blobs[key] = data
	return nil
}

func (m *mockBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return data, nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.blobs, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
