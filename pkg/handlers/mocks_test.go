package handlers

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/veronikad26/chemical-equip-analyser/pkg/auth"
	"github.com/veronikad26/chemical-equip-analyser/pkg/models"
	"github.com/veronikad26/chemical-equip-analyser/pkg/services"
)

// testToken is the bearer token the mock verifier accepts.
const testToken = "good-token"

// mockAuthService verifies exactly one token and maps it to a fixed owner.
type mockAuthService struct {
	owner      uuid.UUID
	registerFn func(ctx context.Context, username, email, password string) (*models.User, string, error)
	loginFn    func(ctx context.Context, username, password string) (*models.User, string, error)
}

var _ auth.Service = (*mockAuthService)(nil)

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	return m.registerFn(ctx, username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	return m.loginFn(ctx, username, password)
}

func (m *mockAuthService) VerifyToken(tokenString string) (*auth.Claims, error) {
	if tokenString != testToken {
		return nil, errors.New("invalid token")
	}
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: m.owner.String()},
		Username:         "tester",
	}, nil
}

// mockIngestion returns a canned result or error and records the call.
type mockIngestion struct {
	result      *services.UploadResult
	err         error
	gotOwner    uuid.UUID
	gotFilename string
	gotData     []byte
}

var _ services.IngestionService = (*mockIngestion)(nil)

func (m *mockIngestion) Upload(ctx context.Context, owner uuid.UUID, filename string, data []byte) (*services.UploadResult, error) {
	m.gotOwner = owner
	m.gotFilename = filename
	m.gotData = data
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockDatasets serves a fixed set of datasets.
type mockDatasets struct {
	getFn    func(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error)
	listFn   func(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error)
	deleteFn func(ctx context.Context, id, owner uuid.UUID) error
}

var _ services.DatasetService = (*mockDatasets)(nil)

func (m *mockDatasets) Get(ctx context.Context, id, owner uuid.UUID) (*models.Dataset, error) {
	return m.getFn(ctx, id, owner)
}

func (m *mockDatasets) ListRecent(ctx context.Context, owner uuid.UUID, limit int) ([]*models.Dataset, error) {
	return m.listFn(ctx, owner, limit)
}

func (m *mockDatasets) Delete(ctx context.Context, id, owner uuid.UUID) error {
	return m.deleteFn(ctx, id, owner)
}

// mockReports returns canned report bytes.
type mockReports struct {
	data []byte
	name string
	err  error
}

var _ services.ReportService = (*mockReports)(nil)

func (m *mockReports) Render(ctx context.Context, ds *models.Dataset) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.data, m.name, nil
}

func (m *mockReports) Invalidate(ctx context.Context, id uuid.UUID) {}
