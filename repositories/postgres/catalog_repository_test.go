package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/cascade-control-plane/models"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (*CatalogRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := &DB{DB: mockDB, logger: zap.NewNop()}
	repo := NewCatalogRepository(db, zap.NewNop()).(*CatalogRepository)
	return repo, mock
}

func TestListEntries(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"name", "endpoint", "transport", "capability_tags"}).
		AddRow("weather-svc", "http://weather.internal:8080", "http", "{weather,forecast}").
		AddRow("flights-svc", "http://flights.internal:8080", "jsonrpc", "{flights,travel}")

	mock.ExpectQuery("SELECT name, endpoint, transport, capability_tags").WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "weather-svc", entries[0].Name)
	assert.Equal(t, models.TransportHTTP, entries[0].Transport)
	assert.Equal(t, []string{"weather", "forecast"}, []string(entries[0].CapabilityTags))
	assert.Equal(t, models.TransportJSONRPC, entries[1].Transport)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntries_SkipsUnknownTransport(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"name", "endpoint", "transport", "capability_tags"}).
		AddRow("good-svc", "http://good.internal:8080", "http", "{search}").
		AddRow("grpc-svc", "grpc://weird.internal:9090", "grpc", "{search}")

	mock.ExpectQuery("SELECT name, endpoint, transport, capability_tags").WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "good-svc", entries[0].Name)
}

func TestListEntries_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT name, endpoint, transport, capability_tags").
		WillReturnRows(sqlmock.NewRows([]string{"name", "endpoint", "transport", "capability_tags"}))

	entries, err := repo.ListEntries(context.Background())

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListEntries_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT name, endpoint, transport, capability_tags").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListEntries(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list catalog entries")
}
