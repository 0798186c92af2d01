package pipeline

import (
	"context"
	"errors"
	"testing"

	"mandi/internal/gateway/datagov"
	"mandi/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchAll(ctx context.Context) ([]datagov.RawRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datagov.RawRecord), args.Error(1)
}

type fakeStore struct {
	existing *types.Dataset
	readErr  error
	written  *types.Dataset
	writes   int
}

func (s *fakeStore) Read() (*types.Dataset, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.existing == nil {
		return &types.Dataset{}, nil
	}
	return s.existing, nil
}

func (s *fakeStore) Write(ds *types.Dataset) error {
	s.writes++
	s.written = ds
	return nil
}

type fakeRecorder struct {
	reports []Report
}

func (r *fakeRecorder) Record(_ context.Context, rep Report) error {
	r.reports = append(r.reports, rep)
	return nil
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendText(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

func TestRunHappyPath(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchAll", mock.Anything).Return([]datagov.RawRecord{rawRecord()}, nil)
	store := &fakeStore{}
	recorder := &fakeRecorder{}

	runner, err := NewRunner(fetcher, store, recorder, nil)
	require.NoError(t, err)

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, rep.Status)
	assert.Equal(t, 1, rep.Fetched)
	assert.Zero(t, rep.Rejected)
	assert.Equal(t, 1, rep.Merged)
	assert.Equal(t, 1, store.writes)
	require.NotNil(t, store.written)
	assert.Equal(t, 1, store.written.Len())

	require.Len(t, recorder.reports, 1)
	assert.Equal(t, StatusOK, recorder.reports[0].Status)
	assert.NotEmpty(t, recorder.reports[0].RunID)
}

func TestRunFetchFailureWritesNothing(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchAll", mock.Anything).Return(nil, errors.New("batch failed after 3 attempts"))
	store := &fakeStore{}
	recorder := &fakeRecorder{}
	notify := new(MockNotifier)
	notify.On("SendText", mock.AnythingOfType("string")).Return(nil)

	runner, err := NewRunner(fetcher, store, recorder, notify)
	require.NoError(t, err)

	rep, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, rep.Status)
	assert.Zero(t, store.writes, "a failed fetch must leave the previous file untouched")

	require.Len(t, recorder.reports, 1)
	assert.Equal(t, StatusFailed, recorder.reports[0].Status)
	notify.AssertCalled(t, "SendText", mock.AnythingOfType("string"))
}

func TestRunFailsWhenEverythingIsRejected(t *testing.T) {
	bad := rawRecord()
	bad.ArrivalDate = "31-13-2024"
	fetcher := new(MockFetcher)
	fetcher.On("FetchAll", mock.Anything).Return([]datagov.RawRecord{bad}, nil)
	store := &fakeStore{}

	runner, err := NewRunner(fetcher, store, nil, nil)
	require.NoError(t, err)

	rep, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, rep.Rejected)
	assert.Zero(t, store.writes)
}

func TestRunFailsWhenAPIReturnsNothing(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchAll", mock.Anything).Return([]datagov.RawRecord{}, nil)
	store := &fakeStore{}

	runner, err := NewRunner(fetcher, store, nil, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, store.writes)
}

func TestRunMergesWithExistingDataset(t *testing.T) {
	fresh := rawRecord()
	fresh.ModalPrice = "2200"
	fetcher := new(MockFetcher)
	fetcher.On("FetchAll", mock.Anything).Return([]datagov.RawRecord{fresh}, nil)

	clean, stats := Validate([]datagov.RawRecord{rawRecord()})
	require.Zero(t, stats.Total())
	store := &fakeStore{existing: &types.Dataset{Records: clean}}

	runner, err := NewRunner(fetcher, store, nil, nil)
	require.NoError(t, err)

	rep, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Merged)
	require.Equal(t, 1, store.written.Len())
	assert.Equal(t, "2200", store.written.Records[0].ModalPrice.String())
}

func TestRunReadFailureWritesNothing(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("FetchAll", mock.Anything).Return([]datagov.RawRecord{rawRecord()}, nil)
	store := &fakeStore{readErr: errors.New("disk gone")}

	runner, err := NewRunner(fetcher, store, nil, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, store.writes)
}
