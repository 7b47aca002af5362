package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jewan100/message-queue-study/internal/api/domain"
	"github.com/jewan100/message-queue-study/internal/api/dto"
	"github.com/jewan100/message-queue-study/internal/api/model"
	"github.com/jewan100/message-queue-study/internal/api/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore keeps jobs in memory and mirrors the transactional
// commit-hook contract: hooks run only after a successful commit
type fakeStore struct {
	jobs      map[int64]*model.OcrJob
	nextID    int64
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[int64]*model.OcrJob), nextID: 1}
}

type fakeTx struct {
	store    *fakeStore
	inserted []*model.OcrJob
	hooks    []func()
}

func (t *fakeTx) InsertJob(_ context.Context, job *model.OcrJob) (int64, error) {
	if t.store.insertErr != nil {
		return 0, t.store.insertErr
	}
	id := t.store.nextID
	t.store.nextID++

	copied := *job
	copied.ID = id
	t.inserted = append(t.inserted, &copied)
	return id, nil
}

func (t *fakeTx) OnCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

func (s *fakeStore) RunInTx(_ context.Context, fn func(tx storage.JobTx) error) error {
	tx := &fakeTx{store: s}

	if err := fn(tx); err != nil {
		// Rollback: nothing becomes visible, hooks are discarded
		return err
	}

	// Commit: rows become visible to readers before any hook fires
	for _, job := range tx.inserted {
		s.jobs[job.ID] = job
	}
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

func (s *fakeStore) InsertJob(_ context.Context, job *model.OcrJob) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	id := s.nextID
	s.nextID++

	copied := *job
	copied.ID = id
	s.jobs[id] = &copied
	return id, nil
}

func (s *fakeStore) GetJobByID(_ context.Context, id int64) (*model.OcrJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

type publishCall struct {
	jobID      int64
	pdfName    string
	jobVisible bool
}

// recordingTransport records every publish and whether the job row was
// already visible to readers when the publish happened
type recordingTransport struct {
	store *fakeStore
	calls []publishCall
	err   error
}

func (t *recordingTransport) Publish(_ context.Context, jobID int64, pdfName string) error {
	_, visible := t.store.jobs[jobID]
	t.calls = append(t.calls, publishCall{jobID: jobID, pdfName: pdfName, jobVisible: visible})
	return t.err
}

func (t *recordingTransport) Name() string {
	return "recording"
}

func newService(store *fakeStore, transport *recordingTransport) *OcrService {
	cfg := &Config{
		Logger: testLogger(),
		Store:  store,
	}
	if transport != nil {
		cfg.Transport = transport
	}
	return NewOcrService(cfg)
}

func TestSubmitJob_PublishesExactlyOnceAfterCommit(t *testing.T) {
	store := newFakeStore()
	transport := &recordingTransport{store: store}
	svc := newService(store, transport)

	resp, err := svc.SubmitJob(context.Background(), "invoice.pdf")
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.JobID)
	assert.Equal(t, domain.JobStatusPending, resp.Status)

	require.Len(t, transport.calls, 1)
	call := transport.calls[0]
	assert.Equal(t, int64(1), call.jobID)
	assert.Equal(t, "invoice.pdf", call.pdfName)
	assert.True(t, call.jobVisible, "announcement must not be observable before the job row is")
}

func TestSubmitJob_RollbackNeverPublishes(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("connection reset")
	transport := &recordingTransport{store: store}
	svc := newService(store, transport)

	_, err := svc.SubmitJob(context.Background(), "invoice.pdf")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")

	assert.Empty(t, transport.calls, "a rolled back transaction must never announce")
	assert.Empty(t, store.jobs)
}

func TestSubmitJob_PublishFailureKeepsJobCommitted(t *testing.T) {
	store := newFakeStore()
	transport := &recordingTransport{store: store, err: errors.New("broker down")}
	svc := newService(store, transport)

	resp, err := svc.SubmitJob(context.Background(), "invoice.pdf")
	require.NoError(t, err, "a failed announcement must not fail the submission")

	job, err := store.GetJobByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)

	require.Len(t, transport.calls, 1)
}

func TestSubmitJob_WithoutTransportFallsBackToCreate(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	resp, err := svc.SubmitJob(context.Background(), "scan.pdf")
	require.NoError(t, err)

	job, err := store.GetJobByID(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, "scan.pdf", job.PdfName)
}

func TestSubmitJob_ThenGetStatus(t *testing.T) {
	store := newFakeStore()
	transport := &recordingTransport{store: store}
	svc := newService(store, transport)

	for _, pdfName := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		resp, err := svc.SubmitJob(context.Background(), pdfName)
		require.NoError(t, err)

		status, err := svc.GetJobStatus(context.Background(), resp.JobID)
		require.NoError(t, err)
		assert.Equal(t, resp.JobID, status.JobID)
		assert.Equal(t, domain.JobStatusPending, status.Status)
	}

	assert.Len(t, transport.calls, 3)
}

func TestCreateJob_NoAnnouncement(t *testing.T) {
	store := newFakeStore()
	transport := &recordingTransport{store: store}
	svc := newService(store, transport)

	resp, err := svc.CreateJob(context.Background(), "plain.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, resp.Status)

	assert.Empty(t, transport.calls)
}

func TestGetJobStatus_NotFound(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, nil)

	_, err := svc.GetJobStatus(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.Empty(t, store.jobs, "status lookup must not mutate anything")
}

type fakePredictor struct {
	resp *dto.PredictResponse
	err  error
}

func (p *fakePredictor) Predict(_ context.Context, _ string) (*dto.PredictResponse, error) {
	return p.resp, p.err
}

func TestPredict_DelegatesToDispatcher(t *testing.T) {
	dispatcher := &fakePredictor{resp: &dto.PredictResponse{Message: "ok", LatencyMs: 3.5}}
	svc := NewOcrService(&Config{
		Logger:     testLogger(),
		Store:      newFakeStore(),
		Dispatcher: dispatcher,
	})

	resp, err := svc.Predict(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message)
	assert.Equal(t, 3.5, resp.LatencyMs)
}

func TestPredict_SurfacesRpcErrorUnmodified(t *testing.T) {
	rpcErr := errors.New("dial tcp: connection refused")
	svc := NewOcrService(&Config{
		Logger:     testLogger(),
		Store:      newFakeStore(),
		Dispatcher: &fakePredictor{err: rpcErr},
	})

	_, err := svc.Predict(context.Background(), "x.pdf")
	assert.ErrorIs(t, err, rpcErr)
}

func TestPredictSingle_DelegatesToSingleClient(t *testing.T) {
	single := &fakePredictor{resp: &dto.PredictResponse{Message: "single"}}
	svc := NewOcrService(&Config{
		Logger:       testLogger(),
		Store:        newFakeStore(),
		SingleClient: single,
	})

	resp, err := svc.PredictSingle(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "single", resp.Message)
}
