package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/llm"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	vsmodel "github.com/andreypavlenko/autoapply/modules/vectorstore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockJobStore implements ports.JobStore
type MockJobStore struct {
	mu                  sync.Mutex
	unprocessed         []*jobmodel.Job
	ListUnprocessedFunc func(ctx context.Context, limit int) ([]*jobmodel.Job, error)
	marked              map[string]*jobmodel.StructuredFields
	markErr             error
}

func (m *MockJobStore) ListUnprocessed(ctx context.Context, limit int) ([]*jobmodel.Job, error) {
	if m.ListUnprocessedFunc != nil {
		return m.ListUnprocessedFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.unprocessed
	m.unprocessed = nil // drained after the first batch
	return out, nil
}

func (m *MockJobStore) MarkProcessed(ctx context.Context, jobID string, fields *jobmodel.StructuredFields, docRef string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marked == nil {
		m.marked = make(map[string]*jobmodel.StructuredFields)
	}
	m.marked[jobID] = fields
	return nil
}

// MockDocumentUpserter implements ports.DocumentUpserter
type MockDocumentUpserter struct {
	mu       sync.Mutex
	upserted [][]*vsmodel.JobDocument
	err      error
}

func (m *MockDocumentUpserter) UpsertDocuments(ctx context.Context, docs []*vsmodel.JobDocument) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, docs)
	refs := make([]string, len(docs))
	for i := range docs {
		refs[i] = "ref"
	}
	return refs, nil
}

// MockExtractor implements llm.Extractor
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, rawText string) (*llm.JobStructure, error)
}

func (m *MockExtractor) Extract(ctx context.Context, rawText string) (*llm.JobStructure, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, rawText)
	}
	return &llm.JobStructure{
		Responsibilities: []string{"负责开发"},
		Requirements:     []string{"熟悉Go"},
		Skills:           []string{"Go"},
		Education:        "本科",
		Experience:       "3年",
	}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func testProcessConfig() config.ProcessConfig {
	return config.ProcessConfig{BatchSize: 10, Workers: 2}
}

func testJob(id string) *jobmodel.Job {
	return &jobmodel.Job{
		ID: id, Title: "开发工程师", Company: "公司", Site: "demo",
		Description: "岗位职责\n开发\n任职要求\n熟悉Go",
	}
}

func TestProcessorService_ProcessAll(t *testing.T) {
	t.Run("processes the backlog and marks jobs with documents", func(t *testing.T) {
		store := &MockJobStore{unprocessed: []*jobmodel.Job{testJob("j1"), testJob("j2")}}
		docs := &MockDocumentUpserter{}
		svc := NewProcessorService(store, docs, &MockExtractor{}, testProcessConfig(), 10, testLogger(t))

		stats, err := svc.ProcessAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, stats.Processed)
		assert.Equal(t, 0, stats.Failed)
		assert.Equal(t, 0, stats.FallbackUsed)
		assert.Len(t, store.marked, 2)
		// overview, responsibility, requirement, skills, basic_requirements
		assert.Equal(t, 10, stats.Documents)
	})

	t.Run("extractor failure falls back to heuristic splitting", func(t *testing.T) {
		store := &MockJobStore{unprocessed: []*jobmodel.Job{testJob("j1")}}
		extractor := &MockExtractor{
			ExtractFunc: func(ctx context.Context, rawText string) (*llm.JobStructure, error) {
				return nil, errors.New("model unavailable")
			},
		}
		svc := NewProcessorService(store, &MockDocumentUpserter{}, extractor, testProcessConfig(), 10, testLogger(t))

		stats, err := svc.ProcessAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Processed)
		assert.Equal(t, 1, stats.FallbackUsed)
		require.Contains(t, store.marked, "j1")
		assert.True(t, store.marked["j1"].Fallback)
	})

	t.Run("model failure on one job does not affect the rest of the batch", func(t *testing.T) {
		store := &MockJobStore{unprocessed: []*jobmodel.Job{testJob("j1"), testJob("j2")}}
		failOnce := true
		var mu sync.Mutex
		docs := &MockDocumentUpserter{}
		svc := NewProcessorService(store, docs, &MockExtractor{
			ExtractFunc: func(ctx context.Context, rawText string) (*llm.JobStructure, error) {
				mu.Lock()
				defer mu.Unlock()
				if failOnce {
					failOnce = false
					return nil, errors.New("model unavailable")
				}
				return &llm.JobStructure{Skills: []string{"Go"}}, nil
			},
		}, testProcessConfig(), 10, testLogger(t))

		stats, err := svc.ProcessAll(context.Background())

		require.NoError(t, err)
		// Both still process: one via fallback, one via the model
		assert.Equal(t, 2, stats.Processed)
		assert.Equal(t, 1, stats.FallbackUsed)
	})

	t.Run("mark failure counts the job as failed", func(t *testing.T) {
		store := &MockJobStore{
			unprocessed: []*jobmodel.Job{testJob("j1")},
			markErr:     errors.New("store offline"),
		}
		svc := NewProcessorService(store, &MockDocumentUpserter{}, &MockExtractor{}, testProcessConfig(), 10, testLogger(t))

		stats, err := svc.ProcessAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 0, stats.Processed)
	})

	t.Run("empty backlog is a no-op", func(t *testing.T) {
		svc := NewProcessorService(&MockJobStore{}, &MockDocumentUpserter{}, &MockExtractor{}, testProcessConfig(), 10, testLogger(t))

		stats, err := svc.ProcessAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, stats.Attempted)
	})
}

func TestBuildDocuments(t *testing.T) {
	t.Run("builds between four and six documents", func(t *testing.T) {
		job := testJob("j1")
		structure := &llm.JobStructure{
			Responsibilities: []string{"开发"},
			Requirements:     []string{"熟悉Go"},
			Skills:           []string{"Go"},
			Education:        "本科",
			Experience:       "3年",
		}

		docs := buildDocuments(job, structure)

		require.Len(t, docs, 5)
		types := make(map[vsmodel.DocumentType]bool)
		for _, d := range docs {
			types[d.DocumentType] = true
			assert.Equal(t, "j1", d.JobID)
			assert.Equal(t, "demo", d.Site)
			assert.True(t, d.DocumentType.Valid())
		}
		assert.True(t, types[vsmodel.DocOverview])
		assert.True(t, types[vsmodel.DocBasicRequirements])
	})

	t.Run("empty sections are omitted", func(t *testing.T) {
		docs := buildDocuments(testJob("j1"), &llm.JobStructure{})

		require.Len(t, docs, 1)
		assert.Equal(t, vsmodel.DocOverview, docs[0].DocumentType)
	})
}
