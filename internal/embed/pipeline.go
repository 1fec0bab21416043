package embed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/go-ports/querysense/internal/qerrors"
	"github.com/go-ports/querysense/internal/store"
)

const (
	// DefaultChunkSize matches the original sync_vec_tnea partitioning.
	DefaultChunkSize = 2048
	// DefaultConcurrency matches the original's for_each_concurrent(Some(5)).
	DefaultConcurrency = 5
)

// Pipeline partitions a Store's projected records into fixed-size chunks
// and embeds them with bounded parallelism, persisting each chunk's
// vectors atomically. It is stateless across runs: re-running against a
// freshly (re)created vec_record needs no special handling.
type Pipeline struct {
	Provider    Provider
	Store       *store.Store
	ChunkSize   int
	Concurrency int64
}

// NewPipeline returns a Pipeline with the default chunk size and
// concurrency, matching the original sync_vec_tnea tuning.
func NewPipeline(p Provider, s *store.Store) *Pipeline {
	return &Pipeline{
		Provider:    p,
		Store:       s,
		ChunkSize:   DefaultChunkSize,
		Concurrency: DefaultConcurrency,
	}
}

// Report summarizes a completed (or partially completed) Run.
type Report struct {
	ChunksTotal    int
	ChunksOK       int
	ChunksFailed   int
	RowsEmbedded   int
	ChunkErrors    []error
}

// Run embeds every (id, template_text) row currently in `record`, first
// discovering the vector dimension from a single probe embed and calling
// Store.EnsureVecTable(dim) before any chunk is persisted — a dimension
// mismatch against a previously-synced store aborts the whole run rather
// than silently truncating or padding vectors.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rows, err := p.Store.IDTemplatePairs()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Report{}, nil
	}

	probe, err := p.Provider.Embed(ctx, rows[0].Template)
	if err != nil {
		return nil, fmt.Errorf("embedding pipeline: probe embed: %w", err)
	}
	if err := p.Store.EnsureVecTable(len(probe)); err != nil {
		return nil, err
	}

	chunks := chunkRows(rows, p.ChunkSize)
	report := &Report{ChunksTotal: len(chunks)}

	sem := semaphore.NewWeighted(p.Concurrency)
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		okN  int64
		rows2 int64
	)

	for _, chunk := range chunks {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			report.ChunkErrors = append(report.ChunkErrors, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(chunk []store.IDTemplate) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := p.runChunk(ctx, chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.ChunksFailed++
				report.ChunkErrors = append(report.ChunkErrors, err)
				return
			}
			atomic.AddInt64(&okN, 1)
			atomic.AddInt64(&rows2, int64(n))
		}(chunk)
	}
	wg.Wait()

	report.ChunksOK = int(okN)
	report.RowsEmbedded = int(rows2)
	return report, nil
}

// runChunk embeds one chunk and persists it inside a single transaction.
// A failure anywhere in the chunk drops the whole chunk: prior chunks
// remain committed (at-least-persisted, not atomic-across-chunks).
func (p *Pipeline) runChunk(ctx context.Context, chunk []store.IDTemplate) (int, error) {
	texts := make([]string, len(chunk))
	for i, r := range chunk {
		texts[i] = r.Template
	}

	vectors, err := p.Provider.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunk) {
		return 0, fmt.Errorf("%w: embedding pipeline: provider returned %d vectors for %d inputs",
			qerrors.ErrTransport, len(vectors), len(chunk))
	}

	pairs := make([]store.IDVector, len(chunk))
	for i, r := range chunk {
		pairs[i] = store.IDVector{ID: r.ID, Vector: vectors[i]}
	}

	return p.Store.InsertEmbeddings(pairs)
}

func chunkRows(rows []store.IDTemplate, size int) [][]store.IDTemplate {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]store.IDTemplate
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
