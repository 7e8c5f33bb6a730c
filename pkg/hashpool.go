package recursivehasher

import (
	"runtime"
	"sync"
	"time"
)

// hashJob is one path waiting for a worker; index is its slot in the result
type hashJob struct {
	index int
	path  string
}

// HashWorkerPool hashes files with a bounded number of workers. Every input
// path yields exactly one FileRecord; failures become failure digests plus an
// ExceptionRecord tagged "hashing". Nothing is retried.
type HashWorkerPool struct {
	algorithm  *HashAlgorithm
	bufferSize int
	sink       *ExceptionSink
	now        func() time.Time
}

// NewHashWorkerPool creates a pool around an algorithm; bufferSize <= 0 selects the default
func NewHashWorkerPool(algorithm *HashAlgorithm, bufferSize int, sink *ExceptionSink) *HashWorkerPool {
	if bufferSize <= 0 {
		bufferSize = fallbackHashBufferSize
	}
	return &HashWorkerPool{
		algorithm:  algorithm,
		bufferSize: bufferSize,
		sink:       sink,
		now:        time.Now,
	}
}

// HashAll hashes every path with at most concurrency workers (<= 0 means one per CPU).
// progress may be nil; when given it is updated live and closed on return.
func (hp *HashWorkerPool) HashAll(paths []string, concurrency int, progress *Progress) Dataset {
	defer VerboseEnter()()

	if progress == nil {
		progress = NewProgress()
	}
	defer progress.close()
	progress.start(len(paths))

	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if concurrency > len(paths) {
		concurrency = len(paths)
	}

	results := make(Dataset, len(paths))
	if len(paths) == 0 {
		return results
	}

	jobChan := make(chan hashJob, concurrency*2)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go hp.hashWorker(jobChan, results, progress, &wg)
	}

	for i, path := range paths {
		jobChan <- hashJob{index: i, path: path}
	}
	close(jobChan)
	wg.Wait()

	VerboseLog(1, "Hashed %d files with %d workers (%d failed)", len(paths), concurrency, progress.Failed())
	return results
}

// hashWorker drains jobs through one read buffer it owns; each worker only
// writes the slots of its own jobs
func (hp *HashWorkerPool) hashWorker(jobChan <-chan hashJob, results Dataset, progress *Progress, wg *sync.WaitGroup) {
	defer wg.Done()

	buf := make([]byte, hp.bufferSize)
	for job := range jobChan {
		progress.begin(job.path)
		debugLog(StageHashing, "hashing %s (job %d)", job.path, job.index)

		outcome, n := hp.hashOne(job.path, buf)
		results[job.index] = FileRecord{
			Path:       job.path,
			Digest:     outcome.Digest,
			AnalyzedAt: hp.now(),
		}
		progress.finish(outcome, n)
	}
}

// hashOne hashes a single file through buf and returns its tagged outcome and bytes read
func (hp *HashWorkerPool) hashOne(path string, buf []byte) (HashOutcome, int64) {
	digest, n, err := HashFileWithBuffer(path, hp.algorithm, buf)
	if err != nil {
		rec := hp.sink.Report(StageHashing, path, err)
		debugLog(StageHashing, "hash failed for %s: %v", path, err)
		return Failure(rec.Kind, err), n
	}
	return Success(digest), n
}
