package acousticbpm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/himanishpuri/AcousticBPM/pkg/utils"
)

// job is one file handed to the pool.
type job struct {
	file utils.AudioFile
}

// pool runs per-file work on a fixed set of goroutines. Workers never touch
// the Sink; they only send results back to the coordinator.
type pool struct {
	jobs    chan job
	results chan FileResult
	wg      sync.WaitGroup
	process func(ctx context.Context, path string) FileResult
	// timeout abandons a file whose processing has not returned in time;
	// zero waits forever.
	timeout time.Duration
}

func newPool(process func(ctx context.Context, path string) FileResult) *pool {
	return &pool{
		jobs:    make(chan job),
		results: make(chan FileResult),
		process: process,
	}
}

// Start launches the worker goroutines.
func (p *pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.results <- p.run(ctx, j)
			}
		}()
	}
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (p *pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// run processes one job. A job picked up after ctx is done is skipped.
// With a timeout set, a file that does not finish in time is reported as
// timed out and the worker moves on; its goroutine is left to finish (or
// hang) on its own.
func (p *pool) run(ctx context.Context, j job) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Path: j.file.Path, Status: StatusCancelled, Error: err.Error()}
	}
	if p.timeout <= 0 {
		return p.safeProcess(ctx, j)
	}

	done := make(chan FileResult, 1)
	go func() {
		done <- p.safeProcess(ctx, j)
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-timer.C:
		return FileResult{
			Path:   j.file.Path,
			Status: StatusTimeout,
			Error:  fmt.Sprintf("no result after %s", p.timeout),
		}
	}
}

// safeProcess isolates a panic in one file's decode or analysis to that file.
func (p *pool) safeProcess(ctx context.Context, j job) (res FileResult) {
	defer func() {
		if r := recover(); r != nil {
			res = FileResult{
				Path:   j.file.Path,
				Status: StatusPanic,
				Error:  fmt.Sprint(r),
			}
		}
	}()
	return p.process(ctx, j.file.Path)
}

// dispatch feeds files to the pool and hands every result to collect, all
// from the calling goroutine. Once ctx is done, files not yet handed out
// are passed to collect as cancelled.
func (p *pool) dispatch(ctx context.Context, files []utils.AudioFile, onStart func(utils.AudioFile), collect func(FileResult)) {
	pending := files
	inflight := 0

	for len(pending) > 0 || inflight > 0 {
		var send chan<- job
		var next job
		var done <-chan struct{}
		if len(pending) > 0 {
			send = p.jobs
			next = job{file: pending[0]}
			done = ctx.Done()
		}

		select {
		case send <- next:
			onStart(next.file)
			pending = pending[1:]
			inflight++
		case res := <-p.results:
			inflight--
			collect(res)
		case <-done:
			for _, f := range pending {
				collect(FileResult{Path: f.Path, Status: StatusCancelled, Error: ctx.Err().Error()})
			}
			pending = nil
		}
	}
}
