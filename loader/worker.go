// SPDX-License-Identifier: EPL-2.0

package loader

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ik5/timewarp/dsp"
)

type RequestKind uint8

const (
	LoadFile RequestKind = iota
	FlushBuffer
)

func (k RequestKind) String() string {
	if k == FlushBuffer {
		return "flush_buffer"
	}
	return "load_file"
}

type Request struct {
	Kind       RequestKind
	Path       string
	SampleRate int
	// Size is the delay line length the frames are fitted to.
	Size int
}

func LoadFileRequest(path string, sampleRate, size int) Request {
	return Request{Kind: LoadFile, Path: path, SampleRate: sampleRate, Size: size}
}

func FlushBufferRequest(size int) Request {
	return Request{Kind: FlushBuffer, Size: size}
}

type Response struct {
	Kind RequestKind
	Path string
	Data AudioFileData
	Err  error
}

// Worker decodes files off the audio thread. Requests and responses travel
// over bounded channels; neither side ever blocks on a full channel.
type Worker struct {
	requests  chan Request
	responses chan Response
	cfg       config

	dropped atomic.Uint64

	mtx        sync.Mutex
	loadedPath string
}

func NewWorker(opts ...Option) *Worker {
	cfg := newConfig(opts)
	return &Worker{
		requests:  make(chan Request, cfg.capacity),
		responses: make(chan Response, cfg.capacity),
		cfg:       cfg,
	}
}

// Submit queues req without blocking. It reports false when the queue is
// full and the request was dropped.
func (w *Worker) Submit(req Request) bool {
	if w.TrySubmit(req) {
		return true
	}
	w.cfg.logger.Warn("worker queue full, request dropped",
		slog.String("kind", req.Kind.String()), slog.String("path", req.Path))
	return false
}

// TrySubmit is Submit without logging, for callers on the audio thread.
// Drops are counted in Dropped.
func (w *Worker) TrySubmit(req Request) bool {
	select {
	case w.requests <- req:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Dropped counts requests rejected because the queue was full.
func (w *Worker) Dropped() uint64 { return w.dropped.Load() }

// Run serves queued requests until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.requests:
			w.HandleRequest(req)
		}
	}
}

// HandleRequest processes req synchronously and offers the response.
func (w *Worker) HandleRequest(req Request) {
	log := w.cfg.logger.With(slog.String("kind", req.Kind.String()))

	var resp Response
	switch req.Kind {
	case FlushBuffer:
		resp = Response{Kind: FlushBuffer, Data: AudioFileData{Frames: make([]dsp.Frame, req.Size)}}

	default:
		log = log.With(slog.String("path", req.Path))
		log.Info("loading file")

		p := &FileProcessor{sampleRate: req.SampleRate, cfg: w.cfg}
		data, err := p.Read(req.Path, req.Size)
		resp = Response{Kind: LoadFile, Path: req.Path, Data: data, Err: err}
		if err != nil {
			log.Error("file load failed", slog.Any("err", err))
		} else {
			log.Info("file loaded",
				slog.Int("frames", data.DurationInSamples),
				slog.Float64("duration_ms", float64(data.DurationInMs)))
		}
	}

	select {
	case w.responses <- resp:
		if resp.Kind == LoadFile && resp.Err == nil {
			w.mtx.Lock()
			w.loadedPath = resp.Path
			w.mtx.Unlock()
		}
	default:
		log.Warn("response channel full, result dropped")
	}
}

// TryReceive returns a pending response, if any. It never blocks.
func (w *Worker) TryReceive() (Response, bool) {
	select {
	case resp := <-w.responses:
		return resp, true
	default:
		return Response{}, false
	}
}

// LoadedPath is the last file whose data was handed to the audio side.
func (w *Worker) LoadedPath() string {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	return w.loadedPath
}
