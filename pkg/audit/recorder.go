package audit

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"patternlab/relay/pkg/admission"
	"patternlab/relay/pkg/proxy"
)

// RecorderConfig contains configuration for the decision recorder.
type RecorderConfig struct {
	// Enabled enables decision recording.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes admission decisions to storage asynchronously so the
// request path never blocks on the database.
type Recorder struct {
	storage    Storage
	config     *RecorderConfig
	recordChan chan *DecisionRecord
	dropped    atomic.Int64
	wg         sync.WaitGroup
	done       chan struct{}
	stop       sync.Once
	logger     *slog.Logger
}

// NewRecorder creates a decision recorder and starts its background worker.
func NewRecorder(storage Storage, config *RecorderConfig) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *DecisionRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// RecordDecision enqueues one decision for async writing. It returns
// immediately; when the buffer is full the record is dropped and counted.
func (r *Recorder) RecordDecision(req *http.Request, key string, decision admission.Decision) {
	if !r.config.Enabled {
		return
	}

	record := &DecisionRecord{
		ID:        uuid.NewString(),
		RequestID: proxy.ExtractRequestID(req),
		ClientKey: key,
		Decision:  decision.String(),
		Method:    req.Method,
		Path:      req.URL.Path,
		CreatedAt: time.Now(),
	}

	select {
	case r.recordChan <- record:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns the number of records discarded because the buffer was
// full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains buffered records and stops the worker.
func (r *Recorder) Close() error {
	r.stop.Do(func() { close(r.done) })
	r.wg.Wait()

	if dropped := r.dropped.Load(); dropped > 0 {
		r.logger.Warn("audit records dropped due to full buffer", "count", dropped)
	}
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			// Drain what is already buffered before exiting.
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.WriteRecord(ctx, record); err != nil {
		r.logger.Error("failed to write audit record",
			"record_id", record.ID,
			"client_key", record.ClientKey,
			"error", err,
		)
	}
}
