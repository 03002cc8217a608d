package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	"github.com/wardenauth/warden/internal/metrics"
)

const auditWriteTimeout = 10 * time.Second

// auditRecorder implements AuditRecorder with a bounded queue and a single
// writer goroutine. One writer preserves the enqueue order of entries, so
// per-principal decision logs land in decision order.
type auditRecorder struct {
	writer          DecisionLogWriter
	signer          AuditSigner
	logger          *slog.Logger
	businessMetrics metrics.BusinessMetrics

	queue chan *authzDomain.DecisionLog

	closeOnce sync.Once
	done      chan struct{}
	pending   sync.WaitGroup // direct background writes in flight
}

// NewAuditRecorder creates an AuditRecorder with the given queue capacity
// and starts its writer goroutine.
func NewAuditRecorder(
	writer DecisionLogWriter,
	signer AuditSigner,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
	queueSize int,
) AuditRecorder {
	r := &auditRecorder{
		writer:          writer,
		signer:          signer,
		logger:          logger,
		businessMetrics: businessMetrics,
		queue:           make(chan *authzDomain.DecisionLog, queueSize),
		done:            make(chan struct{}),
	}

	go r.run()

	return r
}

// Record enqueues the entry for the writer goroutine. When the queue is
// full the entry is written directly in a background goroutine instead of
// being dropped, and a backpressure metric is recorded so operators see
// the queue is undersized.
func (r *auditRecorder) Record(entry *authzDomain.DecisionLog) {
	select {
	case r.queue <- entry:
	default:
		r.businessMetrics.RecordOperation(context.Background(), "authz", "audit_enqueue", "backpressure")
		r.pending.Add(1)
		go func() {
			defer r.pending.Done()
			r.write(entry)
		}()
	}
}

// Close stops accepting writes from the queue, drains it, and waits for
// in-flight direct writes. Entries recorded after Close are not guaranteed
// to persist.
func (r *auditRecorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		close(r.queue)
	})

	finished := make(chan struct{})
	go func() {
		<-r.done
		r.pending.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the single writer goroutine. It exits when the queue is closed
// and drained.
func (r *auditRecorder) run() {
	defer close(r.done)
	for entry := range r.queue {
		r.write(entry)
	}
}

// write signs and persists one entry. Failures are escalated through the
// log and the error metric; there is nothing upstream to fail since the
// decision has already been returned.
func (r *auditRecorder) write(entry *authzDomain.DecisionLog) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	signature, err := r.signer.Sign(entry)
	if err != nil {
		r.businessMetrics.RecordOperation(ctx, "authz", "audit_sign", "error")
		r.logger.Error("failed to sign decision log",
			slog.String("decision_log_id", entry.ID.String()),
			slog.String("principal_id", entry.PrincipalID.String()),
			slog.String("error", err.Error()))
		return
	}
	entry.Signature = signature

	if err := r.writer.Create(ctx, entry); err != nil {
		r.businessMetrics.RecordOperation(ctx, "authz", "audit_write", "error")
		r.logger.Error("failed to persist decision log",
			slog.String("decision_log_id", entry.ID.String()),
			slog.String("principal_id", entry.PrincipalID.String()),
			slog.String("error", err.Error()))
		return
	}

	r.businessMetrics.RecordOperation(ctx, "authz", "audit_write", "success")
}
