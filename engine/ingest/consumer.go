package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/pkg/fn"
)

const (
	// ReportSubject carries incoming user vibe submissions.
	ReportSubject = "vibe.report"
	// DLQSubject receives submissions that keep failing.
	DLQSubject = "vibe.report.dlq"
	// MaxRetries before a submission goes to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// Deps holds the external dependencies of the submission pipeline.
type Deps struct {
	Sink     Sink
	Embedder Embedder
	Logger   *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Validate rejects malformed submissions at pipeline entry.
var Validate fn.Stage[domain.Submission, domain.Submission] = func(_ context.Context, sub domain.Submission) fn.Result[domain.Submission] {
	if err := domain.ValidateSubmission(sub); err != nil {
		return fn.Err[domain.Submission](err)
	}
	return fn.Ok(sub)
}

// NewBuild creates the stage that mints a Report from a submission.
func NewBuild(now func() time.Time) fn.Stage[domain.Submission, domain.Report] {
	if now == nil {
		now = time.Now
	}
	return fn.MapStage(func(sub domain.Submission) domain.Report {
		return ReportFromSubmission(sub, now())
	})
}

// NewEmbed creates the stage that attaches an embedding to a report.
func NewEmbed(embedder Embedder) fn.Stage[domain.Report, domain.Report] {
	return func(ctx context.Context, r domain.Report) fn.Result[domain.Report] {
		vec, err := embedder.Embed(ctx, r.Text)
		if err != nil {
			return fn.Errf[domain.Report]("ingest: embed: %w", err)
		}
		r.Embedding = vec
		return fn.Ok(r)
	}
}

// NewStore creates the stage that writes a report to the index.
func NewStore(sink Sink) fn.Stage[domain.Report, string] {
	return func(ctx context.Context, r domain.Report) fn.Result[string] {
		if err := sink.Upsert(ctx, []domain.Report{r}); err != nil {
			return fn.Errf[string]("ingest: upsert: %w", err)
		}
		return fn.Ok(r.ID)
	}
}

// NewPipeline wires validate, build, embed, and store into one stage.
func NewPipeline(deps Deps) fn.Stage[domain.Submission, string] {
	built := fn.Then(Validate, NewBuild(deps.Now))
	embedded := fn.Then(built, fn.TracedStage("ingest.embed", NewEmbed(deps.Embedder)))
	return fn.Then(embedded, fn.TracedStage("ingest.store", NewStore(deps.Sink)))
}

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Submission domain.Submission `json:"submission"`
	Error      string            `json:"error"`
	Retries    int               `json:"retries"`
}

// StartConsumer subscribes to the report subject and runs each submission
// through the pipeline with retry and DLQ handling. Malformed JSON and
// invalid submissions are dropped outright; retrying cannot fix them.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(ReportSubject, func(msg *nats.Msg) {
		var sub domain.Submission
		if err := json.Unmarshal(msg.Data, &sub); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}
		if err := domain.ValidateSubmission(sub); err != nil {
			log.Warn("ingest: dropping invalid submission", "error", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		result := pipeline(context.Background(), sub)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("ingest: pipeline failed", "error", pipeErr, "retry", retries)

			if retries >= MaxRetries {
				dlq := dlqMessage{Submission: sub, Error: pipeErr.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if err := nc.Publish(DLQSubject, data); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
			} else {
				retryMsg := nats.NewMsg(ReportSubject)
				retryMsg.Data = msg.Data
				retryMsg.Header = nats.Header{}
				retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
				if err := nc.PublishMsg(retryMsg); err != nil {
					log.Error("ingest: retry publish failed", "error", err)
				}
			}
			return
		}

		id, _ := result.Unwrap()
		log.Info("ingest: report stored", "id", id)
	})
}
