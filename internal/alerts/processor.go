package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Processor sends the emails queued by Notifier.
type Processor struct {
	sender Sender
	log    *zap.Logger
}

func NewProcessor(sender Sender, log *zap.Logger) *Processor {
	return &Processor{sender: sender, log: log}
}

// Register mounts a handler per task type on mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskWelcomeEmail, p.handle(TaskWelcomeEmail))
	mux.HandleFunc(TaskBidReceived, p.handle(TaskBidReceived))
	mux.HandleFunc(TaskReviewReceived, p.handle(TaskReviewReceived))
	mux.HandleFunc(TaskMessageNew, p.handle(TaskMessageNew))
	mux.HandleFunc(TaskPasswordReset, p.handle(TaskPasswordReset))
}

// Every payload embeds an envelope; that is all sending needs.
type envelopeOnly struct {
	Envelope EmailEnvelope `json:"envelope"`
}

func (p *Processor) handle(taskType string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload envelopeOnly
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("%s: %v: %w", taskType, err, asynq.SkipRetry)
		}
		env := payload.Envelope
		if env.To == "" {
			return fmt.Errorf("%s: empty recipient: %w", taskType, asynq.SkipRetry)
		}
		if err := p.sender.Send(ctx, env.To, env.Subject, env.Body); err != nil {
			p.log.Error("email send failed", zap.String("task", taskType), zap.String("to", env.To), zap.Error(err))
			return err
		}
		p.log.Info("email sent", zap.String("task", taskType), zap.String("to", env.To))
		return nil
	}
}

// Worker owns the asynq client and server for one Redis.
type Worker struct {
	Client *asynq.Client
	server *asynq.Server
	log    *zap.Logger
}

// Start connects to Redis and begins processing email tasks.
func Start(redisAddr string, sender Sender, log *zap.Logger) (*Worker, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}

	mux := asynq.NewServeMux()
	NewProcessor(sender, log).Register(mux)

	server := asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{queueEmails: 10},
	})
	if err := server.Start(mux); err != nil {
		return nil, fmt.Errorf("start asynq server: %w", err)
	}
	log.Info("asynq initialized", zap.String("addr", redisAddr))
	return &Worker{Client: asynq.NewClient(opts), server: server, log: log}, nil
}

// Close releases client and stops server.
func (w *Worker) Close() {
	if w.Client != nil {
		_ = w.Client.Close()
	}
	if w.server != nil {
		w.server.Shutdown()
	}
}
