// Package queue consumes evaluation requests published by the recruiting web app.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Request kinds.
const (
	KindApplicationSubmitted = "application_submitted"
	KindInterviewCompleted   = "interview_completed"
	KindHRDecision           = "hr_decision"
)

// ErrInvalidRequest marks a message that will never succeed; it is dropped.
var ErrInvalidRequest = errors.New("invalid evaluation request")

// EvaluationRequest is the message body on the intake queue.
type EvaluationRequest struct {
	Kind          string `json:"kind"`
	ApplicationID int64  `json:"application_id"`
	InterviewID   int64  `json:"interview_id,omitempty"`
	JobID         int64  `json:"job_id,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Notes         string `json:"notes,omitempty"`
	DecidedBy     string `json:"decided_by,omitempty"`
}

// Validate checks the fields each kind needs.
func (r EvaluationRequest) Validate() error {
	switch r.Kind {
	case KindApplicationSubmitted:
		if r.ApplicationID <= 0 {
			return fmt.Errorf("%w: application_id is required", ErrInvalidRequest)
		}
	case KindInterviewCompleted:
		if r.InterviewID <= 0 {
			return fmt.Errorf("%w: interview_id is required", ErrInvalidRequest)
		}
	case KindHRDecision:
		if r.InterviewID <= 0 || r.Decision == "" {
			return fmt.Errorf("%w: interview_id and decision are required", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	return nil
}

// HandlerFunc processes one request. Returning ErrInvalidRequest drops the
// message; any other error requeues it.
type HandlerFunc func(ctx context.Context, req EvaluationRequest) error

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  logger.Logger
}

// New dials the broker and declares the durable intake queue.
func New(cfg config.QueueConfig, log logger.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set prefetch: %w", err)
		}
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	return &RabbitMQ{
		conn:    conn,
		channel: ch,
		queue:   q,
		logger:  log.WithFields(map[string]interface{}{"queue": q.Name}),
	}, nil
}

// Publish enqueues a request as persistent JSON.
func (r *RabbitMQ) Publish(ctx context.Context, req EvaluationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(ctx, "", r.queue.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Consume delivers messages to handler until ctx is cancelled or the channel closes.
func (r *RabbitMQ) Consume(ctx context.Context, handler HandlerFunc) error {
	msgs, err := r.channel.Consume(r.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	r.logger.Info("consuming evaluation requests", nil)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			r.dispatch(ctx, d, handler)
		}
	}
}

func (r *RabbitMQ) dispatch(ctx context.Context, d amqp.Delivery, handler HandlerFunc) {
	outcome := Dispatch(ctx, d.Body, handler)
	metrics.QueueMessagesConsumed.WithLabelValues(string(outcome)).Inc()

	switch outcome {
	case OutcomeProcessed:
		_ = d.Ack(false)
	case OutcomeDropped:
		r.logger.Warn("dropping invalid evaluation request", map[string]interface{}{"body": string(d.Body)})
		_ = d.Reject(false)
	default:
		_ = d.Nack(false, !d.Redelivered)
	}
}

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDropped   Outcome = "dropped"
	OutcomeRequeued  Outcome = "requeued"
)

// Dispatch decodes body and runs handler, reporting what should happen to the message.
func Dispatch(ctx context.Context, body []byte, handler HandlerFunc) Outcome {
	var req EvaluationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return OutcomeDropped
	}
	if err := req.Validate(); err != nil {
		return OutcomeDropped
	}
	if err := handler(ctx, req); err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return OutcomeDropped
		}
		return OutcomeRequeued
	}
	return OutcomeProcessed
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
