// Package redpanda publishes compiled interview reports to a Kafka-compatible
// broker (Redpanda in the compose stack) for downstream consumers.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

// DefaultReportTopic is used when no topic is configured.
const DefaultReportTopic = "interview-reports"

type recordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type requester interface {
	Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error)
}

// ReportEvent is the record value published for every compiled report. The
// rendered document is left out; consumers fetch it by id when needed.
type ReportEvent struct {
	ReportID       string                `json:"reportId"`
	Language       domain.Language       `json:"language"`
	InterviewType  string                `json:"interviewType"`
	RoleCategory   domain.RoleCategory   `json:"roleCategory"`
	OverallScore   int                   `json:"overallScore"`
	Recommendation domain.Recommendation `json:"recommendation"`
	Breakdown      domain.Breakdown      `json:"breakdown"`
	RoundScores    []int                 `json:"roundScores"`
	QuestionCount  int                   `json:"questionCount"`
	DurationSec    int                   `json:"durationSec"`
	CreatedAt      string                `json:"createdAt"`
}

// Producer implements domain.ReportPublisher.
type Producer struct {
	client recordProducer
	closer func()
	topic  string
}

var _ domain.ReportPublisher = (*Producer)(nil)

// NewProducer connects to brokers and makes sure the report topic exists.
func NewProducer(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if topic == "" {
		topic = DefaultReportTopic
	}
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers), slog.String("topic", topic))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda client: %w", err)
	}
	if err := createTopicIfNotExists(ctx, client, topic, 1, 1); err != nil {
		// a missing topic is created on first produce when auto-create is on
		slog.Warn("failed to create topic, it may already exist", slog.String("topic", topic), slog.Any("error", err))
	}
	return &Producer{client: client, closer: client.Close, topic: topic}, nil
}

func newProducerWith(client recordProducer, topic string) *Producer {
	return &Producer{client: client, topic: topic}
}

// PublishReport produces one record keyed by report id.
func (p *Producer) PublishReport(ctx context.Context, r domain.FinalReport) error {
	b, err := json.Marshal(eventFor(r))
	if err != nil {
		return fmt.Errorf("op=redpanda.PublishReport: marshal: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(r.ID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "report_id", Value: []byte(r.ID)},
			{Key: "recommendation", Value: []byte(r.Recommendation)},
			{Key: "request_id", Value: []byte(observability.RequestIDFromContext(ctx))},
		},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("op=redpanda.PublishReport: produce: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("report published",
		slog.String("topic", p.topic),
		slog.String("report_id", r.ID))
	return nil
}

func eventFor(r domain.FinalReport) ReportEvent {
	return ReportEvent{
		ReportID:       r.ID,
		Language:       r.Language,
		InterviewType:  r.InterviewType,
		RoleCategory:   r.RoleCategory,
		OverallScore:   r.OverallScore,
		Recommendation: r.Recommendation,
		Breakdown:      r.Breakdown,
		RoundScores:    r.RoundScores,
		QuestionCount:  r.QuestionCount,
		DurationSec:    r.DurationSec,
		CreatedAt:      r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}
