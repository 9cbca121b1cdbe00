package runevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	ce "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/calendarsync"
)

const (
	EventSource          = "therapyhub/calendar-worker"
	RunCompletedType     = "com.therapyhub.calendarsync.run.completed"
	structuredModeHeader = "application/cloudevents+json"
)

type Publisher interface {
	Publish(ctx context.Context, summary calendarsync.Summary) error
}

type Params struct {
	fx.In

	Config    Config
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

func NewPublisher(p Params) (Publisher, error) {
	if !p.Config.Enabled {
		return &disabledPublisher{logger: p.Logger}, nil
	}
	if len(p.Config.KafkaBrokers) == 0 {
		return nil, errors.New("run events require at least one kafka broker")
	}

	version, err := sarama.ParseKafkaVersion(p.Config.KafkaVersion)
	if err != nil {
		return nil, err
	}
	config := sarama.NewConfig()
	config.Version = version
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true

	publisher := &KafkaPublisher{
		topic:  p.Config.KafkaTopic,
		logger: p.Logger,
		newProducer: func() (sarama.SyncProducer, error) {
			return sarama.NewSyncProducer(p.Config.KafkaBrokers, config)
		},
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Unreachable brokers must not keep the worker from syncing,
			// the producer is created again on the next publish
			if _, err := publisher.getProducer(); err != nil {
				p.Logger.Warnw("unable to connect to kafka, run events will be retried on publish", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}

// KafkaPublisher sends structured mode cloud events to a kafka topic
type KafkaPublisher struct {
	producer    sarama.SyncProducer
	newProducer func() (sarama.SyncProducer, error)
	topic       string
	logger      *zap.SugaredLogger

	mu sync.Mutex
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, logger *zap.SugaredLogger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, summary calendarsync.Summary) error {
	producer, err := k.getProducer()
	if err != nil {
		return err
	}

	event, err := NewRunCompletedEvent(summary)
	if err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("unable to marshal run completed event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(event.ID()),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{{
			Key:   []byte("content-type"),
			Value: []byte(structuredModeHeader),
		}},
	}
	partition, offset, err := producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("unable to send run completed event: %w", err)
	}

	k.logger.Debugw("run completed event published", "eventId", event.ID(), "partition", partition, "offset", offset)
	return nil
}

func (k *KafkaPublisher) getProducer() (sarama.SyncProducer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.producer != nil {
		return k.producer, nil
	}
	if k.newProducer == nil {
		return nil, errors.New("kafka producer is not configured")
	}
	producer, err := k.newProducer()
	if err != nil {
		return nil, fmt.Errorf("unable to create kafka producer: %w", err)
	}
	k.producer = producer
	return producer, nil
}

func (k *KafkaPublisher) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}

type RunCompleted struct {
	WindowStart  time.Time                     `json:"windowStart"`
	WindowEnd    time.Time                     `json:"windowEnd"`
	TotalSynced  int                           `json:"totalSynced"`
	TotalSkipped int                           `json:"totalSkipped"`
	Timestamp    time.Time                     `json:"timestamp"`
	Calendars    []calendarsync.CalendarResult `json:"calendars"`
}

func NewRunCompletedEvent(summary calendarsync.Summary) (ce.Event, error) {
	event := ce.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(EventSource)
	event.SetType(RunCompletedType)
	event.SetTime(summary.Timestamp)

	err := event.SetData(ce.ApplicationJSON, RunCompleted{
		WindowStart:  summary.Window.Start,
		WindowEnd:    summary.Window.End,
		TotalSynced:  summary.TotalSynced,
		TotalSkipped: summary.TotalSkipped,
		Timestamp:    summary.Timestamp,
		Calendars:    summary.Calendars,
	})
	if err != nil {
		return event, fmt.Errorf("unable to set run completed event data: %w", err)
	}
	return event, nil
}

type disabledPublisher struct {
	logger *zap.SugaredLogger
}

func (d *disabledPublisher) Publish(ctx context.Context, summary calendarsync.Summary) error {
	d.logger.Debugw("run events are disabled, not publishing", "totalSynced", summary.TotalSynced, "totalSkipped", summary.TotalSkipped)
	return nil
}
