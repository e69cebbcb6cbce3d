package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

var _ ledger.EventPublisher = (*Publisher)(nil)

// Publisher publica movimientos confirmados con un SyncProducer de sarama.
// La clave del mensaje es producto:sucursal, así los movimientos de un par quedan en la misma partición.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher crea el productor contra los brokers dados.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("publicador kafka inicializado")
	return NewPublisherWithProducer(producer, topic), nil
}

// NewPublisherWithProducer usa un productor ya construido (tests con sarama/mocks).
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic}
}

// PublishMovements envía un mensaje por movimiento en un solo lote.
func (p *Publisher) PublishMovements(ctx context.Context, movements []*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(movements))
	for _, m := range movements {
		payload, err := json.Marshal(toEvent(m))
		if err != nil {
			return fmt.Errorf("serializar evento: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(m.ProductID + ":" + m.OutletID),
			Value: sarama.ByteEncoder(payload),
			Headers: []sarama.RecordHeader{
				{Key: []byte("event_type"), Value: []byte(EventTypeStockMovement)},
				{Key: []byte("event_id"), Value: []byte(m.ID)},
			},
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("enviar movimientos a kafka: %w", err)
	}
	log.Debug().Str("topic", p.topic).Int("count", len(msgs)).Msg("movimientos publicados")
	return nil
}

// Close cierra el productor.
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func toEvent(m *entity.StockMovement) MovementEvent {
	return MovementEvent{
		EventID:        m.ID,
		EventType:      EventTypeStockMovement,
		MovementID:     m.ID,
		ProductID:      m.ProductID,
		OutletID:       m.OutletID,
		Type:           string(m.Type),
		Delta:          m.Delta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceType:  string(m.Reference.Kind),
		ReferenceID:    m.Reference.ID,
		ActorID:        m.ActorID,
		OccurredAt:     m.CreatedAt,
	}
}
