package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/sportstore-backend/internal/application/events"
	"github.com/jhoicas/sportstore-backend/pkg/config"
	"github.com/jhoicas/sportstore-backend/pkg/logger"
)

var _ events.Publisher = (*Publisher)(nil)

const publishTimeout = 30 * time.Second

// Publisher publica eventos en Kafka de forma best-effort. Con el bus
// deshabilitado por configuración los eventos se descartan con un log, para
// poder correr la aplicación sin broker en desarrollo.
//
// La escritura real ocurre en una goroutine aparte: Publish nunca bloquea el
// camino de commit del caller ni le propaga fallas del broker.
type Publisher struct {
	writer  *kafka.Writer
	enabled bool
	log     *logger.Logger
}

// NewPublisher construye el publicador según la configuración.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) *Publisher {
	if !cfg.Enabled {
		log.Warn().Msg("bus de eventos deshabilitado: los eventos se descartarán")
		return &Publisher{enabled: false, log: log}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Info().Strs("brokers", cfg.Brokers).Str("client_id", cfg.ClientID).Msg("publicador Kafka inicializado")
	return &Publisher{writer: writer, enabled: true, log: log}
}

// Publish serializa el evento y lo envía al topic indicado sin bloquear al
// caller. Solo retorna error si el evento no se puede serializar.
func (p *Publisher) Publish(ctx context.Context, topic string, event events.Event) error {
	if !p.enabled {
		p.log.Debug().Str("evento", event.Event).Msg("bus deshabilitado, evento descartado")
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", event.Event, err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(uuid.New().String()),
		Value: payload,
		Time:  event.Timestamp,
	}

	go func() {
		// Contexto propio: el del caller puede estar ya cancelado tras el commit.
		writeCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
			p.log.Warn().Err(err).Str("topic", topic).Str("evento", event.Event).Msg("publicar evento en Kafka")
			return
		}
		p.log.Debug().Str("topic", topic).Str("evento", event.Event).Msg("evento publicado")
	}()
	return nil
}

// Close cierra el writer subyacente.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
