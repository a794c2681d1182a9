package events

import (
	"encoding/json"
	"fmt"
	"time"

	"autoapply-engine/internal/domain"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	DefaultSubject = "autoapply.log"
	connectTimeout = 10 * time.Second
)

// NATSSink publishes each log event as JSON on a subject so other processes
// can follow a session.
type NATSSink struct {
	nc      *nats.Conn
	subject string
	log     *zap.Logger
}

func NewNATSSink(url, subject string, logger *zap.Logger) (*NATSSink, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts := []nats.Option{
		nats.Name("autoapply-engine"),
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return &NATSSink{nc: nc, subject: subject, log: logger.Named("nats")}, nil
}

func (s *NATSSink) Emit(ev domain.LogEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("marshal log event", zap.Error(err))
		return
	}
	if err := s.nc.Publish(s.subject, data); err != nil {
		s.log.Warn("failed to publish log event",
			zap.String("subject", s.subject),
			zap.Error(err))
		return
	}
	s.log.Debug("published log event",
		zap.String("subject", s.subject),
		zap.String("category", string(ev.Category)))
}

func (s *NATSSink) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}
