package jetstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/logger"
	"github.com/feral-file/ff-token-scanner/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// ChainName is the subject segment, e.g. "base" in tokens.base.discovered
	ChainName string
}

type publisher struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	subject string
}

// NewPublisher connects to NATS, makes sure the stream exists and returns a Publisher
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream) (messaging.Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	subject := BuildSubject(cfg.ChainName)
	if err := js.EnsureStream(ctx, cfg.StreamName, []string{"tokens.>"}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	logger.Info("NATS publisher ready",
		zap.String("url", nc.ConnectedUrl()),
		zap.String("stream", cfg.StreamName),
		zap.String("subject", subject))

	return &publisher{nc: nc, js: js, subject: subject}, nil
}

// BuildSubject returns tokens.<chain>.discovered with the chain name lowercased
func BuildSubject(chainName string) string {
	chain := strings.ToLower(strings.TrimSpace(chainName))
	if chain == "" {
		chain = "unknown"
	}
	return fmt.Sprintf("tokens.%s.discovered", chain)
}

// PublishTokenDiscovered publishes the event with the contract address as message id
// so JetStream drops duplicates within its dedup window
func (p *publisher) PublishTokenDiscovered(ctx context.Context, event *domain.TokenDiscoveredEvent) error {
	logger.DebugCtx(ctx, "Publishing token discovered event", zap.String("address", event.ContractAddress))

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msgID := fmt.Sprintf("%s:%s:%d", event.Chain, event.ContractAddress, event.DiscoveredAt.Unix())
	if _, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(msgID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains pending publishes before closing the connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logger.Warn("failed to drain NATS connection", zap.Error(err))
		p.nc.Close()
	}
}
