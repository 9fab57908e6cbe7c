package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Schorakbi/roboto-ai/internal/config"
	"github.com/Schorakbi/roboto-ai/internal/handlers"
	"github.com/Schorakbi/roboto-ai/internal/models"
)

type NATSTransport struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	config  *config.Config
	handler *handlers.CommandHandler
	logger  *zap.Logger
}

func NewNATSTransport(cfg *config.Config, handler *handlers.CommandHandler, logger *zap.Logger) (*NATSTransport, error) {
	logger = logger.With(zap.String("component", "nats"))

	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS server", zap.String("url", cfg.NatsURL))

	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		handler: handler,
		logger:  logger,
	}, nil
}

func (nt *NATSTransport) Start() error {
	sub, err := nt.conn.Subscribe(nt.config.NatsRequestSubject, nt.handleCommandRequest)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.config.NatsRequestSubject, err)
	}
	nt.sub = sub

	nt.logger.Info("Subscribed to subject", zap.String("subject", nt.config.NatsRequestSubject))
	return nil
}

func (nt *NATSTransport) handleCommandRequest(msg *nats.Msg) {
	if msg.Reply == "" {
		nt.logger.Warn("Dropping command request without reply subject", zap.String("subject", msg.Subject))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	if err := msg.Respond(processMessage(ctx, nt.handler, msg.Data)); err != nil {
		nt.logger.Error("Failed to send response", zap.Error(err))
	}
}

// processMessage runs one request payload through the handler and returns the reply payload.
func processMessage(ctx context.Context, handler *handlers.CommandHandler, data []byte) []byte {
	var request models.CommandRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return marshalReply(&models.ErrorResponse{
			Detail:    fmt.Sprintf("Invalid request body: %s", err.Error()),
			ErrorCode: models.ErrorInvalidInput,
		})
	}

	parsed, err := handler.ParseCommand(ctx, &request)
	if err != nil {
		var cmdErr *handlers.CommandError
		if errors.As(err, &cmdErr) {
			return marshalReply(cmdErr.Response())
		}
		return marshalReply(&models.ErrorResponse{
			Detail:    fmt.Sprintf("An error occurred: %s", err.Error()),
			ErrorCode: models.ErrorUpstreamCallFailed,
		})
	}

	return marshalReply(parsed)
}

func marshalReply(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"detail":"An error occurred: failed to marshal response"}`)
	}
	return data
}

func (nt *NATSTransport) Close() error {
	if nt.sub != nil {
		if err := nt.sub.Drain(); err != nil {
			nt.logger.Warn("Failed to drain subscription", zap.Error(err))
		}
	}
	if nt.conn != nil {
		nt.conn.Close()
		nt.logger.Info("NATS connection closed")
	}
	return nil
}
