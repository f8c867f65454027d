package listener

import (
	"context"
	"fmt"
	"time"

	"order-relay/internal/logger"
	"order-relay/internal/metrics"
	"order-relay/internal/model"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Publisher receives every decoded change event. Satisfied by *hub.Hub.
type Publisher interface {
	Publish(e model.ChangeEvent)
}

// Sink mirrors change events to an external system. Sink failures are
// logged and never affect hub delivery.
type Sink interface {
	Publish(ctx context.Context, e model.ChangeEvent) error
}

type Config struct {
	Channel          string
	MinReconnectWait time.Duration
	MaxReconnectWait time.Duration
	PingInterval     time.Duration
}

// Listener bridges the store's notification channel into the in-memory
// event stream. It holds a dedicated connection, separate from the query
// pool, and relies on pq.Listener's bounded-backoff reconnect to survive
// connection loss for the life of the process. Events committed while
// the connection is down are not replayed.
type Listener struct {
	cfg  Config
	pl   *pq.Listener
	noti <-chan *pq.Notification
	ping func() error
	hub  Publisher
	sink Sink
}

// New opens the dedicated subscription connection and subscribes to the
// configured channel. A subscribe failure here is returned to the caller
// and is expected to be fatal: the process must not serve without a
// working change feed.
func New(dsn string, cfg Config, pub Publisher, sink Sink) (*Listener, error) {
	if cfg.Channel == "" {
		cfg.Channel = "orders_changes"
	}
	if cfg.MinReconnectWait <= 0 {
		cfg.MinReconnectWait = time.Second
	}
	if cfg.MaxReconnectWait <= 0 {
		cfg.MaxReconnectWait = 30 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 90 * time.Second
	}

	pl := pq.NewListener(dsn, cfg.MinReconnectWait, cfg.MaxReconnectWait, logListenerEvent)
	if err := pl.Listen(cfg.Channel); err != nil {
		_ = pl.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", cfg.Channel, err)
	}

	return &Listener{
		cfg:  cfg,
		pl:   pl,
		noti: pl.Notify,
		ping: pl.Ping,
		hub:  pub,
		sink: sink,
	}, nil
}

func logListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		logger.Log.Info("change feed connected")
	case pq.ListenerEventDisconnected:
		logger.Log.Warn("change feed disconnected", zap.Error(err))
	case pq.ListenerEventReconnected:
		logger.Log.Info("change feed reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		logger.Log.Warn("change feed reconnect attempt failed", zap.Error(err))
	}
}

// Run consumes notifications until ctx is cancelled. It is a pure
// decode-and-forward stage: no buffering, no batching, no dedup.
func (l *Listener) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case n, ok := <-l.noti:
			if !ok {
				return nil
			}
			if n == nil {
				// pq signals a re-established connection with a nil
				// notification; anything committed in between is lost.
				logger.Log.Warn("change feed resumed after reconnect, events during outage were not replayed")
				continue
			}
			l.dispatch(ctx, []byte(n.Extra))

		case <-ticker.C:
			if l.ping == nil {
				continue
			}
			if err := l.ping(); err != nil {
				// pq.Listener reconnects on its own; the ping just
				// surfaces dead connections early.
				logger.Log.Warn("change feed ping failed", zap.Error(err))
			}
		}
	}
}

// dispatch decodes one raw payload and fans it out. A malformed payload
// is dropped without disturbing the loop.
func (l *Listener) dispatch(ctx context.Context, payload []byte) {
	ev, err := model.DecodeChangeEvent(payload)
	if err != nil {
		metrics.DecodeFailuresTotal.Inc()
		logger.Log.Error("dropping malformed notification",
			zap.ByteString("payload", payload), zap.Error(err))
		return
	}

	metrics.ChangeEventsTotal.WithLabelValues(ev.Op.String()).Inc()
	l.hub.Publish(ev)

	if l.sink != nil {
		if err := l.sink.Publish(ctx, ev); err != nil {
			metrics.SinkFailuresTotal.Inc()
			logger.Log.Error("sink publish failed", zap.Int64("order_id", ev.ID), zap.Error(err))
		}
	}
}

// Close tears down the subscription connection.
func (l *Listener) Close() error {
	if l.pl == nil {
		return nil
	}
	return l.pl.Close()
}
