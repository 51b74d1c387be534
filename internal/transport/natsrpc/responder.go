package natsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
}

// ResponderConfig names the subject the responder serves.
type ResponderConfig struct {
	Subject    string
	QueueGroup string
	Timeout    time.Duration
}

// Responder answers scheduling requests arriving on a NATS subject. Members
// of the same queue group share the load.
type Responder struct {
	conn      *nats.Conn
	generator timetableGenerator
	cfg       ResponderConfig
	logger    *zap.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewResponder constructs a responder.
func NewResponder(conn *nats.Conn, generator timetableGenerator, cfg ResponderConfig, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Responder{conn: conn, generator: generator, cfg: cfg, logger: logger}
}

// Start subscribes to the configured subject. Requests are served until ctx
// is done or Stop is called.
func (r *Responder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}
	sub, err := r.conn.QueueSubscribe(r.cfg.Subject, r.cfg.QueueGroup, func(msg *nats.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
		if id := msg.Header.Get(requestid.Header); id != "" {
			reqCtx = requestid.NewContext(reqCtx, id)
		}
		reply := r.handle(reqCtx, msg.Data)
		if err := msg.Respond(reply); err != nil {
			r.logger.Warn("nats reply failed", zap.String("subject", msg.Subject), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.cfg.Subject, err)
	}
	r.sub = sub
	r.logger.Info("nats responder listening", zap.String("subject", r.cfg.Subject), zap.String("queue", r.cfg.QueueGroup))
	return nil
}

// Stop drains the subscription, waiting up to the request timeout for
// in-flight requests to be answered.
func (r *Responder) Stop() error {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()
	if sub == nil {
		return nil
	}
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", r.cfg.Subject, err)
	}
	deadline := time.Now().Add(r.cfg.Timeout)
	for sub.IsValid() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

// handle turns one request payload into exactly one response payload.
func (r *Responder) handle(ctx context.Context, data []byte) []byte {
	var req dto.GenerateTimetableRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeResponse(&dto.TimetableResponse{Success: false, Error: "invalid timetable payload: " + err.Error()})
	}

	resp, err := r.generator.Generate(ctx, req)
	if err != nil {
		appErr := appErrors.FromError(err)
		log := r.logger.Warn
		if appErrors.HasCode(err, appErrors.ErrValidation.Code) {
			log = r.logger.Debug
		}
		log("nats timetable request failed", zap.String("code", appErr.Code), zap.Error(err))
		return encodeResponse(&dto.TimetableResponse{Success: false, Error: appErr.Message})
	}
	return encodeResponse(resp)
}

func encodeResponse(resp *dto.TimetableResponse) []byte {
	payload, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"success":false,"error":"unexpected scheduler failure"}`)
	}
	return payload
}
