package natsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// Client submits scheduling requests to a remote responder.
type Client struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewClient constructs a client for subject.
func NewClient(conn *nats.Conn, subject string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{conn: conn, subject: subject, timeout: timeout}
}

// Generate sends one request and waits for its single reply. The request ID
// carried by ctx, or a fresh one, travels in the message header.
func (c *Client) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode timetable request: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	out := nats.NewMsg(c.subject)
	out.Data = payload
	out.Header.Set(requestid.Header, reqID)

	msg, err := c.conn.RequestMsgWithContext(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", c.subject, err)
	}
	var resp dto.TimetableResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("decode timetable response: %w", err)
	}
	return &resp, nil
}
