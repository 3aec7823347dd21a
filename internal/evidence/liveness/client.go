// Package liveness drives a challenge session on the remote liveness
// service over WebSocket.
package liveness

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"strings"

	"github.com/gorilla/websocket"

	"verity/internal/evidence"
)

const sessionPath = "/ws/liveness"

type frameMessage struct {
	Image string `json:"image"`
}

type stateMessage struct {
	State         string  `json:"state"`
	Challenge     string  `json:"challenge"`
	RemainingTime float64 `json:"remaining_time"`
	Verified      bool    `json:"verified"`
}

// Client streams camera frames to the liveness service.
type Client struct {
	baseURL string
	dialer  *websocket.Dialer
	guard   *evidence.Guard
}

// New creates a liveness client for a ws:// or wss:// base URL.
// An empty baseURL disables it.
func New(baseURL string, guard *evidence.Guard) *Client {
	if guard == nil {
		guard = evidence.NewGuard(evidence.CollaboratorLiveness)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		guard:   guard,
	}
}

func (c *Client) Name() string         { return evidence.CollaboratorLiveness }
func (c *Client) Endpoint() string     { return c.baseURL }
func (c *Client) Enabled() bool        { return c.baseURL != "" }
func (c *Client) CircuitState() string { return c.guard.CircuitState().String() }

// Verify sends frames one at a time and reads the session state after each.
// The session ends early on SUCCESS or FAILED; otherwise the last reported
// state is returned.
func (c *Client) Verify(ctx context.Context, frames [][]byte) (evidence.LivenessResult, error) {
	if !c.Enabled() {
		return evidence.LivenessResult{}, evidence.NewError(evidence.ErrorNotConfigured, c.Name(), "liveness service not configured", nil)
	}
	if len(frames) == 0 {
		return evidence.LivenessResult{}, evidence.NewError(evidence.ErrorBadData, c.Name(), "no frames", nil)
	}

	var result evidence.LivenessResult
	err := c.guard.Call(ctx, func(ctx context.Context) error {
		conn, _, err := c.dialer.DialContext(ctx, c.baseURL+sessionPath, nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(deadline)
			_ = conn.SetWriteDeadline(deadline)
		}
		// unblock reads when the caller cancels
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		result = evidence.LivenessResult{Available: true}
		for _, frame := range frames {
			if err := conn.WriteJSON(frameMessage{Image: base64.StdEncoding.EncodeToString(frame)}); err != nil {
				return wrapIOErr(ctx, err)
			}
			result.FramesSent++

			var msg stateMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return wrapIOErr(ctx, err)
			}
			result.State = msg.State
			result.Challenge = msg.Challenge
			result.Verified = msg.Verified

			if msg.State == evidence.LivenessSuccess || msg.State == evidence.LivenessFailed {
				break
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	})
	if err != nil {
		return evidence.LivenessResult{}, err
	}
	return result, nil
}

// Probe opens and closes a session.
func (c *Client) Probe(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.baseURL+sessionPath, nil)
	if err != nil {
		return err
	}
	return conn.Close()
}

// wrapIOErr reports a deadline hit during the session as a timeout.
func wrapIOErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return evidence.NewError(evidence.ErrorTimeout, evidence.CollaboratorLiveness, "session timed out", ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return evidence.NewError(evidence.ErrorTimeout, evidence.CollaboratorLiveness, "session timed out", err)
	}
	return evidence.NewError(evidence.ErrorSessionFailure, evidence.CollaboratorLiveness, "session failed", err)
}
