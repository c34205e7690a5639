package landmark

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/okieraised/fatigue-agent/internal/cerrors"
	"github.com/okieraised/fatigue-agent/internal/vision"
	"github.com/pkg/errors"
)

// detectRequest announces the binary luma plane that follows it on the wire.
type detectRequest struct {
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// detectResponse is the inference result for one frame.
type detectResponse struct {
	Seq        uint64       `json:"seq"`
	Detected   bool         `json:"detected"`
	Points     [][3]float64 `json:"points"`
	Confidence float64      `json:"confidence"`
	BoxWidth   float64      `json:"box_width"`
	BoxHeight  float64      `json:"box_height"`
}

// RemoteProvider talks to the face-mesh inference sidecar over a websocket:
// one JSON header plus one binary frame out, one JSON result back. It is not
// safe for concurrent use; the pipeline's processing stage is its only
// caller. A failed exchange closes the connection and the next Detect
// redials, so a sidecar restart costs one degraded sample, not the session.
type RemoteProvider struct {
	endpoint         string
	handshakeTimeout time.Duration
	detectTimeout    time.Duration
	conn             *websocket.Conn
}

func NewRemoteProvider(endpoint string, handshakeTimeout, detectTimeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		endpoint:         endpoint,
		handshakeTimeout: handshakeTimeout,
		detectTimeout:    detectTimeout,
	}
}

func (p *RemoteProvider) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: p.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, p.endpoint, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to dial landmark provider at %s", p.endpoint)
	}
	p.conn = conn
	return nil
}

func (p *RemoteProvider) Detect(ctx context.Context, frame *vision.Frame) (*Set, error) {
	if p.conn == nil {
		if err := p.dial(ctx); err != nil {
			return nil, cerrors.ErrLandmarkProvider.WithCause(err)
		}
	}

	set, err := p.exchange(frame)
	if err != nil {
		p.drop()
		return nil, cerrors.ErrLandmarkProvider.WithCause(err)
	}
	return set, nil
}

func (p *RemoteProvider) exchange(frame *vision.Frame) (*Set, error) {
	deadline := time.Now().Add(p.detectTimeout)
	if err := p.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}

	header, err := json.Marshal(detectRequest{Seq: frame.Seq, Width: frame.Width, Height: frame.Height})
	if err != nil {
		return nil, err
	}
	if err = p.conn.WriteMessage(websocket.TextMessage, header); err != nil {
		return nil, errors.Wrap(err, "failed to send detect header")
	}
	if err = p.conn.WriteMessage(websocket.BinaryMessage, frame.Data); err != nil {
		return nil, errors.Wrap(err, "failed to send frame data")
	}

	if err = p.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	var resp detectResponse
	if err = p.conn.ReadJSON(&resp); err != nil {
		return nil, errors.Wrap(err, "failed to read detect response")
	}
	if !resp.Detected {
		return nil, nil
	}

	points := make([]Point, len(resp.Points))
	for i, pt := range resp.Points {
		points[i] = Point{X: pt[0], Y: pt[1], Z: pt[2]}
	}
	return &Set{
		Points:     points,
		Confidence: resp.Confidence,
		BoxWidth:   resp.BoxWidth,
		BoxHeight:  resp.BoxHeight,
		Seq:        resp.Seq,
	}, nil
}

func (p *RemoteProvider) drop() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *RemoteProvider) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	p.drop()
	return err
}
