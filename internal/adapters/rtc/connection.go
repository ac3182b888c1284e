package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Attend/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// ControlLabel is the data channel the host opens toward each peer.
const ControlLabel = "attend-control"

// WebRTCConnection implements core.MediaConnection on a pion PeerConnection.
// Capture and rendering stay outside; this only negotiates the path and
// carries a small control channel once it is up.
type WebRTCConnection struct {
	pc     *webrtc.PeerConnection
	remote core.ConnID
	cancel context.CancelFunc

	mu       sync.Mutex
	dc       *webrtc.DataChannel
	onICE    func(json.RawMessage)
	onReady  func()
	onClosed func()
	onHello  func(Hello)
	hello    *Hello
	// Candidates can arrive before the offer or answer they belong to.
	remoteSet bool
	pending   []webrtc.ICECandidateInit

	closed    atomic.Bool
	closeOnce sync.Once
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func NewWebRTCConnection(cfg webrtc.Configuration, remote core.ConnID) (*WebRTCConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return &WebRTCConnection{pc: pc, remote: remote}, nil
}

// Factory returns a core.MediaFactory that introduces the local side with hello.
func Factory(cfg webrtc.Configuration, hello Hello) core.MediaFactory {
	return func(remote core.ConnID) (core.MediaConnection, error) {
		c, err := NewWebRTCConnection(cfg, remote)
		if err != nil {
			return nil, err
		}
		c.SetHello(hello)
		return c, nil
	}
}

func (c *WebRTCConnection) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "webrtc").Str("remote", string(c.remote)).Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateFailed || s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "webrtc").Str("remote", string(c.remote)).Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateClosed {
			cancel()
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		raw, err := json.Marshal(cand.ToJSON())
		if err != nil {
			return
		}
		c.mu.Lock()
		fn := c.onICE
		c.mu.Unlock()
		if fn != nil {
			fn(raw)
		}
	})

	// The answering side receives the control channel instead of creating it.
	c.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == ControlLabel {
			c.bindControl(dc)
		}
	})
	return nil
}

func (c *WebRTCConnection) bindControl(dc *webrtc.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.mu.Unlock()

	dc.OnOpen(func() {
		log.Info().Str("module", "webrtc").Str("remote", string(c.remote)).Msg("control channel open")
		c.mu.Lock()
		hello, ready := c.hello, c.onReady
		c.mu.Unlock()
		if hello != nil {
			if data, err := EncodeHello(*hello); err == nil {
				_ = dc.Send(data)
			}
		}
		if ready != nil {
			ready()
		}
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		h, err := DecodeHello(msg.Data)
		if err != nil {
			log.Warn().Err(err).Str("module", "webrtc").Msg("bad control message")
			return
		}
		log.Info().Str("module", "webrtc").Str("remote", string(c.remote)).Str("name", h.Name).Str("role", h.Role).Msg("hello")
		c.mu.Lock()
		fn := c.onHello
		c.mu.Unlock()
		if fn != nil {
			fn(h)
		}
	})
}

func (c *WebRTCConnection) CreateOffer() (json.RawMessage, error) {
	dc, err := c.pc.CreateDataChannel(ControlLabel, nil)
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	c.bindControl(dc)

	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return json.Marshal(c.pc.LocalDescription())
}

func (c *WebRTCConnection) ApplyOffer(raw json.RawMessage) (json.RawMessage, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &offer); err != nil {
		return nil, fmt.Errorf("parse offer: %w", err)
	}
	if offer.Type != webrtc.SDPTypeOffer {
		return nil, fmt.Errorf("expected offer, got %s", offer.Type)
	}
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}
	c.flushCandidates()
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return json.Marshal(c.pc.LocalDescription())
}

func (c *WebRTCConnection) ApplyAnswer(raw json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &answer); err != nil {
		return fmt.Errorf("parse answer: %w", err)
	}
	if answer.Type != webrtc.SDPTypeAnswer {
		return fmt.Errorf("expected answer, got %s", answer.Type)
	}
	if err := c.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	c.flushCandidates()
	return nil
}

func (c *WebRTCConnection) AddCandidate(raw json.RawMessage) error {
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &ci); err != nil {
		return fmt.Errorf("parse candidate: %w", err)
	}
	c.mu.Lock()
	if !c.remoteSet {
		c.pending = append(c.pending, ci)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.pc.AddICECandidate(ci)
}

// flushCandidates applies candidates queued before the remote description.
func (c *WebRTCConnection) flushCandidates() {
	c.mu.Lock()
	c.remoteSet = true
	queued := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, ci := range queued {
		if err := c.pc.AddICECandidate(ci); err != nil {
			log.Warn().Err(err).Str("module", "webrtc").Str("remote", string(c.remote)).Msg("queued candidate rejected")
		}
	}
}

func (c *WebRTCConnection) pendingCandidates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *WebRTCConnection) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.cancel != nil {
			c.cancel()
		}
		if err := c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "webrtc").Str("remote", string(c.remote)).Msg("close error")
		} else {
			log.Info().Str("module", "webrtc").Str("remote", string(c.remote)).Msg("closed")
		}
		c.mu.Lock()
		fn := c.onClosed
		c.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

func (c *WebRTCConnection) IsClosed() bool { return c.closed.Load() }

func (c *WebRTCConnection) OnCandidate(fn func(json.RawMessage)) {
	c.mu.Lock()
	c.onICE = fn
	c.mu.Unlock()
}

func (c *WebRTCConnection) OnReady(fn func()) {
	c.mu.Lock()
	c.onReady = fn
	c.mu.Unlock()
}

// OnClosed sets application-level callback for cleanup.
func (c *WebRTCConnection) OnClosed(fn func()) {
	c.mu.Lock()
	c.onClosed = fn
	c.mu.Unlock()
}

// SetHello sets what this side announces once the control channel opens.
func (c *WebRTCConnection) SetHello(h Hello) {
	c.mu.Lock()
	c.hello = &h
	c.mu.Unlock()
}

func (c *WebRTCConnection) OnHello(fn func(Hello)) {
	c.mu.Lock()
	c.onHello = fn
	c.mu.Unlock()
}
