package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tj-smith47/zigbee-core/types"
)

// ConnectionState mirrors the lifecycle a Socket radio moves through.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// socketFrame is the envelope multiplexing packet ingress/egress and
// control-plane request/response pairs over one connection.
type socketFrame struct {
	Error   string          `json:"error,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Packet  *ZigbeePacket   `json:"packet,omitempty"`
	ID      int64           `json:"id,omitempty"`
}

// Socket is a Radio implementation that speaks to a remote radio host
// (e.g. a network-attached coordinator, or a companion process bridging a
// local NCP) over a WebSocket connection. It multiplexes control-plane
// requests (form_network, load_network_info, ...) and packet frames on the
// one connection, and reconnects automatically on an unexpected drop.
type Socket struct {
	opts     *options
	url      string
	conn     *websocket.Conn
	connMu   sync.Mutex
	pending  map[int64]chan socketFrame
	pendingMu sync.Mutex
	requestID atomic.Int64
	handler  PacketHandler
	handlerMu sync.RWMutex
	stopPing chan struct{}
	stateMu  sync.RWMutex
	state    ConnectionState
	closed   atomic.Bool
}

// NewSocket builds a Socket radio dialing url on Connect.
func NewSocket(url string, opts ...Option) *Socket {
	o := defaultOptions()
	applyOptions(o, opts)
	return &Socket{
		url:     url,
		opts:    o,
		pending: make(map[int64]chan socketFrame),
	}
}

func (s *Socket) setState(state ConnectionState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

func (s *Socket) State() ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Socket) OnPacket(handler PacketHandler) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func (s *Socket) Connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed.Load() {
		return fmt.Errorf("transport: socket is closed")
	}
	if s.conn != nil {
		return nil
	}

	s.setState(StateConnecting)
	dialer := websocket.Dialer{HandshakeTimeout: s.opts.timeout}
	conn, resp, err := dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("transport: socket dial: %w", err)
	}

	s.conn = conn
	s.stopPing = make(chan struct{})
	s.setState(StateConnected)

	go s.readLoop()
	if s.opts.pingInterval > 0 {
		go s.pingLoop()
	}
	return nil
}

func (s *Socket) Disconnect(ctx context.Context) error {
	s.closed.Store(true)
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.setState(StateDisconnected)
	return err
}

func (s *Socket) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		if err := s.Connect(ctx); err != nil {
			return nil, err
		}
		s.connMu.Lock()
		conn = s.conn
		s.connMu.Unlock()
	}

	id := s.requestID.Add(1)
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal %s params: %w", method, err)
	}
	frame := socketFrame{ID: id, Method: method, Params: raw}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal %s frame: %w", method, err)
	}

	respCh := make(chan socketFrame, 1)
	s.pendingMu.Lock()
	s.pending[id] = respCh
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	s.connMu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, data)
	s.connMu.Unlock()
	if writeErr != nil {
		return nil, fmt.Errorf("transport: write %s: %w", method, writeErr)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp, ok := <-respCh:
		if !ok {
			return nil, ErrNotConnected
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("transport: %s: %s", method, resp.Error)
		}
		return resp.Result, nil
	}
}

func (s *Socket) FormNetwork(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	_, err := s.call(ctx, "form_network", map[string]any{"node": node, "network": network})
	return err
}

func (s *Socket) LoadNetworkInfo(ctx context.Context, loadDevices bool) (types.NodeInfo, types.NetworkInfo, error) {
	raw, err := s.call(ctx, "load_network_info", map[string]any{"load_devices": loadDevices})
	if err != nil {
		return types.NodeInfo{}, types.NetworkInfo{}, err
	}
	var out struct {
		Node    types.NodeInfo    `json:"node"`
		Network types.NetworkInfo `json:"network"`
		Formed  bool              `json:"formed"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return types.NodeInfo{}, types.NetworkInfo{}, fmt.Errorf("transport: decode load_network_info: %w", err)
	}
	if !out.Formed {
		return types.NodeInfo{}, types.NetworkInfo{}, ErrNetworkNotFormed
	}
	return out.Node, out.Network, nil
}

func (s *Socket) WriteNetworkInfo(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	_, err := s.call(ctx, "write_network_info", map[string]any{"node": node, "network": network})
	return err
}

func (s *Socket) SendPacket(ctx context.Context, pkt ZigbeePacket) (Result, error) {
	raw, err := s.call(ctx, "send_packet", pkt)
	if err != nil {
		return Result{}, err
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("transport: decode send_packet result: %w", err)
	}
	return res, nil
}

func (s *Socket) PermitNCP(ctx context.Context, duration time.Duration) error {
	_, err := s.call(ctx, "permit_ncp", map[string]any{"seconds": int(duration.Seconds())})
	return err
}

func (s *Socket) BuildSourceRouteTo(ctx context.Context, ieee types.IEEEAddress) ([]types.NWKAddress, error) {
	raw, err := s.call(ctx, "build_source_route_to", map[string]any{"ieee": ieee.String()})
	if err != nil {
		return nil, err
	}
	var route []types.NWKAddress
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, fmt.Errorf("transport: decode source route: %w", err)
	}
	return route, nil
}

func (s *Socket) readLoop() {
	for {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.handleDisconnect()
			return
		}
		s.handleMessage(message)
	}
}

func (s *Socket) handleMessage(message []byte) {
	var frame socketFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return
	}
	if frame.Packet != nil {
		s.handlerMu.RLock()
		handler := s.handler
		s.handlerMu.RUnlock()
		if handler != nil {
			handler(*frame.Packet)
		}
		return
	}
	if frame.ID != 0 {
		s.pendingMu.Lock()
		if ch, ok := s.pending[frame.ID]; ok {
			select {
			case ch <- frame:
			default:
			}
		}
		s.pendingMu.Unlock()
	}
}

func (s *Socket) pingLoop() {
	ticker := time.NewTicker(s.opts.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopPing:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.pongTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *Socket) handleDisconnect() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	select {
	case <-s.stopPing:
	default:
		close(s.stopPing)
	}

	s.pendingMu.Lock()
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()

	s.setState(StateDisconnected)
	if s.opts.reconnect && !s.closed.Load() {
		go s.reconnectLoop()
	}
}

func (s *Socket) reconnectLoop() {
	delay := s.opts.retryDelay
	for attempt := 0; attempt < s.opts.maxRetries; attempt++ {
		if s.closed.Load() {
			return
		}
		s.setState(StateReconnecting)
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
		err := s.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(delay)
		delay = time.Duration(float64(delay) * s.opts.retryBackoff)
	}
}
