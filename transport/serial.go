package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/tj-smith47/zigbee-core/types"
)

// Serial is a Radio implementation that speaks to a locally attached NCP
// (network co-processor) over a UART, framing control requests and packet
// ingress as newline-delimited JSON records.
type Serial struct {
	opts      *options
	port      string
	conn      serial.Port
	connMu    sync.Mutex
	pending   map[int64]chan socketFrame
	pendingMu sync.Mutex
	requestID atomic.Int64
	handler   PacketHandler
	handlerMu sync.RWMutex
	closed    atomic.Bool
}

// NewSerial builds a Serial radio that will open portName on Connect.
func NewSerial(portName string, opts ...Option) *Serial {
	o := defaultOptions()
	applyOptions(o, opts)
	return &Serial{
		port:    portName,
		opts:    o,
		pending: make(map[int64]chan socketFrame),
	}
}

func (s *Serial) OnPacket(handler PacketHandler) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func (s *Serial) Connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed.Load() {
		return fmt.Errorf("transport: serial is closed")
	}
	if s.conn != nil {
		return nil
	}

	mode := &serial.Mode{BaudRate: s.opts.baudRate}
	conn, err := serial.Open(s.port, mode)
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", s.port, err)
	}
	s.conn = conn
	go s.readLoop(conn)
	return nil
}

func (s *Serial) Disconnect(ctx context.Context) error {
	s.closed.Store(true)
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Serial) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
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
	data, err := json.Marshal(socketFrame{ID: id, Method: method, Params: raw})
	if err != nil {
		return nil, fmt.Errorf("transport: marshal %s frame: %w", method, err)
	}
	data = append(data, '\n')

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
	_, writeErr := conn.Write(data)
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

func (s *Serial) FormNetwork(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	_, err := s.call(ctx, "form_network", map[string]any{"node": node, "network": network})
	return err
}

func (s *Serial) LoadNetworkInfo(ctx context.Context, loadDevices bool) (types.NodeInfo, types.NetworkInfo, error) {
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

func (s *Serial) WriteNetworkInfo(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	_, err := s.call(ctx, "write_network_info", map[string]any{"node": node, "network": network})
	return err
}

func (s *Serial) SendPacket(ctx context.Context, pkt ZigbeePacket) (Result, error) {
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

func (s *Serial) PermitNCP(ctx context.Context, duration time.Duration) error {
	_, err := s.call(ctx, "permit_ncp", map[string]any{"seconds": int(duration.Seconds())})
	return err
}

func (s *Serial) BuildSourceRouteTo(ctx context.Context, ieee types.IEEEAddress) ([]types.NWKAddress, error) {
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

func (s *Serial) readLoop(conn serial.Port) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var frame socketFrame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			continue
		}
		if frame.Packet != nil {
			s.handlerMu.RLock()
			handler := s.handler
			s.handlerMu.RUnlock()
			if handler != nil {
				handler(*frame.Packet)
			}
			continue
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
}
