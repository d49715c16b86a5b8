package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
)

// SendHandler computes the Result (and optional error) a MockRadio reports
// back for one SendPacket call against a given cluster id.
type SendHandler func(pkt transport.ZigbeePacket) (transport.Result, error)

// MockRadio is a mock implementation of transport.Radio for testing. It
// records every outbound packet and, by default, reports delivery success;
// register a SendHandler with OnSend to script a failure or a specific
// Result for a given cluster id.
type MockRadio struct {
	node    types.NodeInfo
	network types.NetworkInfo
	handler transport.PacketHandler

	mu        sync.RWMutex
	sent      []transport.ZigbeePacket
	handlers  map[types.ClusterID]SendHandler
	connected bool
}

// NewMockRadio creates a mock radio with no network state loaded.
func NewMockRadio() *MockRadio {
	return &MockRadio{handlers: make(map[types.ClusterID]SendHandler)}
}

// WithNetworkInfo preloads the node/network info LoadNetworkInfo returns.
func (r *MockRadio) WithNetworkInfo(node types.NodeInfo, network types.NetworkInfo) *MockRadio {
	r.node = node
	r.network = network
	return r
}

// OnSend registers a handler for packets addressed to clusterID.
func (r *MockRadio) OnSend(clusterID types.ClusterID, handler SendHandler) *MockRadio {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[clusterID] = handler
	return r
}

// Deliver feeds pkt to the registered PacketHandler as if the radio had
// received it, letting a test simulate an inbound frame.
func (r *MockRadio) Deliver(pkt transport.ZigbeePacket) {
	r.mu.RLock()
	handler := r.handler
	r.mu.RUnlock()
	if handler != nil {
		handler(pkt)
	}
}

// Sent returns every packet passed to SendPacket, in send order.
func (r *MockRadio) Sent() []transport.ZigbeePacket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]transport.ZigbeePacket, len(r.sent))
	copy(out, r.sent)
	return out
}

// LastSent returns the most recently sent packet, or false if none.
func (r *MockRadio) LastSent() (transport.ZigbeePacket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.sent) == 0 {
		return transport.ZigbeePacket{}, false
	}
	return r.sent[len(r.sent)-1], true
}

func (r *MockRadio) Connect(ctx context.Context) error {
	r.mu.Lock()
	r.connected = true
	r.mu.Unlock()
	return nil
}

func (r *MockRadio) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	r.connected = false
	r.mu.Unlock()
	return nil
}

func (r *MockRadio) FormNetwork(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	r.mu.Lock()
	r.node, r.network = node, network
	r.mu.Unlock()
	return nil
}

func (r *MockRadio) LoadNetworkInfo(ctx context.Context, loadDevices bool) (types.NodeInfo, types.NetworkInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.node, r.network, nil
}

func (r *MockRadio) WriteNetworkInfo(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	r.mu.Lock()
	r.node, r.network = node, network
	r.mu.Unlock()
	return nil
}

func (r *MockRadio) SendPacket(ctx context.Context, pkt transport.ZigbeePacket) (transport.Result, error) {
	r.mu.Lock()
	r.sent = append(r.sent, pkt)
	handler, ok := r.handlers[pkt.ClusterID]
	r.mu.Unlock()

	if !ok {
		return transport.Result{Delivered: true}, nil
	}
	return handler(pkt)
}

func (r *MockRadio) PermitNCP(ctx context.Context, duration time.Duration) error {
	return nil
}

func (r *MockRadio) BuildSourceRouteTo(ctx context.Context, ieee types.IEEEAddress) ([]types.NWKAddress, error) {
	return nil, nil
}

func (r *MockRadio) OnPacket(handler transport.PacketHandler) {
	r.mu.Lock()
	r.handler = handler
	r.mu.Unlock()
}

// WasSentTo reports whether any recorded packet targeted clusterID.
func (r *MockRadio) WasSentTo(clusterID types.ClusterID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pkt := range r.sent {
		if pkt.ClusterID == clusterID {
			return true
		}
	}
	return false
}

var _ transport.Radio = (*MockRadio)(nil)
