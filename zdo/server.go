package zdo

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
)

// coordinatorEndpoint and homeAutomationProfileID are the fixed answer
// this core gives to a Match_Desc_req about itself: a
// single endpoint advertising the Home Automation profile, with no input
// or output clusters of its own (everything it does is client-side).
const (
	coordinatorEndpoint = types.EndpointID(1)
	homeAutomationProfileID = uint16(0x0104)
)

// Server is the inbound half of the ZDO command set: packets the radio
// delivers to endpoint 0, whether a reply this Client is waiting on or a
// request a remote node is making of the coordinator.
type Server struct {
	sender    Sender
	devices   DeviceProvider
	coord     CoordinatorProvider
	joins     JoinHandler
	discovery *concurrency.Correlator
	bus       *events.EventBus
	log       zerolog.Logger
}

// NewServer wires the inbound dispatcher to the same sender/device table
// Client uses, plus the join and coordinator-identity seams into
// Controller. discovery must be the same correlator passed to NewClient.
func NewServer(sender Sender, devices DeviceProvider, coord CoordinatorProvider, joins JoinHandler, discovery *concurrency.Correlator, bus *events.EventBus) *Server {
	return &Server{sender: sender, devices: devices, coord: coord, joins: joins, discovery: discovery, bus: bus, log: logging.For("zdo")}
}

// HandlePacket is the ZDOHandler Controller.OnZDOPacket registers. It
// first gives every pending Client request a chance to claim the frame by
// TSN; anything left over is treated as an inbound request for this
// coordinator to answer.
func (s *Server) HandlePacket(pkt transport.ZigbeePacket) {
	if len(pkt.Data) < 1 {
		s.log.Debug().Msg("empty zdo frame, dropping")
		return
	}
	tsn := pkt.Data[0]
	body := pkt.Data[1:]
	cmd := CommandID(pkt.ClusterID)

	srcNWK := pkt.Src.NWK()
	if dev, ok := s.devices.DeviceByNWK(srcNWK); ok {
		if dev.Correlator.Pending(tsn) {
			dev.Correlator.Resolve(tsn, concurrency.Result{Payload: body})
			return
		}
	} else if s.discovery.Pending(tsn) {
		s.discovery.Resolve(tsn, concurrency.Result{Payload: body})
		return
	}

	ctx := context.Background()
	switch cmd {
	case DeviceAnnce:
		s.handleDeviceAnnce(ctx, body)
	case NWKAddrReq:
		s.handleNWKAddrReq(ctx, pkt, body)
	case IEEEAddrReq:
		s.handleIEEEAddrReq(ctx, pkt, body)
	case MatchDescReq:
		s.handleMatchDescReq(ctx, pkt, body)
	case MgmtPermitJoiningReq:
		s.handleMgmtPermitJoiningReq(body)
	default:
		s.log.Debug().Str("command", cmd.Name()).Msg("zdo command recognized but not handled, dropping")
	}
}

func (s *Server) handleDeviceAnnce(ctx context.Context, body []byte) {
	annce, err := DeserializeDeviceAnnce(body)
	if err != nil {
		s.log.Debug().Err(err).Msg("malformed device_annce, dropping")
		return
	}
	if s.joins != nil {
		s.joins.HandleJoin(ctx, annce.NWK, annce.IEEE, 0)
	}
}

func (s *Server) handleNWKAddrReq(_ context.Context, pkt transport.ZigbeePacket, body []byte) {
	req, err := DeserializeNWKAddrReq(body)
	if err != nil {
		s.log.Debug().Err(err).Msg("malformed nwk_addr_req, dropping")
		return
	}
	node, _ := s.coord.CoordinatorInfo()
	if req.IEEE != node.IEEE {
		return
	}
	rsp := AddrRsp{Status: NewStatus(StatusSuccess), IEEE: node.IEEE, NWK: node.NWK}
	s.reply(pkt, NWKAddrRsp, SerializeNWKAddrRsp(rsp))
}

func (s *Server) handleIEEEAddrReq(_ context.Context, pkt transport.ZigbeePacket, body []byte) {
	req, err := DeserializeIEEEAddrReq(body)
	if err != nil {
		s.log.Debug().Err(err).Msg("malformed ieee_addr_req, dropping")
		return
	}
	node, _ := s.coord.CoordinatorInfo()
	if req.NWKAddrOfInterest != node.NWK {
		return
	}
	rsp := AddrRsp{Status: NewStatus(StatusSuccess), IEEE: node.IEEE, NWK: node.NWK}
	s.reply(pkt, IEEEAddrRsp, SerializeIEEEAddrRsp(rsp))
}

// handleMatchDescReq answers every inbound query about the coordinator
// itself with a single fixed endpoint: this core exposes no server-side
// application clusters of its own, so it matches Home Automation profile
// queries at endpoint 1 and nothing else.
func (s *Server) handleMatchDescReq(_ context.Context, pkt transport.ZigbeePacket, body []byte) {
	req, err := DeserializeMatchDescReq(body)
	if err != nil {
		s.log.Debug().Err(err).Msg("malformed match_desc_req, dropping")
		return
	}
	node, _ := s.coord.CoordinatorInfo()
	if req.NWKAddrOfInterest != node.NWK {
		return
	}
	rsp := MatchDescRspBody{Status: NewStatus(StatusSuccess), NWKAddrOfInterest: node.NWK}
	if req.ProfileID == homeAutomationProfileID {
		rsp.MatchList = []types.EndpointID{coordinatorEndpoint}
	}
	s.reply(pkt, MatchDescRsp, SerializeMatchDescRsp(rsp))
}

func (s *Server) handleMgmtPermitJoiningReq(body []byte) {
	req, err := DeserializeMgmtPermitJoiningReq(body)
	if err != nil {
		s.log.Debug().Err(err).Msg("malformed mgmt_permit_joining_req, dropping")
		return
	}
	if s.bus != nil {
		s.bus.Publish(events.NewPermitJoinChangedEvent(time.Duration(req.PermitDuration) * time.Second))
	}
}

// reply fires a fire-and-forget response frame, reusing the inbound
// packet's TSN (the Zigbee convention for a ZDO request/response pair)
// rather than allocating a fresh one from the shared counter.
func (s *Server) reply(pkt transport.ZigbeePacket, cmd CommandID, body []byte) {
	frame := append([]byte{pkt.Data[0]}, body...)
	if err := s.sender.SendRaw(context.Background(), pkt.Src.NWK(), cmd.ClusterID(), frame); err != nil {
		s.log.Debug().Err(err).Str("command", cmd.Name()).Msg("failed to send zdo reply")
	}
}
