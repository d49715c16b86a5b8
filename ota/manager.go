package ota

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// SenderProvider hands back the cluster.Sender for a specific device;
// satisfied structurally by *controller.Controller via ZCLSenderFor.
type SenderProvider interface {
	ZCLSenderFor(dev *device.Device) cluster.Sender
}

// Manager runs the server side of the OTA upgrade cluster for every device
// in play: at most one session per device, backed by an Index of images
// this core is willing to offer.
type Manager struct {
	senders SenderProvider
	index   *Index
	opts    *options
	log     zerolog.Logger

	mu        sync.Mutex
	sessions  map[types.IEEEAddress]*session
	watchdogs errgroup.Group
}

// NewManager builds a Manager. senders is almost always the owning
// Controller; index is shared and may keep growing after construction.
func NewManager(senders SenderProvider, index *Index, opts ...Option) *Manager {
	return &Manager{
		senders:  senders,
		index:    index,
		opts:     applyOptions(opts),
		log:      logging.For("ota"),
		sessions: make(map[types.IEEEAddress]*session),
	}
}

// otaEndpoint finds the endpoint on dev whose discovered output clusters
// include the OTA cluster, the one image_notify and its replies go through.
func otaEndpoint(dev *device.Device) (types.EndpointID, bool) {
	for id, ep := range dev.Endpoints {
		if _, ok := ep.Output[ClusterID]; ok {
			return id, true
		}
	}
	return 0, false
}

// UpdateFirmware starts an upgrade session against dev for the image
// matching key, sends image_notify, and blocks until the session reaches a
// terminal status (ctx cancellation does not end the session itself, only
// this call's wait). A device declining the offered image resolves with
// NO_IMAGE_AVAILABLE, not an error; force skips the hardware-version/current-
// version gate a query_next_image would otherwise apply.
func (m *Manager) UpdateFirmware(ctx context.Context, dev *device.Device, key ImageKey, force bool) (types.Status, error) {
	img, ok := m.index.Lookup(key.ManufacturerCode, key.ImageType, key.Model)
	if !ok {
		return types.Status{}, ErrNoImage
	}
	ep, ok := otaEndpoint(dev)
	if !ok {
		return types.Status{}, fmt.Errorf("ota: device %s has no endpoint advertising cluster 0x0019", dev.IEEE)
	}

	sess, err := m.startSession(dev, ep, img, force)
	if err != nil {
		return types.Status{}, err
	}

	notify := ImageNotify{
		PayloadType:      PayloadTypeQueryJitterManufacturerImageTypeVersion,
		QueryJitter:      100,
		ManufacturerCode: img.Key.ManufacturerCode,
		ImageType:        img.Key.ImageType,
		NewFileVersion:   img.FileVersion,
	}
	header := zcl.Header{
		FrameType: zcl.FrameTypeClusterSpecific,
		Direction: zcl.DirectionServerToClient,
		TSN:       sess.send.NextTSN(),
		CommandID: CommandImageNotify,
	}
	if _, _, err := sess.send.Send(ctx, ep, ClusterID, header, SerializeImageNotify(notify), false); err != nil {
		m.finishSession(dev.IEEE, types.NewStatus(types.StatusFailure))
		return types.Status{}, fmt.Errorf("ota: sending image_notify: %w", err)
	}

	select {
	case status := <-sess.result:
		return status, nil
	case <-ctx.Done():
		return types.Status{}, ctx.Err()
	}
}

func (m *Manager) startSession(dev *device.Device, ep types.EndpointID, img Image, force bool) (*session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[dev.IEEE]; exists {
		m.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	sess := newSession(dev, ep, img, force, m.senders.ZCLSenderFor(dev))
	m.sessions[dev.IEEE] = sess
	m.mu.Unlock()

	m.watchdogs.Go(func() error {
		sess.watchdog(m.opts.maxTimeWithoutProgress, func(status types.Status) {
			m.finishSession(dev.IEEE, status)
		})
		return nil
	})
	return sess, nil
}

// Wait blocks until every session watchdog started so far has exited.
// Call it during shutdown, after the caller has stopped issuing new
// UpdateFirmware calls, to avoid leaking a watchdog goroutine per
// in-flight upgrade.
func (m *Manager) Wait() error {
	return m.watchdogs.Wait()
}

// finishSession resolves sess (if still active) with status and drops it
// from the active set.
func (m *Manager) finishSession(ieee types.IEEEAddress, status types.Status) {
	m.mu.Lock()
	sess, ok := m.sessions[ieee]
	if ok {
		delete(m.sessions, ieee)
	}
	m.mu.Unlock()
	if ok {
		sess.finish(status)
	}
}

// HandlePacket is the controller.ClusterHandler for cluster 0x0019: it owns
// query_next_image, image_block, and upgrade_end for devices with an active
// session, and reports false (unhandled) for everything else so normal
// endpoint dispatch still serves foundation traffic (attribute reads of the
// cluster's own current_file_version, for instance).
func (m *Manager) HandlePacket(dev *device.Device, ep types.EndpointID, header zcl.Header, payload []byte) bool {
	if header.FrameType != zcl.FrameTypeClusterSpecific {
		return false
	}

	m.mu.Lock()
	sess, ok := m.sessions[dev.IEEE]
	m.mu.Unlock()
	if !ok {
		return false
	}

	switch header.CommandID {
	case CommandQueryNextImageReq:
		m.handleQueryNextImage(sess, header, payload)
	case CommandImageBlockReq:
		m.handleImageBlock(sess, header, payload)
	case CommandUpgradeEndReq:
		m.handleUpgradeEnd(sess, header, payload)
	default:
		return false
	}
	return true
}

func (m *Manager) respond(sess *session, tsn uint8, commandID uint8, payload []byte) {
	header := zcl.Header{
		FrameType: zcl.FrameTypeClusterSpecific,
		Direction: zcl.DirectionServerToClient,
		TSN:       tsn,
		CommandID: commandID,
	}
	if _, _, err := sess.send.Send(context.Background(), sess.ep, ClusterID, header, payload, false); err != nil {
		m.log.Debug().Err(err).Str("device", sess.dev.IEEE.String()).Msg("ota: reply send failed")
	}
}

func (m *Manager) handleQueryNextImage(sess *session, header zcl.Header, payload []byte) {
	req, err := DeserializeQueryNextImageReq(payload)
	if err != nil {
		m.log.Debug().Err(err).Msg("ota: malformed query_next_image")
		return
	}
	sess.touch()

	if !sess.force && !sess.image.shouldUpdate(req.CurrentFileVersion, req.HardwareVersion, req.HasHardwareVersion) {
		m.respond(sess, header.TSN, CommandQueryNextImageRsp, SerializeQueryNextImageRsp(QueryNextImageRsp{
			Status: types.NewStatus(types.StatusNoImageAvailable),
		}))
		m.finishSession(sess.dev.IEEE, types.NewStatus(types.StatusNoImageAvailable))
		return
	}

	sess.state = stateStream
	m.respond(sess, header.TSN, CommandQueryNextImageRsp, SerializeQueryNextImageRsp(QueryNextImageRsp{
		Status:           types.NewStatus(types.StatusSuccess),
		ManufacturerCode: sess.image.Key.ManufacturerCode,
		ImageType:        sess.image.Key.ImageType,
		FileVersion:      sess.image.FileVersion,
		ImageSize:        sess.image.Size(),
	}))
}

func (m *Manager) handleImageBlock(sess *session, header zcl.Header, payload []byte) {
	req, err := DeserializeImageBlockReq(payload)
	if err != nil {
		m.log.Debug().Err(err).Msg("ota: malformed image_block")
		return
	}
	sess.touch()

	if req.FileVersion != sess.image.FileVersion {
		m.respond(sess, header.TSN, CommandImageBlockRsp, SerializeImageBlockRsp(ImageBlockRsp{
			Status: types.NewStatus(types.StatusFailure),
		}))
		m.finishSession(sess.dev.IEEE, types.NewStatus(types.StatusFailure))
		return
	}

	data := sess.image.Data
	start := req.FileOffset
	if start >= uint32(len(data)) {
		m.respond(sess, header.TSN, CommandImageBlockRsp, SerializeImageBlockRsp(ImageBlockRsp{
			Status: types.NewStatus(types.StatusMalformedCommand),
		}))
		m.finishSession(sess.dev.IEEE, types.NewStatus(types.StatusMalformedCommand))
		return
	}
	end := start + uint32(req.MaximumDataSize)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}

	m.respond(sess, header.TSN, CommandImageBlockRsp, SerializeImageBlockRsp(ImageBlockRsp{
		Status:           types.NewStatus(types.StatusSuccess),
		ManufacturerCode: sess.image.Key.ManufacturerCode,
		ImageType:        sess.image.Key.ImageType,
		FileVersion:      sess.image.FileVersion,
		FileOffset:       start,
		ImageData:        data[start:end],
	}))
}

func (m *Manager) handleUpgradeEnd(sess *session, header zcl.Header, payload []byte) {
	req, err := DeserializeUpgradeEndReq(payload)
	if err != nil {
		m.log.Debug().Err(err).Msg("ota: malformed upgrade_end")
		return
	}
	sess.touch()

	if !req.Status.IsSuccess() {
		m.finishSession(sess.dev.IEEE, req.Status)
		return
	}

	m.respond(sess, header.TSN, CommandUpgradeEndRsp, SerializeUpgradeEndRsp(UpgradeEndRsp{
		ManufacturerCode: sess.image.Key.ManufacturerCode,
		ImageType:        sess.image.Key.ImageType,
		FileVersion:      sess.image.FileVersion,
		CurrentTime:      0,
		UpgradeTime:      0,
	}))
	m.finishSession(sess.dev.IEEE, types.NewStatus(types.StatusSuccess))
}
