package ota

import (
	"fmt"

	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/wire"
)

// ClusterID is the OTA upgrade cluster id (ZCL 0x0019).
const ClusterID = types.ClusterID(0x0019)

// Command ids, split by origin the way the cluster's own schema does:
// *Req are sent by the device being upgraded (ZCL "server commands" — the
// upgrade client issues them against our cluster instance), *Rsp/Notify are
// ours.
const (
	CommandImageNotify         uint8 = 0x00
	CommandQueryNextImageReq   uint8 = 0x01
	CommandQueryNextImageRsp   uint8 = 0x02
	CommandImageBlockReq       uint8 = 0x03
	CommandImageBlockRsp       uint8 = 0x05
	CommandUpgradeEndReq       uint8 = 0x06
	CommandUpgradeEndRsp       uint8 = 0x07
)

// ImageNotifyPayloadType controls how much of ImageNotify's trailing,
// progressively more specific fields are present.
type ImageNotifyPayloadType uint8

const (
	PayloadTypeQueryJitter                            ImageNotifyPayloadType = 0x00
	PayloadTypeQueryJitterManufacturer                 ImageNotifyPayloadType = 0x01
	PayloadTypeQueryJitterManufacturerImageType         ImageNotifyPayloadType = 0x02
	PayloadTypeQueryJitterManufacturerImageTypeVersion  ImageNotifyPayloadType = 0x03
)

// ImageNotify is the server-initiated command that announces a new image is
// available; QueryJitter governs what fraction of notified devices actually
// respond (a real device rolls a random 0-99 and compares against it), a
// detail this core leaves to the device and always sends as 100 (always
// query).
type ImageNotify struct {
	PayloadType      ImageNotifyPayloadType
	QueryJitter      uint8
	ManufacturerCode uint16
	ImageType        uint16
	NewFileVersion   uint32
}

func SerializeImageNotify(n ImageNotify) []byte {
	out := []byte{byte(n.PayloadType), n.QueryJitter}
	if n.PayloadType >= PayloadTypeQueryJitterManufacturer {
		out = append(out, wire.SerializeUint16(n.ManufacturerCode)...)
	}
	if n.PayloadType >= PayloadTypeQueryJitterManufacturerImageType {
		out = append(out, wire.SerializeUint16(n.ImageType)...)
	}
	if n.PayloadType >= PayloadTypeQueryJitterManufacturerImageTypeVersion {
		out = append(out, wire.SerializeUint32(n.NewFileVersion)...)
	}
	return out
}

// QueryNextImageReq is what a device sends in WAIT_QUERY asking what image
// it should download.
type QueryNextImageReq struct {
	HasHardwareVersion bool
	ManufacturerCode   uint16
	ImageType          uint16
	CurrentFileVersion uint32
	HardwareVersion    uint16
}

const fieldControlHardwareVersion = 0x01

func DeserializeQueryNextImageReq(b []byte) (QueryNextImageReq, error) {
	fc, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return QueryNextImageReq{}, fmt.Errorf("%w: field control: %w", ErrMalformedFrame, err)
	}
	r := QueryNextImageReq{HasHardwareVersion: fc&fieldControlHardwareVersion != 0}
	r.ManufacturerCode, rest, err = wire.DeserializeUint16(rest)
	if err != nil {
		return QueryNextImageReq{}, fmt.Errorf("%w: manufacturer code: %w", ErrMalformedFrame, err)
	}
	r.ImageType, rest, err = wire.DeserializeUint16(rest)
	if err != nil {
		return QueryNextImageReq{}, fmt.Errorf("%w: image type: %w", ErrMalformedFrame, err)
	}
	r.CurrentFileVersion, rest, err = wire.DeserializeUint32(rest)
	if err != nil {
		return QueryNextImageReq{}, fmt.Errorf("%w: current file version: %w", ErrMalformedFrame, err)
	}
	if r.HasHardwareVersion {
		r.HardwareVersion, _, err = wire.DeserializeUint16(rest)
		if err != nil {
			return QueryNextImageReq{}, fmt.Errorf("%w: hardware version: %w", ErrMalformedFrame, err)
		}
	}
	return r, nil
}

// QueryNextImageRsp answers QueryNextImageReq: a non-SUCCESS status (almost
// always NO_IMAGE_AVAILABLE) carries no trailing fields.
type QueryNextImageRsp struct {
	Status           types.Status
	ManufacturerCode uint16
	ImageType        uint16
	FileVersion      uint32
	ImageSize        uint32
}

func SerializeQueryNextImageRsp(r QueryNextImageRsp) []byte {
	out := []byte{r.Status.Byte()}
	if !r.Status.IsSuccess() {
		return out
	}
	out = append(out, wire.SerializeUint16(r.ManufacturerCode)...)
	out = append(out, wire.SerializeUint16(r.ImageType)...)
	out = append(out, wire.SerializeUint32(r.FileVersion)...)
	out = append(out, wire.SerializeUint32(r.ImageSize)...)
	return out
}

// ImageBlockReq is what a device sends in STREAM asking for the next
// window of image data.
type ImageBlockReq struct {
	RequestNodeAddrPresent  bool
	MinimumBlockPeriodPresent bool
	ManufacturerCode        uint16
	ImageType               uint16
	FileVersion             uint32
	FileOffset              uint32
	MaximumDataSize         uint8
	RequestNodeAddr         types.IEEEAddress
	MinimumBlockPeriod      uint16
}

const (
	imageBlockFieldControlRequestNodeAddr    = 0x01
	imageBlockFieldControlMinBlockPeriod     = 0x02
)

func DeserializeImageBlockReq(b []byte) (ImageBlockReq, error) {
	fc, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return ImageBlockReq{}, fmt.Errorf("%w: field control: %w", ErrMalformedFrame, err)
	}
	r := ImageBlockReq{
		RequestNodeAddrPresent:    fc&imageBlockFieldControlRequestNodeAddr != 0,
		MinimumBlockPeriodPresent: fc&imageBlockFieldControlMinBlockPeriod != 0,
	}
	r.ManufacturerCode, rest, err = wire.DeserializeUint16(rest)
	if err != nil {
		return ImageBlockReq{}, fmt.Errorf("%w: manufacturer code: %w", ErrMalformedFrame, err)
	}
	r.ImageType, rest, err = wire.DeserializeUint16(rest)
	if err != nil {
		return ImageBlockReq{}, fmt.Errorf("%w: image type: %w", ErrMalformedFrame, err)
	}
	r.FileVersion, rest, err = wire.DeserializeUint32(rest)
	if err != nil {
		return ImageBlockReq{}, fmt.Errorf("%w: file version: %w", ErrMalformedFrame, err)
	}
	r.FileOffset, rest, err = wire.DeserializeUint32(rest)
	if err != nil {
		return ImageBlockReq{}, fmt.Errorf("%w: file offset: %w", ErrMalformedFrame, err)
	}
	r.MaximumDataSize, rest, err = wire.DeserializeUint8(rest)
	if err != nil {
		return ImageBlockReq{}, fmt.Errorf("%w: maximum data size: %w", ErrMalformedFrame, err)
	}
	if r.RequestNodeAddrPresent {
		r.RequestNodeAddr, rest, err = wire.DeserializeIEEEAddress(rest)
		if err != nil {
			return ImageBlockReq{}, fmt.Errorf("%w: request node addr: %w", ErrMalformedFrame, err)
		}
	}
	if r.MinimumBlockPeriodPresent {
		r.MinimumBlockPeriod, _, err = wire.DeserializeUint16(rest)
		if err != nil {
			return ImageBlockReq{}, fmt.Errorf("%w: minimum block period: %w", ErrMalformedFrame, err)
		}
	}
	return r, nil
}

// ImageBlockRsp answers ImageBlockReq. Only SUCCESS and WAIT_FOR_DATA carry
// trailing fields; every other status (MALFORMED_COMMAND, ABORT, FAILURE)
// is status-only.
type ImageBlockRsp struct {
	Status types.Status

	ManufacturerCode uint16
	ImageType        uint16
	FileVersion      uint32
	FileOffset       uint32
	ImageData        []byte

	CurrentTime        uint32
	RequestTime        uint32
	MinimumBlockPeriod uint16
}

func SerializeImageBlockRsp(r ImageBlockRsp) []byte {
	out := []byte{r.Status.Byte()}
	switch {
	case r.Status.IsSuccess():
		out = append(out, wire.SerializeUint16(r.ManufacturerCode)...)
		out = append(out, wire.SerializeUint16(r.ImageType)...)
		out = append(out, wire.SerializeUint32(r.FileVersion)...)
		out = append(out, wire.SerializeUint32(r.FileOffset)...)
		out = append(out, wire.SerializeOctetString(r.ImageData)...)
	case isKnown(r.Status, types.StatusWaitForData):
		out = append(out, wire.SerializeUint32(r.CurrentTime)...)
		out = append(out, wire.SerializeUint32(r.RequestTime)...)
		out = append(out, wire.SerializeUint16(r.MinimumBlockPeriod)...)
	}
	return out
}

func isKnown(s types.Status, k types.KnownStatus) bool {
	known, ok := s.Known()
	return ok && known == k
}

// UpgradeEndReq reports the device's final outcome (SUCCESS once it has
// validated and is ready to apply, or an abort status).
type UpgradeEndReq struct {
	Status           types.Status
	ManufacturerCode uint16
	ImageType        uint16
	FileVersion      uint32
}

func DeserializeUpgradeEndReq(b []byte) (UpgradeEndReq, error) {
	statusByte, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return UpgradeEndReq{}, fmt.Errorf("%w: status: %w", ErrMalformedFrame, err)
	}
	r := UpgradeEndReq{Status: types.NewStatusFromByte(statusByte)}
	r.ManufacturerCode, rest, err = wire.DeserializeUint16(rest)
	if err != nil {
		return UpgradeEndReq{}, fmt.Errorf("%w: manufacturer code: %w", ErrMalformedFrame, err)
	}
	r.ImageType, rest, err = wire.DeserializeUint16(rest)
	if err != nil {
		return UpgradeEndReq{}, fmt.Errorf("%w: image type: %w", ErrMalformedFrame, err)
	}
	r.FileVersion, _, err = wire.DeserializeUint32(rest)
	if err != nil {
		return UpgradeEndReq{}, fmt.Errorf("%w: file version: %w", ErrMalformedFrame, err)
	}
	return r, nil
}

// UpgradeEndRsp tells the device when to apply the image it already has;
// this core always answers with CurrentTime=UpgradeTime=0, meaning "apply
// immediately".
type UpgradeEndRsp struct {
	ManufacturerCode uint16
	ImageType        uint16
	FileVersion      uint32
	CurrentTime      uint32
	UpgradeTime      uint32
}

func SerializeUpgradeEndRsp(r UpgradeEndRsp) []byte {
	out := wire.SerializeUint16(r.ManufacturerCode)
	out = append(out, wire.SerializeUint16(r.ImageType)...)
	out = append(out, wire.SerializeUint32(r.FileVersion)...)
	out = append(out, wire.SerializeUint32(r.CurrentTime)...)
	out = append(out, wire.SerializeUint32(r.UpgradeTime)...)
	return out
}
