package backup

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/tj-smith47/zigbee-core/types"
)

// ocbFormat identifies this core as the document's producer in the
// metadata.format field; readers should not depend on its exact value.
const ocbFormat = "zigbee-core/open-coordinator-backup"

// document is the Open Coordinator Backup wire shape: address and key
// material as hex strings, everything else a plain JSON value.
type document struct {
	Metadata        metadata       `json:"metadata"`
	StackSpecific   map[string]any `json:"stack_specific,omitempty"`
	CoordinatorIEEE string         `json:"coordinator_ieee"`
	PANID           string         `json:"pan_id"`
	ExtendedPANID   string         `json:"extended_pan_id"`
	NWKUpdateID     uint8          `json:"nwk_update_id"`
	SecurityLevel   uint8          `json:"security_level"`
	Channel         uint8          `json:"channel"`
	ChannelMask     []uint8        `json:"channel_mask"`
	NetworkKey      docNetworkKey  `json:"network_key"`
	Devices         []docDevice    `json:"devices"`
}

type metadata struct {
	Version  int         `json:"version"`
	Format   string      `json:"format"`
	Source   string      `json:"source,omitempty"`
	Internal docInternal `json:"internal"`
}

type docInternal struct {
	CreationTime string           `json:"creation_time"`
	Node         docNode          `json:"node"`
	Network      docNetwork       `json:"network"`
	LinkKeySeqs  map[string]uint8 `json:"link_key_seqs,omitempty"`
}

type docNode struct {
	IEEE         string `json:"ieee"`
	NWK          string `json:"nwk"`
	Type         string `json:"type"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Version      string `json:"version,omitempty"`
}

type docNetwork struct {
	TCLinkKey  docTCLinkKey `json:"tc_link_key"`
	TCAddress  string       `json:"tc_address"`
	NWKManager string       `json:"nwk_manager"`
}

type docTCLinkKey struct {
	Key          string `json:"key"`
	FrameCounter uint32 `json:"frame_counter"`
}

type docNetworkKey struct {
	Key            string `json:"key"`
	SequenceNumber uint8  `json:"sequence_number"`
	FrameCounter   uint32 `json:"frame_counter"`
}

type docDevice struct {
	IEEEAddress string      `json:"ieee_address"`
	NWKAddress  *string     `json:"nwk_address,omitempty"`
	IsChild     bool        `json:"is_child"`
	LinkKey     *docLinkKey `json:"link_key,omitempty"`
}

type docLinkKey struct {
	Key       string `json:"key"`
	TXCounter uint32 `json:"tx_counter"`
	RXCounter uint32 `json:"rx_counter"`
}

func hexIEEE(a types.IEEEAddress) string { return hex.EncodeToString(a[:]) }

func unhexIEEE(s string) (types.IEEEAddress, error) {
	var a types.IEEEAddress
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 8 {
		return a, fmt.Errorf("%w: ieee address %q", ErrInvalidDocument, s)
	}
	copy(a[:], b)
	return a, nil
}

func hexNWK(a types.NWKAddress) string { return fmt.Sprintf("%04x", uint16(a)) }

func unhexNWK(s string) (types.NWKAddress, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 2 {
		return 0, fmt.Errorf("%w: nwk address %q", ErrInvalidDocument, s)
	}
	return types.NWKAddress(uint16(b[0])<<8 | uint16(b[1])), nil
}

func hexExtPAN(a [8]byte) string { return hex.EncodeToString(a[:]) }

func unhexExtPAN(s string) ([8]byte, error) {
	var a [8]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 8 {
		return a, fmt.Errorf("%w: extended pan id %q", ErrInvalidDocument, s)
	}
	copy(a[:], b)
	return a, nil
}

func hexKey(k [16]byte) string { return hex.EncodeToString(k[:]) }

func unhexKey(s string) ([16]byte, error) {
	var k [16]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		return k, fmt.Errorf("%w: key %q", ErrInvalidDocument, s)
	}
	copy(k[:], b)
	return k, nil
}

// channelsFromMask expands the bitmap (bit N-11 set means channel N) into
// the sorted channel list the document format uses.
func channelsFromMask(mask uint32) []uint8 {
	var out []uint8
	for ch := uint8(11); ch <= 26; ch++ {
		if mask&(1<<(ch-11)) != 0 {
			out = append(out, ch)
		}
	}
	return out
}

func maskFromChannels(channels []uint8) uint32 {
	var mask uint32
	for _, ch := range channels {
		if ch >= 11 && ch <= 26 {
			mask |= 1 << (ch - 11)
		}
	}
	return mask
}

// MarshalOCB renders b as an Open Coordinator Backup JSON document.
func MarshalOCB(b Backup) ([]byte, error) {
	devices := make(map[types.IEEEAddress]*docDevice)
	order := make([]types.IEEEAddress, 0)
	get := func(ieee types.IEEEAddress) *docDevice {
		if d, ok := devices[ieee]; ok {
			return d
		}
		d := &docDevice{IEEEAddress: hexIEEE(ieee)}
		devices[ieee] = d
		order = append(order, ieee)
		return d
	}

	for ieee, nwk := range b.Network.NWKAddresses {
		nwkHex := hexNWK(nwk)
		d := get(ieee)
		d.NWKAddress = &nwkHex
	}
	for _, ieee := range b.Network.Children {
		get(ieee).IsChild = true
	}

	linkKeySeqs := make(map[string]uint8, len(b.Network.KeyTable))
	for _, key := range b.Network.KeyTable {
		d := get(key.PartnerIEEE)
		d.LinkKey = &docLinkKey{
			Key:       hexKey(key.Key),
			TXCounter: key.TXCounter,
			RXCounter: key.RXCounter,
		}
		linkKeySeqs[hexIEEE(key.PartnerIEEE)] = key.Sequence
	}

	sort.Slice(order, func(i, j int) bool { return devices[order[i]].IEEEAddress < devices[order[j]].IEEEAddress })
	docDevices := make([]docDevice, 0, len(order))
	for _, ieee := range order {
		docDevices = append(docDevices, *devices[ieee])
	}

	doc := document{
		Metadata: metadata{
			Version: FormatVersion,
			Format:  ocbFormat,
			Internal: docInternal{
				CreationTime: b.CreatedAt.UTC().Format(time.RFC3339),
				Node: docNode{
					IEEE:         hexIEEE(b.Node.IEEE),
					NWK:          hexNWK(b.Node.NWK),
					Type:         b.Node.LogicalType.String(),
					Model:        b.Node.Model,
					Manufacturer: b.Node.Manufacturer,
					Version:      b.Node.Version,
				},
				Network: docNetwork{
					TCLinkKey: docTCLinkKey{
						Key:          hexKey(b.Network.TCLinkKey.Key),
						FrameCounter: b.Network.TCLinkKey.TXCounter,
					},
					TCAddress:  hexIEEE(b.Network.TCLinkKey.PartnerIEEE),
					NWKManager: hexNWK(b.Network.NWKManagerID),
				},
				LinkKeySeqs: linkKeySeqs,
			},
		},
		StackSpecific:   b.Network.StackSpecific,
		CoordinatorIEEE: hexIEEE(b.Node.IEEE),
		PANID:           hexNWK(types.NWKAddress(b.Network.PANID)),
		ExtendedPANID:   hexExtPAN(b.Network.ExtendedPANID),
		NWKUpdateID:     b.Network.NWKUpdateID,
		SecurityLevel:   b.Network.SecurityLevel,
		Channel:         b.Network.Channel,
		ChannelMask:     channelsFromMask(b.Network.ChannelMask),
		NetworkKey: docNetworkKey{
			Key:            hexKey(b.Network.NetworkKey.Key),
			SequenceNumber: b.Network.NetworkKey.Sequence,
			FrameCounter:   b.Network.NetworkKey.TXCounter,
		},
		Devices: docDevices,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalOCB parses an Open Coordinator Backup JSON document into a
// Backup.
func UnmarshalOCB(data []byte) (Backup, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Backup{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	ieee, err := unhexIEEE(doc.CoordinatorIEEE)
	if err != nil {
		return Backup{}, err
	}
	nwk, err := unhexNWK(doc.Metadata.Internal.Node.NWK)
	if err != nil {
		return Backup{}, err
	}
	extPAN, err := unhexExtPAN(doc.ExtendedPANID)
	if err != nil {
		return Backup{}, err
	}
	panID, err := unhexNWK(doc.PANID)
	if err != nil {
		return Backup{}, err
	}
	nwkManager, err := unhexNWK(doc.Metadata.Internal.Network.NWKManager)
	if err != nil {
		return Backup{}, err
	}
	tcKey, err := unhexKey(doc.Metadata.Internal.Network.TCLinkKey.Key)
	if err != nil {
		return Backup{}, err
	}
	tcAddr, err := unhexIEEE(doc.Metadata.Internal.Network.TCAddress)
	if err != nil {
		return Backup{}, err
	}
	netKey, err := unhexKey(doc.NetworkKey.Key)
	if err != nil {
		return Backup{}, err
	}

	b := Backup{
		Version: doc.Metadata.Version,
		Node: types.NodeInfo{
			NWK:          nwk,
			IEEE:         ieee,
			LogicalType:  logicalTypeFromString(doc.Metadata.Internal.Node.Type),
			Model:        doc.Metadata.Internal.Node.Model,
			Manufacturer: doc.Metadata.Internal.Node.Manufacturer,
			Version:      doc.Metadata.Internal.Node.Version,
		},
		Network: types.NetworkInfo{
			ExtendedPANID: extPAN,
			PANID:         uint16(panID),
			NWKUpdateID:   doc.NWKUpdateID,
			NWKManagerID:  nwkManager,
			Channel:       doc.Channel,
			ChannelMask:   maskFromChannels(doc.ChannelMask),
			SecurityLevel: doc.SecurityLevel,
			NetworkKey: types.NetworkKey{
				Key:       netKey,
				Sequence:  doc.NetworkKey.SequenceNumber,
				TXCounter: doc.NetworkKey.FrameCounter,
			},
			TCLinkKey: types.TCLinkKey{
				NetworkKey:  types.NetworkKey{Key: tcKey, TXCounter: doc.Metadata.Internal.Network.TCLinkKey.FrameCounter},
				PartnerIEEE: tcAddr,
			},
			StackSpecific: doc.StackSpecific,
			NWKAddresses:  make(map[types.IEEEAddress]types.NWKAddress),
		},
	}
	if t, err := time.Parse(time.RFC3339, doc.Metadata.Internal.CreationTime); err == nil {
		b.CreatedAt = t
	}

	for _, d := range doc.Devices {
		devIEEE, err := unhexIEEE(d.IEEEAddress)
		if err != nil {
			return Backup{}, err
		}
		if d.NWKAddress != nil {
			devNWK, err := unhexNWK(*d.NWKAddress)
			if err != nil {
				return Backup{}, err
			}
			b.Network.NWKAddresses[devIEEE] = devNWK
		}
		if d.IsChild {
			b.Network.Children = append(b.Network.Children, devIEEE)
		}
		if d.LinkKey != nil {
			key, err := unhexKey(d.LinkKey.Key)
			if err != nil {
				return Backup{}, err
			}
			seq := doc.Metadata.Internal.LinkKeySeqs[d.IEEEAddress]
			b.Network.KeyTable = append(b.Network.KeyTable, types.TCLinkKey{
				NetworkKey: types.NetworkKey{
					Key:       key,
					Sequence:  seq,
					TXCounter: d.LinkKey.TXCounter,
					RXCounter: d.LinkKey.RXCounter,
				},
				PartnerIEEE: devIEEE,
			})
		}
	}

	return b, nil
}

func logicalTypeFromString(s string) types.LogicalType {
	switch s {
	case "router":
		return types.LogicalTypeRouter
	case "end_device":
		return types.LogicalTypeEndDevice
	default:
		return types.LogicalTypeCoordinator
	}
}
