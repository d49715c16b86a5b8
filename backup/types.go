package backup

import (
	"time"

	"github.com/tj-smith47/zigbee-core/types"
)

// FormatVersion is the current backup format version.
const FormatVersion = 1

// Backup is a point-in-time snapshot of the formed network's state,
// exactly what a successful LoadNetworkInfo returned.
type Backup struct {
	Version   int
	CreatedAt time.Time
	Node      types.NodeInfo
	Network   types.NetworkInfo
}

// IsComplete reports whether b captures enough state to recreate the
// network on a fresh radio: a real IEEE, a real extended PAN id, a PAN id
// outside the reserved broadcast/unset values, a channel in the 802.15.4
// 2.4GHz range, and non-zero key material.
func (b Backup) IsComplete() bool {
	var zeroIEEE types.IEEEAddress
	var zeroExtPAN [8]byte
	var zeroKey [16]byte
	return b.Node.IEEE != zeroIEEE &&
		b.Network.ExtendedPANID != zeroExtPAN &&
		b.Network.PANID != 0x0000 && b.Network.PANID != 0xFFFF &&
		b.Network.Channel >= 11 && b.Network.Channel <= 26 &&
		b.Network.NetworkKey.Key != zeroKey
}
