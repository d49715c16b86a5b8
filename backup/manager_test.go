package backup

import (
	"context"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
)

func testIEEE(b byte) types.IEEEAddress {
	var a types.IEEEAddress
	a[7] = b
	return a
}

type fakeRadio struct {
	transport.Radio
	node    types.NodeInfo
	network types.NetworkInfo
	writes  []types.NetworkInfo
	loads   int
}

func (f *fakeRadio) LoadNetworkInfo(ctx context.Context, loadDevices bool) (types.NodeInfo, types.NetworkInfo, error) {
	f.loads++
	return f.node, f.network, nil
}

func (f *fakeRadio) WriteNetworkInfo(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	f.writes = append(f.writes, network)
	f.node, f.network = node, network
	return nil
}

func testBackup(counter uint32) Backup {
	return Backup{
		Version:   FormatVersion,
		CreatedAt: time.Now(),
		Node: types.NodeInfo{
			IEEE:        testIEEE(1),
			NWK:         0x0000,
			LogicalType: types.LogicalTypeCoordinator,
		},
		Network: types.NetworkInfo{
			ExtendedPANID: [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
			PANID:         0x1234,
			Channel:       15,
			ChannelMask:   1 << (15 - 11),
			SecurityLevel: 5,
			NetworkKey:    types.NetworkKey{Key: [16]byte{0xAA}, TXCounter: counter},
			TCLinkKey:     types.TCLinkKey{NetworkKey: types.NetworkKey{Key: [16]byte{0xBB}}, PartnerIEEE: testIEEE(1)},
		},
	}
}

func TestCompatibleIgnoresCounters(t *testing.T) {
	a := testBackup(10)
	b := testBackup(9999)
	if !Compatible(a, b) {
		t.Fatal("expected backups with differing counters but identical identity to be compatible")
	}
}

func TestCompatibleRejectsDifferentNetworkKey(t *testing.T) {
	a := testBackup(10)
	b := testBackup(10)
	b.Network.NetworkKey.Key = [16]byte{0xFF}
	if Compatible(a, b) {
		t.Fatal("expected backups with different network keys to be incompatible")
	}
}

func TestSupersedesRequiresGreaterCounter(t *testing.T) {
	older := testBackup(10)
	newer := testBackup(11)
	if !Supersedes(newer, older) {
		t.Fatal("expected newer backup to supersede older")
	}
	if Supersedes(older, newer) {
		t.Fatal("expected older backup not to supersede newer")
	}
	if Supersedes(older, older) {
		t.Fatal("expected equal counters not to supersede")
	}
}

func TestIsComplete(t *testing.T) {
	b := testBackup(1)
	if !b.IsComplete() {
		t.Fatal("expected fully populated backup to be complete")
	}
	b.Network.NetworkKey.Key = [16]byte{}
	if b.IsComplete() {
		t.Fatal("expected zero network key to make backup incomplete")
	}
}

func TestOCBRoundTrip(t *testing.T) {
	b := testBackup(42)
	b.Network.NWKAddresses = map[types.IEEEAddress]types.NWKAddress{testIEEE(2): 0xBEEF}
	b.Network.Children = []types.IEEEAddress{testIEEE(2)}
	b.Network.KeyTable = []types.TCLinkKey{{
		NetworkKey:  types.NetworkKey{Key: [16]byte{0xCC}, Sequence: 3, TXCounter: 7, RXCounter: 8},
		PartnerIEEE: testIEEE(2),
	}}

	data, err := MarshalOCB(b)
	if err != nil {
		t.Fatalf("MarshalOCB: %v", err)
	}

	got, err := UnmarshalOCB(data)
	if err != nil {
		t.Fatalf("UnmarshalOCB: %v", err)
	}

	if got.Node.IEEE != b.Node.IEEE || got.Network.PANID != b.Network.PANID || got.Network.Channel != b.Network.Channel {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if got.Network.NetworkKey.Key != b.Network.NetworkKey.Key || got.Network.TCLinkKey.Key != b.Network.TCLinkKey.Key {
		t.Fatal("key material mismatch after round trip")
	}
	if got.Network.ChannelMask != b.Network.ChannelMask {
		t.Fatalf("channel mask mismatch: got %x want %x", got.Network.ChannelMask, b.Network.ChannelMask)
	}
	if got.Network.NWKAddresses[testIEEE(2)] != 0xBEEF {
		t.Fatal("nwk address not round tripped")
	}
	if len(got.Network.Children) != 1 || got.Network.Children[0] != testIEEE(2) {
		t.Fatal("children not round tripped")
	}
	if len(got.Network.KeyTable) != 1 || got.Network.KeyTable[0].Key != b.Network.KeyTable[0].Key || got.Network.KeyTable[0].Sequence != 3 {
		t.Fatal("key table not round tripped")
	}
}

func TestEncryptDecryptBackup(t *testing.T) {
	b := testBackup(1)
	enc, err := EncryptBackup(b, "correct horse battery staple")
	if err != nil {
		t.Fatalf("EncryptBackup: %v", err)
	}
	got, err := DecryptBackup(enc, "correct horse battery staple")
	if err != nil {
		t.Fatalf("DecryptBackup: %v", err)
	}
	if got.Node.IEEE != b.Node.IEEE {
		t.Fatal("decrypted backup doesn't match original")
	}
	if _, err := DecryptBackup(enc, "wrong password"); err == nil {
		t.Fatal("expected decryption with wrong password to fail")
	}
}

func TestManagerCreateAndRestoreBackup(t *testing.T) {
	radio := &fakeRadio{node: testBackup(1).Node, network: testBackup(1).Network}
	mgr := NewManager(radio, events.NewEventBus())

	b, err := mgr.CreateBackup(context.Background(), false)
	if err != nil {
		t.Fatalf("CreateBackup: %v", err)
	}
	if _, ok := mgr.MostRecentBackup(); !ok {
		t.Fatal("expected a most recent backup after create")
	}

	opts := DefaultRestoreOptions()
	opts.CreateAfter = false
	if err := mgr.RestoreBackup(context.Background(), b, opts); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if len(radio.writes) != 1 {
		t.Fatalf("expected one WriteNetworkInfo call, got %d", len(radio.writes))
	}
	if radio.writes[0].NetworkKey.TXCounter != b.Network.NetworkKey.TXCounter+defaultCounterIncrement {
		t.Fatalf("expected counter incremented by default increment, got %d", radio.writes[0].NetworkKey.TXCounter)
	}
}

func TestManagerRestoreIncompleteBackupRefused(t *testing.T) {
	radio := &fakeRadio{}
	mgr := NewManager(radio, events.NewEventBus())

	incomplete := Backup{}
	if err := mgr.RestoreBackup(context.Background(), incomplete, DefaultRestoreOptions()); err != ErrIncompleteBackup {
		t.Fatalf("expected ErrIncompleteBackup, got %v", err)
	}

	forced := DefaultRestoreOptions()
	forced.Force = true
	forced.CreateAfter = false
	if err := mgr.RestoreBackup(context.Background(), incomplete, forced); err != nil {
		t.Fatalf("expected forced restore to succeed, got %v", err)
	}
}

func TestManagerAddBackupEvictsSuperseded(t *testing.T) {
	radio := &fakeRadio{}
	mgr := NewManager(radio, events.NewEventBus())

	mgr.AddBackup(testBackup(1))
	mgr.AddBackup(testBackup(2))

	history := mgr.History()
	if len(history) != 1 {
		t.Fatalf("expected superseded backup to be evicted, got %d entries", len(history))
	}
	if history[0].Network.NetworkKey.TXCounter != 2 {
		t.Fatalf("expected surviving backup to be the newer one, got counter %d", history[0].Network.NetworkKey.TXCounter)
	}
}

func TestManagerAddBackupKeepsIncompatible(t *testing.T) {
	radio := &fakeRadio{}
	mgr := NewManager(radio, events.NewEventBus())

	a := testBackup(1)
	b := testBackup(1)
	b.Network.PANID = 0x9999

	mgr.AddBackup(a)
	mgr.AddBackup(b)

	if len(mgr.History()) != 2 {
		t.Fatalf("expected incompatible backups to coexist, got %d", len(mgr.History()))
	}
}

func TestManagerStartStopPeriodicBackups(t *testing.T) {
	radio := &fakeRadio{node: testBackup(1).Node, network: testBackup(1).Network}
	mgr := NewManager(radio, events.NewEventBus())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr.StartPeriodicBackups(ctx, 10*time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	mgr.StopPeriodicBackups()

	// Every snapshot of the unchanged network is compatible with the last
	// and evicts it, so the history holds one entry; count the snapshots
	// taken at the radio instead.
	if radio.loads < 2 {
		t.Fatalf("expected multiple periodic backups, got %d", radio.loads)
	}

	// StopPeriodicBackups blocks until the loop has actually exited, so no
	// further backups arrive after it returns and a second Stop is a no-op.
	count := radio.loads
	time.Sleep(35 * time.Millisecond)
	if radio.loads != count {
		t.Fatalf("expected no further backups after stop, got %d want %d", radio.loads, count)
	}
	mgr.StopPeriodicBackups()
}
