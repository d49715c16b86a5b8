package wire

import (
	"bytes"
	"testing"

	"github.com/tj-smith47/zigbee-core/types"
)

func TestIntegerRoundTrip(t *testing.T) {
	if v, rest, err := DeserializeUint8(SerializeUint8(0xAB)); err != nil || v != 0xAB || len(rest) != 0 {
		t.Errorf("uint8 round trip: v=%#x rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeUint16(SerializeUint16(0xBEEF)); err != nil || v != 0xBEEF || len(rest) != 0 {
		t.Errorf("uint16 round trip: v=%#x rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeUint24(SerializeUint24(0xABCDEF)); err != nil || v != 0xABCDEF || len(rest) != 0 {
		t.Errorf("uint24 round trip: v=%#x rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeUint32(SerializeUint32(0xDEADBEEF)); err != nil || v != 0xDEADBEEF || len(rest) != 0 {
		t.Errorf("uint32 round trip: v=%#x rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeUint64(SerializeUint64(0x0102030405060708)); err != nil || v != 0x0102030405060708 || len(rest) != 0 {
		t.Errorf("uint64 round trip: v=%#x rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeInt16(SerializeInt16(-1234)); err != nil || v != -1234 || len(rest) != 0 {
		t.Errorf("int16 round trip: v=%d rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeInt24(SerializeInt24(-100)); err != nil || v != -100 || len(rest) != 0 {
		t.Errorf("int24 round trip: v=%d rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeInt32(SerializeInt32(-70000)); err != nil || v != -70000 || len(rest) != 0 {
		t.Errorf("int32 round trip: v=%d rest=%v err=%v", v, rest, err)
	}
	if v, rest, err := DeserializeBool(SerializeBool(true)); err != nil || v != true || len(rest) != 0 {
		t.Errorf("bool round trip: v=%v rest=%v err=%v", v, rest, err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := "hello zigbee"
	v, rest, err := DeserializeCharacterString(SerializeCharacterString(s))
	if err != nil || v != s || len(rest) != 0 {
		t.Errorf("character string round trip: v=%q rest=%v err=%v", v, rest, err)
	}

	long := "a longer manufacturer string that exceeds one byte of length metadata only conceptually"
	v2, rest2, err := DeserializeLongCharacterString(SerializeLongCharacterString(long))
	if err != nil || v2 != long || len(rest2) != 0 {
		t.Errorf("long character string round trip: v=%q err=%v", v2, err)
	}
}

func TestCharacterStringNULTruncation(t *testing.T) {
	// Simulate a fixed-length padded buffer: "abc" followed by NUL padding.
	raw := append([]byte("abc"), 0x00, 0x00, 0x00)
	encoded := append([]byte{byte(len(raw))}, raw...)
	v, rest, err := DeserializeCharacterString(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "abc" {
		t.Errorf("v = %q, want %q", v, "abc")
	}
	if len(rest) != 0 {
		t.Errorf("rest = %v, want empty", rest)
	}
}

func TestOctetStringRoundTripWithTrailingGarbage(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	encoded := SerializeOctetString(data)
	garbage := []byte{0xFF, 0xFE}
	v, rest, err := DeserializeOctetString(append(encoded, garbage...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(v, data) {
		t.Errorf("v = %v, want %v", v, data)
	}
	if !bytes.Equal(rest, garbage) {
		t.Errorf("rest = %v, want %v", rest, garbage)
	}
}

func TestIEEEAddressRoundTrip(t *testing.T) {
	addr, _ := types.ParseIEEEAddress("00:11:22:33:44:55:66:77")
	v, rest, err := DeserializeIEEEAddress(SerializeIEEEAddress(addr))
	if err != nil || v != addr || len(rest) != 0 {
		t.Errorf("IEEE round trip: v=%v rest=%v err=%v", v, rest, err)
	}
}

func TestChannelMaskRoundTrip(t *testing.T) {
	mask := NewChannelMask(11, 15, 26)
	v, rest, err := DeserializeChannelMask(SerializeChannelMask(mask))
	if err != nil || v != mask || len(rest) != 0 {
		t.Fatalf("channel mask round trip failed: v=%v err=%v", v, err)
	}
	channels := v.Channels()
	want := []uint8{11, 15, 26}
	if len(channels) != len(want) {
		t.Fatalf("Channels() = %v, want %v", channels, want)
	}
	for i := range want {
		if channels[i] != want[i] {
			t.Errorf("Channels()[%d] = %d, want %d", i, channels[i], want[i])
		}
	}
}

func TestListRoundTrip(t *testing.T) {
	items := []uint16{1, 2, 3, 0xFFFF}
	encoded := SerializeList(items, SerializeUint16)
	decoded, rest, err := DeserializeList(encoded, DeserializeUint16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %v, want empty", rest)
	}
	if len(decoded) != len(items) {
		t.Fatalf("decoded = %v, want %v", decoded, items)
	}
	for i := range items {
		if decoded[i] != items[i] {
			t.Errorf("decoded[%d] = %d, want %d", i, decoded[i], items[i])
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	v, rest, err := DeserializeFloat32(SerializeFloat32(3.25))
	if err != nil || v != 3.25 || len(rest) != 0 {
		t.Errorf("float32 round trip: v=%v err=%v", v, err)
	}
}

func TestShortBufferErrors(t *testing.T) {
	if _, _, err := DeserializeUint32([]byte{0x01, 0x02}); err == nil {
		t.Error("expected ErrShortBuffer for truncated uint32")
	}
	if _, _, err := DeserializeIEEEAddress([]byte{0x01}); err == nil {
		t.Error("expected ErrShortBuffer for truncated IEEE address")
	}
}
