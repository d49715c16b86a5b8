package testutil

import (
	"testing"

	"github.com/tj-smith47/zigbee-core/types"
)

func TestNewTestDeviceBuildsRequestedEndpointsAndClusters(t *testing.T) {
	registry := OnOffRegistry()
	ieee := IEEEFromByte(1)

	dev, err := NewTestDevice(ieee, 0x1234, registry, nil, nil, []types.EndpointID{1, 2}, []types.ClusterID{OnOffClusterID})
	if err != nil {
		t.Fatalf("NewTestDevice: %v", err)
	}

	if len(dev.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(dev.Endpoints))
	}
	ep, ok := dev.Endpoints[1]
	if !ok {
		t.Fatal("expected endpoint 1 to exist")
	}
	if _, ok := ep.Input[OnOffClusterID]; !ok {
		t.Fatal("expected endpoint 1 to carry an OnOff input cluster")
	}
}

func TestIEEEFromByteIsDistinctPerInput(t *testing.T) {
	a := IEEEFromByte(1)
	b := IEEEFromByte(2)
	if a == b {
		t.Fatal("expected distinct addresses for distinct inputs")
	}
}
