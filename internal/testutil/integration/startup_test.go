package integration

import (
	"context"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/types"
)

// TestStartupAndPermitJoin connects to a real coordinator radio, brings up
// the network stack, and opens the network for joining briefly. It proves
// the wiring end to end rather than any particular protocol detail, which
// the package-level unit tests already cover against a MockRadio.
func TestStartupAndPermitJoin(t *testing.T) {
	app := RequireApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Startup(ctx, types.NodeInfo{}, types.NetworkInfo{}); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	defer app.Shutdown(context.Background())

	if err := app.PermitJoin(ctx, 10*time.Second, nil); err != nil {
		t.Fatalf("PermitJoin: %v", err)
	}
}
