package zigbeecore

import (
	"github.com/tj-smith47/zigbee-core/backup"
	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/controller"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/group"
	"github.com/tj-smith47/zigbee-core/ota"
	"github.com/tj-smith47/zigbee-core/topology"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/zdo"
)

// App is the composition root: a Controller wired to its ZDO client and
// server, ready for Startup. Nothing upstream of this depends on zdo
// directly — Controller only knows the ZDOHandler/device.ZDOClient seams
// — so this is the one place the two sides of endpoint 0 meet.
type App struct {
	*controller.Controller

	// ZDO is the outbound endpoint-0 client, exported for callers that
	// need to issue a bind, a leave, or a neighbor/routing table page
	// directly rather than through a higher-level operation.
	ZDO *zdo.Client

	// Topology is the neighbor/routing table scanner, wired to the same
	// ZDO client and device table; nothing runs until Scan or
	// StartPeriodicScans is called.
	Topology *topology.Scanner

	// OTA runs the firmware upgrade cluster's server side for every device;
	// Images starts empty, so populate it before offering any upgrade.
	OTA *ota.Manager

	// Images is the firmware index OTA.UpdateFirmware looks images up in.
	Images *ota.Index

	// Backups snapshots and restores the formed network's identity and key
	// material; nothing is captured until CreateBackup or
	// StartPeriodicBackups is called.
	Backups *backup.Manager

	// Groups owns multicast group membership and the device-table lookups
	// a virtual endpoint's commands need to reach every member.
	Groups *group.Manager
}

// New builds a Controller and wires its ZDO command set, topology scanner,
// and OTA manager before handing it back. registry should already have
// every cluster definition the deployment needs registered; bus may be nil
// for a controller that publishes no events.
func New(radio transport.Radio, registry *cluster.Registry, bus *events.EventBus, opts ...controller.Option) *App {
	ctrl := controller.New(radio, registry, bus, opts...)

	sender := ctrl.ZDOSender()
	discovery := concurrency.NewCorrelator()
	client := zdo.NewClient(sender, ctrl, discovery)
	server := zdo.NewServer(sender, ctrl, ctrl, ctrl, discovery, bus)

	ctrl.SetZDOClient(client)
	ctrl.OnZDOPacket(server.HandlePacket)

	scanner := topology.NewScanner(client, ctrl, ctrl)

	images := ota.NewIndex()
	otaManager := ota.NewManager(ctrl, images)
	ctrl.OnClusterPacket(ota.ClusterID, otaManager.HandlePacket)

	backups := backup.NewManager(radio, bus)
	groups := group.NewManager(ctrl, bus)

	return &App{Controller: ctrl, ZDO: client, Topology: scanner, OTA: otaManager, Images: images, Backups: backups, Groups: groups}
}
