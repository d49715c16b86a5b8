// Package zigbeecore is a Zigbee application-layer stack: the device and
// endpoint object graph, the ZCL wire codec, request/response correlation,
// the ZDO command set, OTA firmware delivery, network backup/restore, and
// a topology scanner, built around a single application controller that
// owns the device table and every outbound packet.
//
// # Package organization
//
//   - types: addressing, cluster/attribute ids, and the other wire-level
//     value types every other package builds on
//   - wire: primitive ZCL data-type serialization (integers, strings,
//     lists, addresses)
//   - structcodec: a declarative field/struct/record codec for composite
//     ZCL and ZDO records with conditional or list-shaped fields
//   - zcl: the ZCL foundation layer (frame header, attribute read/write/
//     report/configure commands, general status codes)
//   - cluster: the cluster definition registry and per-device cluster
//     instances that send commands and track attribute state
//   - endpoint: a device's endpoint, routing inbound frames to the
//     cluster that owns them
//   - device: the per-device object graph and its ZDO_INIT/ENDPOINTS_INIT
//     state machine
//   - zdo: the Zigbee Device Object command set endpoint 0 speaks:
//     address/descriptor queries, bind/unbind, leave, permit-join, and
//     neighbor/routing table queries
//   - controller: the application controller — TSN allocation, the
//     device table, and the concurrency gate every outbound packet
//     passes through
//   - concurrency: TSN-indexed request/reply correlation and the bounded
//     semaphore that caps in-flight requests
//   - events: the event bus device and controller state changes publish
//     to
//   - ota: the OTA upgrade image index and per-device delivery state
//     machine
//   - backup: network backup serialization and restore
//   - transport: the Radio interface a serial/socket driver implements
//
// # Thread safety
//
// Controller, Device, and Cluster are all safe for concurrent use. Each
// device owns its own correlator and endpoint map; the controller
// serializes device-table mutation and TSN allocation behind its own
// lock.
package zigbeecore
