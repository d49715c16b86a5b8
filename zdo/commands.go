package zdo

import "github.com/tj-smith47/zigbee-core/types"

// CommandID is a ZDO command/cluster id. Unlike a ZCL command, there is no
// separate cluster-id/command-id pair: the packet's cluster id is the
// command id, and a response's id is always its request's id with bit 15
// set.
type CommandID types.ClusterID

// RequestIDs, in declaration order matching the registry's grouping.
const (
	NWKAddrReq              CommandID = 0x0000
	IEEEAddrReq             CommandID = 0x0001
	NodeDescReq             CommandID = 0x0002
	PowerDescReq            CommandID = 0x0003
	SimpleDescReq           CommandID = 0x0004
	ActiveEPReq             CommandID = 0x0005
	MatchDescReq            CommandID = 0x0006
	ComplexDescReq          CommandID = 0x0010
	UserDescReq             CommandID = 0x0011
	DiscoveryCacheReq       CommandID = 0x0012
	DeviceAnnce             CommandID = 0x0013
	UserDescSet             CommandID = 0x0014
	SystemServerDiscoveryReq CommandID = 0x0015
	DiscoveryStoreReq       CommandID = 0x0016
	NodeDescStoreReq        CommandID = 0x0017
	ActiveEPStoreReq        CommandID = 0x0019
	SimpleDescStoreReq      CommandID = 0x001A
	RemoveNodeCacheReq      CommandID = 0x001B
	FindNodeCacheReq        CommandID = 0x001C
	ExtendedSimpleDescReq   CommandID = 0x001D
	ExtendedActiveEPReq     CommandID = 0x001E
	ParentAnnce             CommandID = 0x001F
	EndDeviceBindReq        CommandID = 0x0020
	BindReq                 CommandID = 0x0021
	UnbindReq               CommandID = 0x0022
	MgmtLqiReq              CommandID = 0x0031
	MgmtRtgReq              CommandID = 0x0032
	MgmtLeaveReq            CommandID = 0x0034
	MgmtPermitJoiningReq    CommandID = 0x0036
	MgmtNWKUpdateReq        CommandID = 0x0038
)

// responseBit is OR'd into a request id to get its response's id.
const responseBit = CommandID(0x8000)

// Responses, each a request id with responseBit set.
const (
	NWKAddrRsp               = NWKAddrReq | responseBit
	IEEEAddrRsp              = IEEEAddrReq | responseBit
	NodeDescRsp              = NodeDescReq | responseBit
	PowerDescRsp             = PowerDescReq | responseBit
	SimpleDescRsp            = SimpleDescReq | responseBit
	ActiveEPRsp              = ActiveEPReq | responseBit
	MatchDescRsp             = MatchDescReq | responseBit
	ComplexDescRsp           = ComplexDescReq | responseBit
	UserDescRsp              = UserDescReq | responseBit
	DiscoveryCacheRsp        = DiscoveryCacheReq | responseBit
	UserDescConf             = UserDescSet | responseBit
	SystemServerDiscoveryRsp = SystemServerDiscoveryReq | responseBit
	DiscoveryStoreRsp        = DiscoveryStoreReq | responseBit
	NodeDescStoreRsp         = NodeDescStoreReq | responseBit
	ActiveEPStoreRsp         = ActiveEPStoreReq | responseBit
	SimpleDescStoreRsp       = SimpleDescStoreReq | responseBit
	RemoveNodeCacheRsp       = RemoveNodeCacheReq | responseBit
	FindNodeCacheRsp         = FindNodeCacheReq | responseBit
	ExtendedSimpleDescRsp    = ExtendedSimpleDescReq | responseBit
	ExtendedActiveEPRsp      = ExtendedActiveEPReq | responseBit
	ParentAnnceRsp           = ParentAnnce | responseBit
	EndDeviceBindRsp         = EndDeviceBindReq | responseBit
	BindRsp                  = BindReq | responseBit
	UnbindRsp                = UnbindReq | responseBit
	MgmtLqiRsp               = MgmtLqiReq | responseBit
	MgmtRtgRsp               = MgmtRtgReq | responseBit
	MgmtLeaveRsp             = MgmtLeaveReq | responseBit
	MgmtPermitJoiningRsp     = MgmtPermitJoiningReq | responseBit
	MgmtNWKUpdateRsp         = MgmtNWKUpdateReq | responseBit
)

// commandNames names each request and response id declared above (30
// requests, 29 responses; Device_annce has none), looked up by id rather
// than dispatched to by reflection: dynamic dispatch on a command name is
// replaced here by a boot-time map, same as the cluster package's command
// registry.
var commandNames = map[CommandID]string{
	NWKAddrReq:               "NWK_addr_req",
	IEEEAddrReq:              "IEEE_addr_req",
	NodeDescReq:              "Node_Desc_req",
	PowerDescReq:             "Power_Desc_req",
	SimpleDescReq:            "Simple_Desc_req",
	ActiveEPReq:              "Active_EP_req",
	MatchDescReq:             "Match_Desc_req",
	ComplexDescReq:           "Complex_Desc_req",
	UserDescReq:              "User_Desc_req",
	DiscoveryCacheReq:        "Discovery_Cache_req",
	DeviceAnnce:              "Device_annce",
	UserDescSet:              "User_Desc_set",
	SystemServerDiscoveryReq: "System_Server_Discovery_req",
	DiscoveryStoreReq:        "Discovery_store_req",
	NodeDescStoreReq:         "Node_Desc_store_req",
	ActiveEPStoreReq:         "Active_EP_store_req",
	SimpleDescStoreReq:       "Simple_Desc_store_req",
	RemoveNodeCacheReq:       "Remove_node_cache_req",
	FindNodeCacheReq:         "Find_node_cache_req",
	ExtendedSimpleDescReq:    "Extended_Simple_Desc_req",
	ExtendedActiveEPReq:      "Extended_Active_EP_req",
	ParentAnnce:              "Parent_annce",
	EndDeviceBindReq:         "End_Device_Bind_req",
	BindReq:                  "Bind_req",
	UnbindReq:                "Unbind_req",
	MgmtLqiReq:               "Mgmt_Lqi_req",
	MgmtRtgReq:               "Mgmt_Rtg_req",
	MgmtLeaveReq:             "Mgmt_Leave_req",
	MgmtPermitJoiningReq:     "Mgmt_Permit_Joining_req",
	MgmtNWKUpdateReq:         "Mgmt_NWK_Update_req",

	NWKAddrRsp:               "NWK_addr_rsp",
	IEEEAddrRsp:              "IEEE_addr_rsp",
	NodeDescRsp:              "Node_Desc_rsp",
	PowerDescRsp:             "Power_Desc_rsp",
	SimpleDescRsp:            "Simple_Desc_rsp",
	ActiveEPRsp:              "Active_EP_rsp",
	MatchDescRsp:             "Match_Desc_rsp",
	ComplexDescRsp:           "Complex_Desc_rsp",
	UserDescRsp:              "User_Desc_rsp",
	DiscoveryCacheRsp:        "Discovery_Cache_rsp",
	UserDescConf:             "User_Desc_conf",
	SystemServerDiscoveryRsp: "System_Server_Discovery_rsp",
	DiscoveryStoreRsp:        "Discovery_Store_rsp",
	NodeDescStoreRsp:         "Node_Desc_store_rsp",
	ActiveEPStoreRsp:         "Active_EP_store_rsp",
	SimpleDescStoreRsp:       "Simple_Desc_store_rsp",
	RemoveNodeCacheRsp:       "Remove_node_cache_rsp",
	FindNodeCacheRsp:         "Find_node_cache_rsp",
	ExtendedSimpleDescRsp:    "Extended_Simple_Desc_rsp",
	ExtendedActiveEPRsp:      "Extended_Active_EP_rsp",
	ParentAnnceRsp:           "Parent_annce_rsp",
	EndDeviceBindRsp:         "End_Device_Bind_rsp",
	BindRsp:                  "Bind_rsp",
	UnbindRsp:                "Unbind_rsp",
	MgmtLqiRsp:               "Mgmt_Lqi_rsp",
	MgmtRtgRsp:               "Mgmt_Rtg_rsp",
	MgmtLeaveRsp:             "Mgmt_Leave_rsp",
	MgmtPermitJoiningRsp:     "Mgmt_Permit_Joining_rsp",
	MgmtNWKUpdateRsp:         "Mgmt_NWK_Update_rsp",
}

// Name returns the command's registered name, or "Unknown" for an id this
// core has no entry for.
func (c CommandID) Name() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "Unknown"
}

// IsResponse reports whether id's response bit is set.
func (c CommandID) IsResponse() bool { return c&responseBit != 0 }

// ClusterID views the command id as the ZigbeePacket cluster id it is sent
// under.
func (c CommandID) ClusterID() types.ClusterID { return types.ClusterID(c) }
