// Package topology implements the periodic neighbor and routing table
// scanner: one active scan task at a time, preemptible by an explicit
// Scan call, paging Mgmt_Lqi_req/Mgmt_Rtg_req by StartIndex, and
// resolving NWK addresses a table page references that this core has
// never seen before.
package topology
