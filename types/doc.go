// Package types holds the address, identifier, and status value types shared
// by every layer of the core: wire codecs, the cluster registry, endpoints,
// devices, and the application controller.
//
// None of these types know how to talk to a radio or parse ZCL frames; they
// are the vocabulary the rest of the module is written in.
package types
