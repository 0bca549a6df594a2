// Package state defines the entity records the reconciliation executor
// reads from and writes to the kernel's nvmet configfs tree, the pure
// delta engine that diffs two States, and the flat snapshot document
// shape used to persist a State to disk.
//
// This is purely a data model: nothing in this package touches the
// filesystem. See pkg/kernel for the side-effecting executor.
package state

import (
	"net/netip"

	"github.com/google/uuid"
)

// State is the root aggregate: the full set of subsystems and ports
// known to either the kernel or a desired configuration document.
type State struct {
	Subsystems map[string]Subsystem `json:"subsystems" yaml:"subsystems"`
	Ports      map[uint16]Port      `json:"ports" yaml:"ports"`
}

// NewState returns an empty State, equivalent to the Rust State::default().
func NewState() State {
	return State{
		Subsystems: make(map[string]Subsystem),
		Ports:      make(map[uint16]Port),
	}
}

// Port is a transport endpoint exposing a set of subsystems by NQN.
type Port struct {
	PortType   PortType
	Subsystems map[string]struct{}
}

// NewPort constructs a Port with the given type and subsystem set.
func NewPort(pt PortType, subsystems map[string]struct{}) Port {
	if subsystems == nil {
		subsystems = make(map[string]struct{})
	}
	return Port{PortType: pt, Subsystems: subsystems}
}

// Equal reports whether two ports have the same type and subsystem set.
func (p Port) Equal(other Port) bool {
	if p.PortType != other.PortType {
		return false
	}
	if len(p.Subsystems) != len(other.Subsystems) {
		return false
	}
	for nqn := range p.Subsystems {
		if _, ok := other.Subsystems[nqn]; !ok {
			return false
		}
	}
	return true
}

// PortKind tags which variant of the configfs transport a Port carries.
type PortKind int

// Port transport kinds.
const (
	PortLoop PortKind = iota
	PortTCP
	PortRDMA
	PortFC
)

func (k PortKind) String() string {
	switch k {
	case PortLoop:
		return "loop"
	case PortTCP:
		return "tcp"
	case PortRDMA:
		return "rdma"
	case PortFC:
		return "fc"
	default:
		return "unknown"
	}
}

// PortType is the Go-native realization of the Rust PortType enum: a
// tag plus the payload fields relevant to that tag. Using a comparable
// struct (rather than an interface-based sum type) lets delta diffing
// compare two PortTypes with ==.
type PortType struct {
	Kind PortKind
	// Addr is used for Tcp and Rdma.
	Addr netip.AddrPort
	// FC is used for FibreChannel.
	FC FcAddr
}

// LoopPortType is the singleton loopback port type.
var LoopPortType = PortType{Kind: PortLoop}

// TCPPortType builds a Tcp PortType from a socket address.
func TCPPortType(addr netip.AddrPort) PortType {
	return PortType{Kind: PortTCP, Addr: addr}
}

// RDMAPortType builds an Rdma PortType from a socket address.
func RDMAPortType(addr netip.AddrPort) PortType {
	return PortType{Kind: PortRDMA, Addr: addr}
}

// FCPortType builds a FibreChannel PortType from an FcAddr.
func FCPortType(fc FcAddr) PortType {
	return PortType{Kind: PortFC, FC: fc}
}

// IsIPv6 reports whether a Tcp/Rdma PortType's address is IPv6.
func (p PortType) IsIPv6() bool {
	return p.Addr.Addr().Is6() && !p.Addr.Addr().Is4In6()
}

// Subsystem is a logical NVMe target: optional model/serial strings, a
// set of allowed host NQNs, and a mapping of namespace ID to Namespace.
type Subsystem struct {
	Model        *string              `json:"model,omitempty" yaml:"model,omitempty"`
	Serial       *string              `json:"serial,omitempty" yaml:"serial,omitempty"`
	AllowedHosts map[string]struct{}  `json:"-" yaml:"-"`
	Namespaces   map[uint32]Namespace `json:"namespaces" yaml:"namespaces"`
}

// NewSubsystem returns an empty Subsystem, equivalent to Subsystem::default().
func NewSubsystem() Subsystem {
	return Subsystem{
		AllowedHosts: make(map[string]struct{}),
		Namespaces:   make(map[uint32]Namespace),
	}
}

// Equal reports whether two subsystems have identical content.
func (s Subsystem) Equal(other Subsystem) bool {
	if !equalStringPtr(s.Model, other.Model) || !equalStringPtr(s.Serial, other.Serial) {
		return false
	}
	if len(s.AllowedHosts) != len(other.AllowedHosts) {
		return false
	}
	for h := range s.AllowedHosts {
		if _, ok := other.AllowedHosts[h]; !ok {
			return false
		}
	}
	if len(s.Namespaces) != len(other.Namespaces) {
		return false
	}
	for nsid, ns := range s.Namespaces {
		on, ok := other.Namespaces[nsid]
		if !ok || !ns.Equal(on) {
			return false
		}
	}
	return true
}

func equalStringPtr(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}

// Namespace is a block-device-backed surface exported by a subsystem.
type Namespace struct {
	Enabled      bool       `json:"enabled" yaml:"enabled"`
	DevicePath   string     `json:"devicePath" yaml:"devicePath"`
	DeviceUUID   *uuid.UUID `json:"deviceUuid,omitempty" yaml:"deviceUuid,omitempty"`
	DeviceNGUID  *uuid.UUID `json:"deviceNguid,omitempty" yaml:"deviceNguid,omitempty"`
}

// Equal reports whether two namespaces have identical content.
func (n Namespace) Equal(other Namespace) bool {
	if n.Enabled != other.Enabled || n.DevicePath != other.DevicePath {
		return false
	}
	return equalUUIDPtr(n.DeviceUUID, other.DeviceUUID) && equalUUIDPtr(n.DeviceNGUID, other.DeviceNGUID)
}

func equalUUIDPtr(a, b *uuid.UUID) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}
