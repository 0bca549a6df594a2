package state

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vifino/nvmetctl/pkg/nvmeterr"
)

// snapshotDocument is the flat, on-disk shape of spec.md section 6: a
// document with "subsystems" and "ports" top-level members and an
// optional "version" used to reject documents from a newer, incompatible
// writer. Struct tags carry both yaml and json, matching the dual-tagging
// habit of the teacher's cmd_status.go DTOs.
type snapshotDocument struct {
	Version    *int                           `json:"version,omitempty" yaml:"version,omitempty"`
	Subsystems map[string]snapshotSubsystem   `json:"subsystems" yaml:"subsystems"`
	Ports      map[uint16]snapshotPort        `json:"ports" yaml:"ports"`
}

type snapshotSubsystem struct {
	Model        *string                     `json:"model,omitempty" yaml:"model,omitempty"`
	Serial       *string                     `json:"serial,omitempty" yaml:"serial,omitempty"`
	AllowedHosts []string                    `json:"allowedHosts,omitempty" yaml:"allowedHosts,omitempty"`
	Namespaces   map[uint32]snapshotNamespace `json:"namespaces" yaml:"namespaces"`
}

type snapshotNamespace struct {
	Enabled     bool       `json:"enabled" yaml:"enabled"`
	DevicePath  string     `json:"devicePath" yaml:"devicePath"`
	DeviceUUID  *uuid.UUID `json:"deviceUuid,omitempty" yaml:"deviceUuid,omitempty"`
	DeviceNGUID *uuid.UUID `json:"deviceNguid,omitempty" yaml:"deviceNguid,omitempty"`
}

type snapshotPort struct {
	// PortType discriminator: "loop", "tcp", "rdma", "fc".
	Type       string   `json:"port_type" yaml:"port_type"`
	Addr       string   `json:"port_addr,omitempty" yaml:"port_addr,omitempty"`
	Subsystems []string `json:"subsystems" yaml:"subsystems"`
}

// Marshal renders s as the flat YAML snapshot document of spec.md
// section 6.
func Marshal(s State) ([]byte, error) {
	doc := snapshotDocument{
		Subsystems: make(map[string]snapshotSubsystem, len(s.Subsystems)),
		Ports:      make(map[uint16]snapshotPort, len(s.Ports)),
	}

	for _, nqn := range sortedStringKeys(s.Subsystems) {
		sub := s.Subsystems[nqn]
		doc.Subsystems[nqn] = snapshotSubsystem{
			Model:        sub.Model,
			Serial:       sub.Serial,
			AllowedHosts: sortedStringSet(sub.AllowedHosts),
			Namespaces:   marshalNamespaces(sub.Namespaces),
		}
	}

	for _, id := range sortedUint16Keys(s.Ports) {
		port := s.Ports[id]
		sp := snapshotPort{
			Type:       port.PortType.Kind.String(),
			Subsystems: sortedStringSet(port.Subsystems),
		}
		switch port.PortType.Kind {
		case PortTCP, PortRDMA:
			sp.Addr = port.PortType.Addr.String()
		case PortFC:
			sp.Addr = port.PortType.FC.String()
		}
		doc.Ports[id] = sp
	}

	return yaml.Marshal(doc)
}

func marshalNamespaces(nss map[uint32]Namespace) map[uint32]snapshotNamespace {
	out := make(map[uint32]snapshotNamespace, len(nss))
	for nsid, ns := range nss {
		out[nsid] = snapshotNamespace{
			Enabled:     ns.Enabled,
			DevicePath:  ns.DevicePath,
			DeviceUUID:  ns.DeviceUUID,
			DeviceNGUID: ns.DeviceNGUID,
		}
	}
	return out
}

// Unmarshal parses a flat YAML snapshot document into a State. An empty
// document deserializes to an empty State. Any non-zero "version" field
// is rejected with ErrUnsupportedConfigVersion.
func Unmarshal(data []byte) (State, error) {
	var doc snapshotDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("failed to parse snapshot document: %w", err)
	}

	if doc.Version != nil && *doc.Version != 0 {
		return State{}, nvmeterr.UnsupportedConfigVersion(*doc.Version)
	}

	s := NewState()
	for nqn, sub := range doc.Subsystems {
		hosts := make(map[string]struct{}, len(sub.AllowedHosts))
		for _, h := range sub.AllowedHosts {
			hosts[h] = struct{}{}
		}
		namespaces := make(map[uint32]Namespace, len(sub.Namespaces))
		for nsid, ns := range sub.Namespaces {
			namespaces[nsid] = Namespace{
				Enabled:     ns.Enabled,
				DevicePath:  ns.DevicePath,
				DeviceUUID:  ns.DeviceUUID,
				DeviceNGUID: ns.DeviceNGUID,
			}
		}
		s.Subsystems[nqn] = Subsystem{
			Model:        sub.Model,
			Serial:       sub.Serial,
			AllowedHosts: hosts,
			Namespaces:   namespaces,
		}
	}

	for id, port := range doc.Ports {
		pt, err := unmarshalPortType(port.Type, port.Addr)
		if err != nil {
			return State{}, fmt.Errorf("port %d: %w", id, err)
		}
		subs := make(map[string]struct{}, len(port.Subsystems))
		for _, nqn := range port.Subsystems {
			subs[nqn] = struct{}{}
		}
		s.Ports[id] = NewPort(pt, subs)
	}

	return s, nil
}

func unmarshalPortType(kind, addr string) (PortType, error) {
	switch kind {
	case "loop":
		return LoopPortType, nil
	case "tcp", "rdma":
		ap, err := netip.ParseAddrPort(addr)
		if err != nil {
			return PortType{}, fmt.Errorf("invalid port_addr %q: %w", addr, err)
		}
		if kind == "tcp" {
			return TCPPortType(ap), nil
		}
		return RDMAPortType(ap), nil
	case "fc":
		fc, err := ParseFcAddr(addr)
		if err != nil {
			return PortType{}, err
		}
		return FCPortType(fc), nil
	default:
		return PortType{}, nvmeterr.UnsupportedTrType(kind)
	}
}
