// Package fakefs provides an in-memory pkg/kernel.FS used by tests.
// It preserves the mutation rules the real configfs tree enforces
// that matter to the executor's correctness (existence checks,
// symlink semantics) without needing root or a loaded nvmet module.
package fakefs

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/vifino/nvmetctl/pkg/kernel"
	"github.com/vifino/nvmetctl/pkg/nvmeterr"
)

type namespace struct {
	attrs map[string]string
}

type subsystem struct {
	attrs map[string]string
	hosts map[string]struct{}
	nss   map[uint32]*namespace
}

type port struct {
	attrs map[string]string
	subs  map[string]struct{}
}

// FS is an in-memory nvmet configfs fake.
type FS struct {
	RootMissing bool

	hosts map[string]struct{}
	ports map[uint16]*port
	subs  map[string]*subsystem

	// Devices is the set of paths ResolveDevicePath accepts as valid
	// block devices, keyed by the path a caller would pass in.
	Devices map[string]string
}

var _ kernel.FS = (*FS)(nil)

// New returns an empty fake tree.
func New() *FS {
	return &FS{
		hosts:   make(map[string]struct{}),
		ports:   make(map[uint16]*port),
		subs:    make(map[string]*subsystem),
		Devices: make(map[string]string),
	}
}

func (f *FS) CheckRoot() error {
	if f.RootMissing {
		return nvmeterr.ErrNoNvmetSysfs
	}
	return nil
}

func (f *FS) ListHosts() ([]string, error) {
	names := make([]string, 0, len(f.hosts))
	for h := range f.hosts {
		names = append(names, h)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FS) CreateHost(nqn string) error {
	if _, ok := f.hosts[nqn]; ok {
		return fmt.Errorf("host %s already exists", nqn)
	}
	f.hosts[nqn] = struct{}{}
	return nil
}

func (f *FS) RemoveHost(nqn string) error {
	if _, ok := f.hosts[nqn]; !ok {
		return fmt.Errorf("host %s does not exist", nqn)
	}
	delete(f.hosts, nqn)
	return nil
}

func (f *FS) ListPorts() ([]uint16, error) {
	ids := make([]uint16, 0, len(f.ports))
	for id := range f.ports {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *FS) CreatePort(id uint16) error {
	if _, ok := f.ports[id]; ok {
		return fmt.Errorf("port %d already exists", id)
	}
	f.ports[id] = &port{attrs: make(map[string]string), subs: make(map[string]struct{})}
	return nil
}

func (f *FS) RemovePort(id uint16) error {
	p, ok := f.ports[id]
	if !ok {
		return fmt.Errorf("port %d does not exist", id)
	}
	if len(p.subs) != 0 {
		return fmt.Errorf("port %d: subsystems still linked", id)
	}
	delete(f.ports, id)
	return nil
}

func (f *FS) PortExists(id uint16) (bool, error) {
	_, ok := f.ports[id]
	return ok, nil
}

func (f *FS) ReadPortAttr(id uint16, name string) (string, error) {
	p, ok := f.ports[id]
	if !ok {
		return "", fmt.Errorf("port %d does not exist", id)
	}
	return p.attrs[name], nil
}

func (f *FS) WritePortAttr(id uint16, name, value string) error {
	p, ok := f.ports[id]
	if !ok {
		return fmt.Errorf("port %d does not exist", id)
	}
	p.attrs[name] = value
	return nil
}

func (f *FS) ListPortSubsystems(id uint16) ([]string, error) {
	p, ok := f.ports[id]
	if !ok {
		return nil, fmt.Errorf("port %d does not exist", id)
	}
	names := make([]string, 0, len(p.subs))
	for nqn := range p.subs {
		names = append(names, nqn)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FS) LinkPortSubsystem(id uint16, nqn string) error {
	p, ok := f.ports[id]
	if !ok {
		return fmt.Errorf("port %d does not exist", id)
	}
	if _, ok := f.subs[nqn]; !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	p.subs[nqn] = struct{}{}
	return nil
}

func (f *FS) UnlinkPortSubsystem(id uint16, nqn string) error {
	p, ok := f.ports[id]
	if !ok {
		return fmt.Errorf("port %d does not exist", id)
	}
	delete(p.subs, nqn)
	return nil
}

func (f *FS) ListSubsystems() ([]string, error) {
	names := make([]string, 0, len(f.subs))
	for nqn := range f.subs {
		names = append(names, nqn)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FS) CreateSubsystem(nqn string) error {
	if _, ok := f.subs[nqn]; ok {
		return fmt.Errorf("subsystem %s already exists", nqn)
	}
	f.subs[nqn] = &subsystem{
		attrs: make(map[string]string),
		hosts: make(map[string]struct{}),
		nss:   make(map[uint32]*namespace),
	}
	return nil
}

func (f *FS) RemoveSubsystem(nqn string) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	if len(s.nss) != 0 {
		return fmt.Errorf("subsystem %s: namespaces still present", nqn)
	}
	delete(f.subs, nqn)
	return nil
}

func (f *FS) SubsystemExists(nqn string) (bool, error) {
	_, ok := f.subs[nqn]
	return ok, nil
}

func (f *FS) ReadSubsystemAttr(nqn, name string) (string, error) {
	s, ok := f.subs[nqn]
	if !ok {
		return "", fmt.Errorf("subsystem %s does not exist", nqn)
	}
	return s.attrs[name], nil
}

func (f *FS) WriteSubsystemAttr(nqn, name, value string) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	s.attrs[name] = value
	return nil
}

func (f *FS) ListSubsystemHosts(nqn string) ([]string, error) {
	s, ok := f.subs[nqn]
	if !ok {
		return nil, fmt.Errorf("subsystem %s does not exist", nqn)
	}
	names := make([]string, 0, len(s.hosts))
	for h := range s.hosts {
		names = append(names, h)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FS) LinkSubsystemHost(nqn, host string) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	if _, ok := f.hosts[host]; !ok {
		f.hosts[host] = struct{}{}
	}
	s.hosts[host] = struct{}{}
	return nil
}

func (f *FS) UnlinkSubsystemHost(nqn, host string) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	delete(s.hosts, host)
	return nil
}

func (f *FS) ListNamespaces(nqn string) ([]uint32, error) {
	s, ok := f.subs[nqn]
	if !ok {
		return nil, fmt.Errorf("subsystem %s does not exist", nqn)
	}
	ids := make([]uint32, 0, len(s.nss))
	for id := range s.nss {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *FS) CreateNamespace(nqn string, nsid uint32) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	if _, ok := s.nss[nsid]; ok {
		return fmt.Errorf("namespace %d already exists in %s", nsid, nqn)
	}
	// The real kernel assigns device_uuid/device_nguid as soon as a
	// namespace is created, before any explicit value is written.
	s.nss[nsid] = &namespace{attrs: map[string]string{
		"enable":       "0",
		"device_uuid":  uuid.New().String(),
		"device_nguid": uuid.New().String(),
	}}
	return nil
}

func (f *FS) RemoveNamespace(nqn string, nsid uint32) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	if _, ok := s.nss[nsid]; !ok {
		return fmt.Errorf("namespace %d does not exist in %s", nsid, nqn)
	}
	delete(s.nss, nsid)
	return nil
}

func (f *FS) ReadNamespaceAttr(nqn string, nsid uint32, name string) (string, error) {
	s, ok := f.subs[nqn]
	if !ok {
		return "", fmt.Errorf("subsystem %s does not exist", nqn)
	}
	ns, ok := s.nss[nsid]
	if !ok {
		return "", fmt.Errorf("namespace %d does not exist in %s", nsid, nqn)
	}
	return ns.attrs[name], nil
}

func (f *FS) WriteNamespaceAttr(nqn string, nsid uint32, name, value string) error {
	s, ok := f.subs[nqn]
	if !ok {
		return fmt.Errorf("subsystem %s does not exist", nqn)
	}
	ns, ok := s.nss[nsid]
	if !ok {
		return fmt.Errorf("namespace %d does not exist in %s", nsid, nqn)
	}
	if name != "enable" && ns.attrs["enable"] == "1" {
		return fmt.Errorf("namespace %d of %s: attribute %s is not writable while enabled", nsid, nqn, name)
	}
	ns.attrs[name] = value
	return nil
}

// ResolveDevicePath looks the path up in Devices, the fake's stand-in
// for "exists and is a block device". Callers populate Devices before
// exercising namespace creation/update paths.
func (f *FS) ResolveDevicePath(path string) (string, error) {
	resolved, ok := f.Devices[path]
	if !ok {
		return "", fmt.Errorf("%s is not a known block device", path)
	}
	return resolved, nil
}
