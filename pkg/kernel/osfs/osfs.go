// Package osfs binds pkg/kernel.FS to the real nvmet configfs tree
// under /sys/kernel/config/nvmet/ using os and path/filepath.
package osfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vifino/nvmetctl/pkg/kernel"
	"github.com/vifino/nvmetctl/pkg/nvmeterr"
)

// DefaultRoot is the canonical location of the nvmet configfs tree.
const DefaultRoot = "/sys/kernel/config/nvmet/"

// FS implements kernel.FS against a real directory tree rooted at Root.
type FS struct {
	Root string
}

var _ kernel.FS = (*FS)(nil)

// New returns an FS rooted at root. An empty root defaults to DefaultRoot.
func New(root string) *FS {
	if root == "" {
		root = DefaultRoot
	}
	return &FS{Root: root}
}

func (f *FS) path(elem ...string) string {
	return filepath.Join(append([]string{f.Root}, elem...)...)
}

// CheckRoot verifies the nvmet configfs root exists.
func (f *FS) CheckRoot() error {
	if _, err := os.Stat(f.Root); err != nil {
		if os.IsNotExist(err) {
			return nvmeterr.ErrNoNvmetSysfs
		}
		return fmt.Errorf("stat %s: %w", f.Root, err)
	}
	return nil
}

func readDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// readAttr implements the attribute read contract: open, read to end,
// trim trailing whitespace.
func readAttr(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\r\n\t "), nil
}

// writeAttr implements the attribute write contract: a single write
// call, no trailing newline. Certain kernel attributes refuse writes
// split across multiple syscalls, so this must not use os.WriteFile's
// convenience wrapper if it ever changed to chunk (it doesn't, but the
// single-Write() call below keeps the contract explicit).
func writeAttr(path, value string) error {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	if _, err := fh.Write([]byte(value)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (f *FS) ListHosts() ([]string, error) {
	return readDirNames(f.path("hosts"))
}

func (f *FS) CreateHost(nqn string) error {
	if err := os.Mkdir(f.path("hosts", nqn), 0755); err != nil {
		return fmt.Errorf("create host %s: %w", nqn, err)
	}
	return nil
}

func (f *FS) RemoveHost(nqn string) error {
	if err := os.Remove(f.path("hosts", nqn)); err != nil {
		return fmt.Errorf("remove host %s: %w", nqn, err)
	}
	return nil
}

func (f *FS) ListPorts() ([]uint16, error) {
	names, err := readDirNames(f.path("ports"))
	if err != nil {
		return nil, err
	}
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, err := strconv.ParseUint(name, 10, 16)
		if err != nil {
			continue
		}
		ids = append(ids, uint16(id))
	}
	return ids, nil
}

func (f *FS) CreatePort(id uint16) error {
	if err := os.Mkdir(f.path("ports", portDir(id)), 0755); err != nil {
		return fmt.Errorf("create port %d: %w", id, err)
	}
	return nil
}

func (f *FS) RemovePort(id uint16) error {
	if err := os.Remove(f.path("ports", portDir(id))); err != nil {
		return fmt.Errorf("remove port %d: %w", id, err)
	}
	return nil
}

func (f *FS) PortExists(id uint16) (bool, error) {
	return exists(f.path("ports", portDir(id)))
}

func (f *FS) ReadPortAttr(id uint16, name string) (string, error) {
	return readAttr(f.path("ports", portDir(id), name))
}

func (f *FS) WritePortAttr(id uint16, name, value string) error {
	return writeAttr(f.path("ports", portDir(id), name), value)
}

func (f *FS) ListPortSubsystems(id uint16) ([]string, error) {
	return readDirNames(f.path("ports", portDir(id), "subsystems"))
}

func (f *FS) LinkPortSubsystem(id uint16, nqn string) error {
	target := filepath.Join("..", "..", "..", "subsystems", nqn)
	link := f.path("ports", portDir(id), "subsystems", nqn)
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("link subsystem %s to port %d: %w", nqn, id, err)
	}
	return nil
}

func (f *FS) UnlinkPortSubsystem(id uint16, nqn string) error {
	if err := os.Remove(f.path("ports", portDir(id), "subsystems", nqn)); err != nil {
		return fmt.Errorf("unlink subsystem %s from port %d: %w", nqn, id, err)
	}
	return nil
}

func (f *FS) ListSubsystems() ([]string, error) {
	return readDirNames(f.path("subsystems"))
}

func (f *FS) CreateSubsystem(nqn string) error {
	if err := os.Mkdir(f.path("subsystems", nqn), 0755); err != nil {
		return fmt.Errorf("create subsystem %s: %w", nqn, err)
	}
	return nil
}

func (f *FS) RemoveSubsystem(nqn string) error {
	if err := os.Remove(f.path("subsystems", nqn)); err != nil {
		return fmt.Errorf("remove subsystem %s: %w", nqn, err)
	}
	return nil
}

func (f *FS) SubsystemExists(nqn string) (bool, error) {
	return exists(f.path("subsystems", nqn))
}

func (f *FS) ReadSubsystemAttr(nqn, name string) (string, error) {
	return readAttr(f.path("subsystems", nqn, name))
}

func (f *FS) WriteSubsystemAttr(nqn, name, value string) error {
	return writeAttr(f.path("subsystems", nqn, name), value)
}

func (f *FS) ListSubsystemHosts(nqn string) ([]string, error) {
	return readDirNames(f.path("subsystems", nqn, "allowed_hosts"))
}

func (f *FS) LinkSubsystemHost(nqn, host string) error {
	target := filepath.Join("..", "..", "..", "hosts", host)
	link := f.path("subsystems", nqn, "allowed_hosts", host)
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("link host %s to subsystem %s: %w", host, nqn, err)
	}
	return nil
}

func (f *FS) UnlinkSubsystemHost(nqn, host string) error {
	if err := os.Remove(f.path("subsystems", nqn, "allowed_hosts", host)); err != nil {
		return fmt.Errorf("unlink host %s from subsystem %s: %w", host, nqn, err)
	}
	return nil
}

func (f *FS) ListNamespaces(nqn string) ([]uint32, error) {
	names, err := readDirNames(f.path("subsystems", nqn, "namespaces"))
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, 0, len(names))
	for _, name := range names {
		id, err := strconv.ParseUint(name, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}

func (f *FS) CreateNamespace(nqn string, nsid uint32) error {
	if err := os.Mkdir(f.path("subsystems", nqn, "namespaces", nsDir(nsid)), 0755); err != nil {
		return fmt.Errorf("create namespace %d of %s: %w", nsid, nqn, err)
	}
	return nil
}

func (f *FS) RemoveNamespace(nqn string, nsid uint32) error {
	if err := os.Remove(f.path("subsystems", nqn, "namespaces", nsDir(nsid))); err != nil {
		return fmt.Errorf("remove namespace %d of %s: %w", nsid, nqn, err)
	}
	return nil
}

func (f *FS) ReadNamespaceAttr(nqn string, nsid uint32, name string) (string, error) {
	return readAttr(f.path("subsystems", nqn, "namespaces", nsDir(nsid), name))
}

func (f *FS) WriteNamespaceAttr(nqn string, nsid uint32, name, value string) error {
	return writeAttr(f.path("subsystems", nqn, "namespaces", nsDir(nsid), name), value)
}

// ResolveDevicePath canonicalizes path and verifies it names a block device.
func (f *FS) ResolveDevicePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve device path %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve device path %s: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat device path %s: %w", resolved, err)
	}
	if info.Mode()&os.ModeDevice == 0 || info.Mode()&os.ModeCharDevice != 0 {
		return "", nvmeterr.NewValidationError(nvmeterr.KindInvalidDevice, resolved+" is not a block device")
	}
	return resolved, nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

func portDir(id uint16) string {
	return strconv.FormatUint(uint64(id), 10)
}

func nsDir(nsid uint32) string {
	return strconv.FormatUint(uint64(nsid), 10)
}
