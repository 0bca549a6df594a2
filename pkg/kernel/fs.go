// Package kernel implements the reconciliation executor: the layer
// that owns every side effect this program has, translating
// pkg/state.StateDelta values into mutations of the NVMe-oF target
// configfs tree rooted at /sys/kernel/config/nvmet/.
//
// The mutation logic in executor.go is written purely against the FS
// interface below so tests run against pkg/kernel/fakefs instead of
// the real tree; pkg/kernel/osfs provides the production binding.
package kernel

// FS is the narrow abstraction the executor mutates through. Every
// method corresponds to one primitive configfs operation: create or
// remove a directory, create or remove a symlink, read or write a
// single attribute file. Implementations MUST perform each write as a
// single syscall-level write (some kernel attributes reject writes
// split across multiple calls) and MUST NOT follow symlinks when
// listing a directory's entries.
type FS interface {
	// CheckRoot verifies the nvmet configfs root exists, returning
	// nvmeterr.ErrNoNvmetSysfs if the nvmet kernel module isn't loaded.
	CheckRoot() error

	ListHosts() ([]string, error)
	CreateHost(nqn string) error
	RemoveHost(nqn string) error

	ListPorts() ([]uint16, error)
	CreatePort(id uint16) error
	RemovePort(id uint16) error
	PortExists(id uint16) (bool, error)

	ReadPortAttr(id uint16, name string) (string, error)
	WritePortAttr(id uint16, name, value string) error

	ListPortSubsystems(id uint16) ([]string, error)
	LinkPortSubsystem(id uint16, nqn string) error
	UnlinkPortSubsystem(id uint16, nqn string) error

	ListSubsystems() ([]string, error)
	CreateSubsystem(nqn string) error
	RemoveSubsystem(nqn string) error
	SubsystemExists(nqn string) (bool, error)

	ReadSubsystemAttr(nqn, name string) (string, error)
	WriteSubsystemAttr(nqn, name, value string) error

	ListSubsystemHosts(nqn string) ([]string, error)
	LinkSubsystemHost(nqn, host string) error
	UnlinkSubsystemHost(nqn, host string) error

	ListNamespaces(nqn string) ([]uint32, error)
	CreateNamespace(nqn string, nsid uint32) error
	RemoveNamespace(nqn string, nsid uint32) error

	ReadNamespaceAttr(nqn string, nsid uint32, name string) (string, error)
	WriteNamespaceAttr(nqn string, nsid uint32, name, value string) error

	// ResolveDevicePath canonicalizes path to an absolute form and
	// verifies it names a block device, per spec: the written
	// device_path value must be the canonicalized absolute path.
	ResolveDevicePath(path string) (string, error)
}

// Port attribute file names under ports/<pid>/.
const (
	AttrTrType  = "addr_trtype"
	AttrAdrFam  = "addr_adrfam"
	AttrTrAddr  = "addr_traddr"
	AttrTrSvcID = "addr_trsvcid"
)

// Subsystem attribute file names under subsystems/<nqn>/.
const (
	AttrModel         = "attr_model"
	AttrSerial        = "attr_serial"
	AttrAllowAnyHost  = "attr_allow_any_host"
)

// Namespace attribute file names under subsystems/<nqn>/namespaces/<nsid>/.
const (
	AttrEnable      = "enable"
	AttrDevicePath  = "device_path"
	AttrDeviceUUID  = "device_uuid"
	AttrDeviceNGUID = "device_nguid"
)
