// Package nvmeterr collects the typed error taxonomy shared by validation,
// state handling, and the reconciliation executor.
//
// Callers should prefer errors.Is against the sentinel values below, or
// errors.As against *ValidationError for the validation sub-kinds.
package nvmeterr

import (
	"errors"
	"fmt"
)

// Environment errors.
var (
	// ErrNoNvmetSysfs is returned when the configfs root does not exist,
	// meaning the nvmet kernel modules are not loaded.
	ErrNoNvmetSysfs = errors.New("nvmet module not loaded: /sys/kernel/config/nvmet does not exist")
)

// Parse errors.
var (
	ErrUnsupportedTrType = errors.New("unsupported addr_trtype")
	ErrInvalidFCAddr     = errors.New("invalid fibre channel address")
	ErrInvalidFCWWNN     = errors.New("invalid fibre channel WWNN")
	ErrInvalidFCWWPN     = errors.New("invalid fibre channel WWPN")
)

// Absence errors.
var (
	ErrNoSuchPort      = errors.New("no such port")
	ErrNoSuchSubsystem = errors.New("no such subsystem")
	ErrNoSuchHost      = errors.New("no such host")
	ErrNoSuchNamespace = errors.New("no such namespace")

	// ErrMissingDeviceIdentifier is returned when a scanned namespace's
	// device_uuid/device_nguid attribute reads back empty. The kernel
	// assigns both as soon as a namespace is created, so an empty
	// value on a live tree indicates a tree in a state the state
	// model cannot represent, not an absent-but-valid value.
	ErrMissingDeviceIdentifier = errors.New("missing device identifier")
)

// Conflict errors.
var (
	ErrExistingSubsystem = errors.New("subsystem already exists")
	ErrExistingNamespace = errors.New("namespace already exists")
)

// Snapshot errors.
var (
	ErrUnsupportedConfigVersion = errors.New("unsupported config version")
)

// NoSuchPort wraps ErrNoSuchPort with the offending port ID.
func NoSuchPort(id uint16) error {
	return fmt.Errorf("%w: port %d", ErrNoSuchPort, id)
}

// NoSuchSubsystem wraps ErrNoSuchSubsystem with the offending NQN.
func NoSuchSubsystem(nqn string) error {
	return fmt.Errorf("%w: subsystem %q", ErrNoSuchSubsystem, nqn)
}

// NoSuchHost wraps ErrNoSuchHost with the offending NQN.
func NoSuchHost(nqn string) error {
	return fmt.Errorf("%w: host %q", ErrNoSuchHost, nqn)
}

// NoSuchNamespace wraps ErrNoSuchNamespace with the offending nsid/subsystem pair.
func NoSuchNamespace(nsid uint32, nqn string) error {
	return fmt.Errorf("%w: namespace %d in subsystem %q", ErrNoSuchNamespace, nsid, nqn)
}

// MissingDeviceIdentifier wraps ErrMissingDeviceIdentifier with the
// offending namespace/attribute.
func MissingDeviceIdentifier(nsid uint32, nqn, attr string) error {
	return fmt.Errorf("%w: namespace %d in subsystem %q has no %s", ErrMissingDeviceIdentifier, nsid, nqn, attr)
}

// ExistingSubsystem wraps ErrExistingSubsystem with the offending NQN.
func ExistingSubsystem(nqn string) error {
	return fmt.Errorf("%w: subsystem %q", ErrExistingSubsystem, nqn)
}

// ExistingNamespace wraps ErrExistingNamespace with the offending nsid/subsystem pair.
func ExistingNamespace(nsid uint32, nqn string) error {
	return fmt.Errorf("%w: namespace %d in subsystem %q", ErrExistingNamespace, nsid, nqn)
}

// UnsupportedConfigVersion wraps ErrUnsupportedConfigVersion with the offending version.
func UnsupportedConfigVersion(version int) error {
	return fmt.Errorf("%w: %d", ErrUnsupportedConfigVersion, version)
}

// UnsupportedTrType wraps ErrUnsupportedTrType with the offending addr_trtype value.
func UnsupportedTrType(trtype string) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedTrType, trtype)
}

// InvalidFCAddr wraps ErrInvalidFCAddr with the offending input.
func InvalidFCAddr(s string) error {
	return fmt.Errorf("%w: expected format nn-0x1000000044001123:pn-0x2000000055001123 or nn-1000000044001123:pn-2000000055001123, got %q", ErrInvalidFCAddr, s)
}

// ValidationKind enumerates the validation sub-kinds from spec.md section 7.
type ValidationKind string

// Validation sub-kinds.
const (
	KindNQNNotASCII        ValidationKind = "nqn_not_ascii"
	KindNQNTooLong         ValidationKind = "nqn_too_long"
	KindNQNTooShort        ValidationKind = "nqn_too_short"
	KindNQNMissingPrefix   ValidationKind = "nqn_missing_prefix"
	KindNQNUUIDInvalid     ValidationKind = "nqn_uuid_invalid"
	KindNQNInvalidDate     ValidationKind = "nqn_invalid_date"
	KindNQNInvalidDomain   ValidationKind = "nqn_invalid_domain"
	KindNQNInvalidIdentity ValidationKind = "nqn_invalid_identifier"
	KindNQNReservedDisc    ValidationKind = "nqn_reserved_discovery"
	KindInvalidModel       ValidationKind = "invalid_model"
	KindInvalidSerial      ValidationKind = "invalid_serial"
	KindInvalidNSID        ValidationKind = "invalid_nsid"
	KindInvalidDevice      ValidationKind = "invalid_device"
)

// ValidationError is the Go-idiomatic analogue of the Rust taxonomy's
// validation variants: one error type, a Kind to switch on, and the
// offending value for a human-readable message.
type ValidationError struct {
	Kind  ValidationKind
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindNQNNotASCII:
		return fmt.Sprintf("NVMe Qualified Name is not ASCII-only: %s", e.Value)
	case KindNQNTooLong:
		return fmt.Sprintf("NVMe Qualified Name is longer than 223 bytes: %s", e.Value)
	case KindNQNTooShort:
		return fmt.Sprintf("NVMe Qualified Name is shorter than 15 bytes: %s", e.Value)
	case KindNQNMissingPrefix:
		return fmt.Sprintf("NVMe Qualified Name does not start with 'nqn.': %s", e.Value)
	case KindNQNUUIDInvalid:
		return fmt.Sprintf("NVMe Qualified Name in UUID-Format does not have valid UUID: %s", e.Value)
	case KindNQNInvalidDate:
		return fmt.Sprintf("NVMe Qualified Name has an invalid date: %s", e.Value)
	case KindNQNInvalidDomain:
		return fmt.Sprintf("NVMe Qualified Name should not use org.nvmexpress unless it is a UUID: %s", e.Value)
	case KindNQNInvalidIdentity:
		return fmt.Sprintf("NVMe Qualified Name has invalid reverse domain or identifier: %s", e.Value)
	case KindNQNReservedDisc:
		return "cannot create subsystem with reserved discovery NQN nqn.2014-08.org.nvmexpress.discovery"
	case KindInvalidModel:
		return fmt.Sprintf("subsystem model is invalid (ASCII, 1-40 bytes): %s", e.Value)
	case KindInvalidSerial:
		return fmt.Sprintf("subsystem serial is invalid (ASCII, 1-20 bytes): %s", e.Value)
	case KindInvalidNSID:
		return fmt.Sprintf("invalid namespace ID %s: must not be 0 or 0xFFFFFFFF", e.Value)
	case KindInvalidDevice:
		return fmt.Sprintf("invalid device: %s", e.Value)
	default:
		return fmt.Sprintf("validation error (%s): %s", e.Kind, e.Value)
	}
}

// Is allows errors.Is(err, &ValidationError{Kind: X}) to match any
// ValidationError with the same Kind, regardless of Value.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewValidationError constructs a ValidationError of the given kind.
func NewValidationError(kind ValidationKind, value string) *ValidationError {
	return &ValidationError{Kind: kind, Value: value}
}
