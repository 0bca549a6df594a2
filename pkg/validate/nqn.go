// Package validate implements the pure predicates the rest of this module
// relies on: NQN grammar, subsystem model/serial limits, and namespace ID
// range checks. Nothing in this package touches the filesystem.
package validate

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vifino/nvmetctl/pkg/nvmeterr"
)

// discoveryNQN is the reserved NQN naming the discovery controller, which
// this module refuses to manage as a regular subsystem.
const discoveryNQN = "nqn.2014-08.org.nvmexpress.discovery"

const uuidNQNPrefix = "nqn.2014-08.org.nvmexpress:uuid:"

const (
	maxNQNLen  = 223
	minNQNLen  = 15
	maxModel   = 40
	maxSerial  = 20
	reservedOK = "org.nvmexpress"
)

func isASCIIOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// NQN checks the minimal constraints every NQN must satisfy: ASCII-only
// and at most 223 bytes. It does not check the "nqn." structural grammar
// nor refuse the discovery NQN - see SubsystemNQN and CompliantNQN.
func NQN(s string) error {
	if !isASCIIOnly(s) {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNNotASCII, s)
	}
	if len(s) > maxNQNLen {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNTooLong, s)
	}
	return nil
}

// SubsystemNQN validates s as NQN and additionally refuses the reserved
// discovery controller NQN, which this module never manages.
func SubsystemNQN(s string) error {
	if err := NQN(s); err != nil {
		return err
	}
	if s == discoveryNQN {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNReservedDisc, s)
	}
	return nil
}

// CompliantNQN validates s against the full structural grammar of
// spec.md section 3: it must be at least 15 bytes, start with "nqn.", and
// either be a UUID-form NQN (nqn.2014-08.org.nvmexpress:uuid:<uuid>) or
// match nqn.YYYY-MM.<reverse-domain>:<identifier> with a non-empty,
// non-org.nvmexpress reverse domain and a non-empty identifier.
func CompliantNQN(s string) error {
	if err := NQN(s); err != nil {
		return err
	}
	if len(s) < minNQNLen {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNTooShort, s)
	}
	if !strings.HasPrefix(s, "nqn.") {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNMissingPrefix, s)
	}
	if rest, ok := strings.CutPrefix(s, uuidNQNPrefix); ok {
		if _, err := uuid.Parse(rest); err != nil {
			return nvmeterr.NewValidationError(nvmeterr.KindNQNUUIDInvalid, rest)
		}
		return nil
	}
	return validateDatedForm(s)
}

// validateDatedForm checks the nqn.YYYY-MM.<reverse-domain>:<identifier>
// shape: the 4th, 9th and 12th bytes must be '.', '-', '.', the year and
// month must parse as integers, the reverse-domain must be non-empty and
// not equal to "org.nvmexpress", and the identifier (after the first ':')
// must be non-empty.
func validateDatedForm(s string) error {
	if len(s) < 12 || s[3] != '.' || s[8] != '-' || s[11] != '.' {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNInvalidIdentity, s)
	}
	year := s[4:8]
	month := s[9:11]
	if _, err := strconv.Atoi(year); err != nil {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNInvalidDate, s)
	}
	if _, err := strconv.Atoi(month); err != nil {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNInvalidDate, s)
	}

	rest := s[12:]
	idx := strings.IndexByte(rest, ':')
	if idx < 0 {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNInvalidIdentity, s)
	}
	domain := rest[:idx]
	identifier := rest[idx+1:]
	if domain == "" || domain == reservedOK {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNInvalidDomain, s)
	}
	if identifier == "" {
		return nvmeterr.NewValidationError(nvmeterr.KindNQNInvalidIdentity, s)
	}
	return nil
}

// Model validates a subsystem model string: non-empty, ASCII-only, at
// most 40 bytes.
func Model(s string) error {
	if !isASCIIOnly(s) || s == "" || len(s) > maxModel {
		return nvmeterr.NewValidationError(nvmeterr.KindInvalidModel, s)
	}
	return nil
}

// Serial validates a subsystem serial string: non-empty, ASCII-only, at
// most 20 bytes.
func Serial(s string) error {
	if !isASCIIOnly(s) || s == "" || len(s) > maxSerial {
		return nvmeterr.NewValidationError(nvmeterr.KindInvalidSerial, s)
	}
	return nil
}

// NSID validates a namespace ID: must not be 0 or the all-namespaces
// sentinel 0xFFFFFFFF.
func NSID(nsid uint32) error {
	if nsid == 0 || nsid == 0xFFFFFFFF {
		return nvmeterr.NewValidationError(nvmeterr.KindInvalidNSID, strconv.FormatUint(uint64(nsid), 10))
	}
	return nil
}
