package status

import "fmt"

// SyncStatus is the synchronization state of one machine relative to the
// repository master.
type SyncStatus int

const (
	StatusOK     SyncStatus = iota // V: synced
	StatusNeeded                   // !: sync needed
	StatusNoDir                    // X: no directory present
	StatusFailed                   // ?: sync check failed
)

// severity ranks statuses from least to most severe. Comparisons go through
// this table and never through the constant values themselves.
var severity = map[SyncStatus]int{
	StatusOK:     0,
	StatusNeeded: 1,
	StatusNoDir:  2,
	StatusFailed: 3,
}

var flags = map[byte]SyncStatus{
	'V': StatusOK,
	'!': StatusNeeded,
	'X': StatusNoDir,
	'?': StatusFailed,
}

var names = map[SyncStatus]string{
	StatusOK:     "ok",
	StatusNeeded: "needed",
	StatusNoDir:  "no_dir",
	StatusFailed: "failed",
}

// ParseFlag maps a protocol flag character to its status.
func ParseFlag(flag byte) (SyncStatus, error) {
	s, ok := flags[flag]
	if !ok {
		return StatusOK, fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}

	return s, nil
}

// Severity returns the rank of s in the order ok < needed < no_dir < failed.
func (s SyncStatus) Severity() int {
	return severity[s]
}

// Less reports whether s is less severe than other.
func (s SyncStatus) Less(other SyncStatus) bool {
	return s.Severity() < other.Severity()
}

// Flag returns the protocol character for s.
func (s SyncStatus) Flag() byte {
	for f, v := range flags {
		if v == s {
			return f
		}
	}
	return 0
}

func (s SyncStatus) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("SyncStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s SyncStatus) MarshalText() ([]byte, error) {
	n, ok := names[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SyncStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses the text form produced by String.
func ParseStatus(text string) (SyncStatus, error) {
	for s, n := range names {
		if n == text {
			return s, nil
		}
	}
	return StatusOK, fmt.Errorf("%w: %q", ErrUnknownStatus, text)
}

// Max returns the more severe of a and b.
func Max(a, b SyncStatus) SyncStatus {
	if a.Less(b) {
		return b
	}
	return a
}

// Entry is one name(flag) pair of a record.
type Entry struct {
	Name   string
	Status SyncStatus
}

// Record is one parsed status report for a repository. Master is the first
// entry of the record; Machines are the remaining ones in record order.
type Record struct {
	Repository string
	Master     Entry
	Machines   []Entry
}
