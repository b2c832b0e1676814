package status

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	repoSeparator = ':'
	flagOpen      = '('
	flagClose     = ')'

	nameReserved = ":(){}"
)

// Parse decodes one trimmed record span of the form
//
//	repo : master(F) machine1(F) machine2(F) ...
//
// The first entry is the master; the rest are machines in order. The span is
// rejected as a whole on the first problem, so a failed Parse never yields a
// partial record.
func Parse(span string) (Record, error) {
	sep := strings.IndexByte(span, repoSeparator)
	if sep < 0 {
		return Record{}, fmt.Errorf("%w: missing %q in %q", ErrMalformedRecord, repoSeparator, span)
	}

	repo := strings.TrimSpace(span[:sep])
	if repo == "" {
		return Record{}, fmt.Errorf("%w: empty repository name in %q", ErrMalformedRecord, span)
	}

	entries, err := parseEntries(span[sep+1:])
	if err != nil {
		return Record{}, fmt.Errorf("repository %q: %w", repo, err)
	}
	if len(entries) == 0 {
		return Record{}, fmt.Errorf("%w: repository %q has no master entry", ErrMalformedRecord, repo)
	}

	rec := Record{Repository: repo, Master: entries[0]}
	if len(entries) > 1 {
		rec.Machines = entries[1:]
	}

	return rec, nil
}

func parseEntries(s string) ([]Entry, error) {
	var entries []Entry

	pos := 0
	for {
		pos += skipSpace(s[pos:])
		if pos >= len(s) {
			return entries, nil
		}

		open := strings.IndexByte(s[pos:], flagOpen)
		if open < 0 {
			return nil, fmt.Errorf("%w: entry %q has no flag", ErrMalformedRecord, s[pos:])
		}
		open += pos

		name := s[pos:open]
		if name == "" {
			return nil, fmt.Errorf("%w: empty entry name at offset %d", ErrMalformedRecord, pos)
		}
		if strings.ContainsAny(name, nameReserved) || strings.ContainsFunc(name, unicode.IsSpace) {
			return nil, fmt.Errorf("%w: invalid entry name %q", ErrMalformedRecord, name)
		}

		if open+2 >= len(s) || s[open+2] != flagClose {
			return nil, fmt.Errorf("%w: truncated flag for entry %q", ErrMalformedRecord, name)
		}

		st, err := ParseFlag(s[open+1])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}

		entries = append(entries, Entry{Name: name, Status: st})
		pos = open + 3
	}
}

// skipSpace returns the length of the leading Unicode whitespace of s.
func skipSpace(s string) int {
	if i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }); i >= 0 {
		return i
	}
	return len(s)
}
