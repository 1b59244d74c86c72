package resolve

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/mggger/ews-mcp/ews"
)

// ContactDirectory is the slice of the Exchange client the contact finder
// needs.
type ContactDirectory interface {
	ResolveNames(ctx context.Context, name string, scope ews.ResolveScope, fullData bool) ([]ews.Contact, error)
	QueryContacts(ctx context.Context, substring string) ([]ews.Contact, error)
}

// Strategy labels which search mechanism produced a match.
type Strategy string

const (
	StrategyDirectory   Strategy = "directory"
	StrategyAddressBook Strategy = "address_book"
	StrategyWildcard    Strategy = "wildcard"
)

// ContactMatch is a contact together with the strategy that found it.
type ContactMatch struct {
	ews.Contact
	Strategy Strategy `json:"strategy"`
}

// ContactResult is the merged outcome of a contact search. An empty Matches
// slice is a valid result, not an error.
type ContactResult struct {
	Matches []ContactMatch `json:"matches"`
	Hint    string         `json:"hint,omitempty"`
}

// ContactFinder searches for people by name or address fragment. Exchange's
// ResolveNames only does exact and prefix matching, so the finder layers a
// contacts-folder substring search and a wildcard retry on top of it.
type ContactFinder struct {
	dir ContactDirectory
}

func NewContactFinder(dir ContactDirectory) *ContactFinder {
	return &ContactFinder{dir: dir}
}

// Find runs the three search strategies in order and merges their results,
// deduplicated by primary address. Directory matches come first, then new
// address-book matches, then new wildcard matches.
func (f *ContactFinder) Find(ctx context.Context, query string, scope ews.ResolveScope) (ContactResult, error) {
	query = norm.NFC.String(strings.TrimSpace(query))
	if query == "" {
		return ContactResult{}, nil
	}

	var result ContactResult
	seen := make(map[string]bool)
	add := func(contacts []ews.Contact, strategy Strategy) {
		for _, c := range contacts {
			key := dedupeKey(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Matches = append(result.Matches, ContactMatch{Contact: c, Strategy: strategy})
		}
	}

	resolved, err := f.dir.ResolveNames(ctx, query, scope, true)
	if err != nil {
		return ContactResult{}, err
	}
	add(resolved, StrategyDirectory)

	// The contacts-folder search only runs when the scope asks for contacts;
	// a directory-only scope must not surface address-book entries.
	if scopeIncludesContacts(scope) {
		local, err := f.dir.QueryContacts(ctx, query)
		if err != nil {
			return ContactResult{}, err
		}
		add(local, StrategyAddressBook)
	}

	// wildcard support varies by server version, treat failures as no results
	for _, pattern := range []string{query + "*", "*" + query + "*"} {
		contacts, err := f.dir.ResolveNames(ctx, pattern, scope, true)
		if err != nil {
			slog.Debug("wildcard resolution failed", "pattern", pattern, "error", err)
			continue
		}
		add(contacts, StrategyWildcard)
	}

	if len(result.Matches) == 0 && hasNonASCII(query) {
		result.Hint = "directory resolution often misses names with extended characters; try searching by email address instead"
	}
	return result, nil
}

func scopeIncludesContacts(scope ews.ResolveScope) bool {
	return scope == ews.ScopeContactsOnly || scope == ews.ScopeActiveDirectoryContacts
}

// dedupeKey identifies a contact by its primary address, falling back to the
// display name for entries without one.
func dedupeKey(c ews.Contact) string {
	if c.EmailAddress != "" {
		return strings.ToLower(c.EmailAddress)
	}
	return "name:" + strings.ToLower(c.DisplayName)
}

func hasNonASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}
