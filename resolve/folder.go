// Package resolve maps loose human identifiers, folder names, paths and
// name fragments, to the canonical Exchange handles the protocol requires.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mggger/ews-mcp/ews"
)

// FolderDirectory is the slice of the Exchange client the folder resolver
// needs.
type FolderDirectory interface {
	GetFolder(ctx context.Context, ref ews.FolderRef) (*ews.Folder, error)
	ListChildFolders(ctx context.Context, parent ews.FolderRef) ([]ews.Folder, error)
}

// FolderNotFoundError reports an identifier that matched no folder. It
// carries the well-known names so callers can suggest alternatives.
type FolderNotFoundError struct {
	Identifier string
	Segment    string // the path segment that missed, when navigating a path
	Parent     string // name of the folder searched for that segment
	Known      []string
}

func (e *FolderNotFoundError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("folder path %q: no child named %q under %q", e.Identifier, e.Segment, e.Parent)
	}
	return fmt.Sprintf("folder %q not found; well-known names: %s (or pass a full path like Inbox/Sub, or a folder id)",
		e.Identifier, strings.Join(e.Known, ", "))
}

// wellKnown maps lower-cased folder names and their common aliases to
// distinguished folder ids. Lookups here never touch the network.
var wellKnown = map[string]string{
	"inbox":         ews.DistinguishedInbox,
	"sent":          ews.DistinguishedSentItems,
	"sentitems":     ews.DistinguishedSentItems,
	"sent items":    ews.DistinguishedSentItems,
	"drafts":        ews.DistinguishedDrafts,
	"trash":         ews.DistinguishedDeletedItems,
	"deleted":       ews.DistinguishedDeletedItems,
	"deleteditems":  ews.DistinguishedDeletedItems,
	"deleted items": ews.DistinguishedDeletedItems,
	"junk":          ews.DistinguishedJunk,
	"junkemail":     ews.DistinguishedJunk,
	"junk email":    ews.DistinguishedJunk,
	"spam":          ews.DistinguishedJunk,
	"outbox":        ews.DistinguishedOutbox,
	"archive":       ews.DistinguishedArchive,
	"calendar":      ews.DistinguishedCalendar,
	"contacts":      ews.DistinguishedContacts,
	"tasks":         ews.DistinguishedTasks,
	"notes":         ews.DistinguishedNotes,
	"root":          ews.DistinguishedRoot,
	"msgfolderroot": ews.DistinguishedRoot,
}

// canonicalNames is the subset of wellKnown offered in error hints.
var canonicalNames = []string{
	"inbox", "sent", "drafts", "trash", "junk", "outbox",
	"archive", "calendar", "contacts", "tasks", "notes", "root",
}

func knownNames() []string {
	out := make([]string, len(canonicalNames))
	copy(out, canonicalNames)
	return out
}

// DefaultSearchDepth bounds the recursive name search when no explicit
// depth is configured.
const DefaultSearchDepth = 3

// FolderResolver resolves folder identifiers through an ordered strategy
// chain: well-known name, canonical id probe, slash path navigation, then a
// depth-bounded recursive search.
type FolderResolver struct {
	dir   FolderDirectory
	depth int
}

// NewFolderResolver returns a resolver searching at most depth levels below
// each search root.
func NewFolderResolver(dir FolderDirectory, depth int) *FolderResolver {
	if depth <= 0 {
		depth = DefaultSearchDepth
	}
	return &FolderResolver{dir: dir, depth: depth}
}

// Resolve maps an identifier to a folder handle. The first strategy that
// produces a handle wins; a path identifier that misses fails immediately
// without falling back to search.
func (r *FolderResolver) Resolve(ctx context.Context, identifier string) (ews.FolderRef, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return ews.FolderRef{}, &FolderNotFoundError{Identifier: identifier, Known: knownNames()}
	}

	if distinguished, ok := wellKnown[strings.ToLower(id)]; ok {
		return ews.FolderRef{Distinguished: distinguished}, nil
	}

	if looksLikeFolderID(id) {
		folder, err := r.dir.GetFolder(ctx, ews.FolderRef{ID: id})
		if err == nil {
			return folder.Ref(), nil
		}
		if !ews.IsNotFound(err) {
			return ews.FolderRef{}, err
		}
		// short names can coincidentally be id-shaped, keep going
		slog.Debug("folder id probe missed", "identifier", id)
	}

	if strings.Contains(id, "/") {
		return r.navigatePath(ctx, id)
	}

	ref, found, err := r.search(ctx, id)
	if err != nil {
		return ews.FolderRef{}, err
	}
	if !found {
		return ews.FolderRef{}, &FolderNotFoundError{Identifier: identifier, Known: knownNames()}
	}
	return ref, nil
}

// looksLikeFolderID reports whether s has the shape of an EwsId: long,
// base64-like and free of path separators. Exchange ids are well over 46
// characters; anything shorter is treated as a name.
func looksLikeFolderID(s string) bool {
	if len(s) < 46 || strings.Contains(s, "/") {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+' || c == '=':
		default:
			return false
		}
	}
	return true
}

// navigatePath walks a slash path segment by segment. The first segment must
// be a well-known name; each later segment must name a direct child of the
// previous one. A miss fails fast, naming the segment and its parent.
func (r *FolderResolver) navigatePath(ctx context.Context, path string) (ews.FolderRef, error) {
	segments := strings.Split(path, "/")
	first := strings.TrimSpace(segments[0])
	distinguished, ok := wellKnown[strings.ToLower(first)]
	if !ok {
		return ews.FolderRef{}, &FolderNotFoundError{
			Identifier: path,
			Segment:    first,
			Parent:     "mailbox root",
			Known:      knownNames(),
		}
	}
	current := ews.FolderRef{Distinguished: distinguished}
	parentName := first
	for _, raw := range segments[1:] {
		segment := strings.TrimSpace(raw)
		if segment == "" {
			continue
		}
		children, err := r.dir.ListChildFolders(ctx, current)
		if err != nil {
			return ews.FolderRef{}, err
		}
		next, ok := childNamed(children, segment)
		if !ok {
			return ews.FolderRef{}, &FolderNotFoundError{
				Identifier: path,
				Segment:    segment,
				Parent:     parentName,
				Known:      knownNames(),
			}
		}
		current = next.Ref()
		parentName = next.DisplayName
	}
	return current, nil
}

func childNamed(children []ews.Folder, name string) (ews.Folder, bool) {
	for _, c := range children {
		if strings.EqualFold(c.DisplayName, name) {
			return c, true
		}
	}
	return ews.Folder{}, false
}

type searchNode struct {
	ref   ews.FolderRef
	depth int
}

// search runs a depth-bounded DFS for a folder named name, first under the
// inbox, then from the mailbox root. The first match in traversal order
// wins.
func (r *FolderResolver) search(ctx context.Context, name string) (ews.FolderRef, bool, error) {
	roots := []string{ews.DistinguishedInbox, ews.DistinguishedRoot}
	visited := make(map[string]bool)
	for _, root := range roots {
		stack := []searchNode{{ref: ews.FolderRef{Distinguished: root}, depth: 0}}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if n.depth >= r.depth {
				continue
			}
			if n.ref.ID != "" {
				if visited[n.ref.ID] {
					continue
				}
				visited[n.ref.ID] = true
			}
			children, err := r.dir.ListChildFolders(ctx, n.ref)
			if err != nil {
				return ews.FolderRef{}, false, err
			}
			for _, c := range children {
				if strings.EqualFold(c.DisplayName, name) {
					return c.Ref(), true, nil
				}
			}
			// push in reverse so the first child is expanded first
			for i := len(children) - 1; i >= 0; i-- {
				if children[i].ChildCount == 0 {
					continue
				}
				stack = append(stack, searchNode{ref: children[i].Ref(), depth: n.depth + 1})
			}
		}
	}
	return ews.FolderRef{}, false, nil
}
