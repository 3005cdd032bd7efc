// Package container provides read access to the .note document container,
// a zip archive whose members all live under a single top-level directory
// named after the note. The serialized session archive and any referenced
// media assets are loaded through it.
package container

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SessionMember is the archive member holding the serialized object graph.
const SessionMember = "Session.plist"

// Container-related errors.
var (
	// ErrEmptyArchive is returned when the zip holds no members at all.
	ErrEmptyArchive = errors.New("container: archive has no members")
	// ErrMemberNotFound is returned when a referenced member is absent.
	ErrMemberNotFound = errors.New("container: member not found")
)

// Archive provides access to the members of an open .note container.
// Reads are independent and safe for concurrent use.
type Archive struct {
	reader *zip.Reader
	closer io.Closer
	root   string
}

// Open opens a .note file for reading.
func Open(filename string) (*Archive, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("container: opening archive: %w", err)
	}

	a, err := NewArchive(&zr.Reader)
	if err != nil {
		zr.Close()
		return nil, err
	}
	a.closer = zr
	return a, nil
}

// NewArchive wraps an already-open zip reader. The note's root directory is
// taken from the first member's leading path segment, the only place the
// container records it.
func NewArchive(zr *zip.Reader) (*Archive, error) {
	if len(zr.File) == 0 {
		return nil, ErrEmptyArchive
	}

	root, _, _ := strings.Cut(zr.File[0].Name, "/")
	return &Archive{reader: zr, root: root}, nil
}

// Root returns the top-level directory shared by all members.
func (a *Archive) Root() string { return a.root }

// ReadMember returns the raw bytes of the member at the given path relative
// to the note's root directory.
func (a *Archive) ReadMember(rel string) ([]byte, error) {
	name := a.root + "/" + rel
	for _, f := range a.reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("container: opening member %q: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("container: reading member %q: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("container: %q: %w", name, ErrMemberNotFound)
}

// Session returns the raw bytes of the serialized session archive.
func (a *Archive) Session() ([]byte, error) {
	return a.ReadMember(SessionMember)
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}
