// Package dir is the directory entry set stored in a directory block: at
// most NDIRENT name to inode links, the first two always "." and "..".
package dir

import (
	"fmt"
	"strings"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
)

const (
	DOT    = "."
	DOTDOT = ".."
)

type Entry struct {
	Name string
	Inum common.Inum
}

type Set struct {
	ents [common.NDIRENT]Entry
	n    uint64
}

func Init(self common.Inum, parent common.Inum) *Set {
	s := &Set{}
	s.ents[0] = Entry{Name: DOT, Inum: self}
	s.ents[1] = Entry{Name: DOTDOT, Inum: parent}
	s.n = 2
	return s
}

// ValidName reports whether name can be stored as a directory entry.
func ValidName(name string) error {
	if name == "" || name == DOT || name == DOTDOT || strings.Contains(name, "/") {
		return fmt.Errorf("name %q: %w", name, common.ErrInvalidName)
	}
	if uint64(len(name)) >= common.NAMELEN {
		return fmt.Errorf("name %q: %w", name, common.ErrNameTooLong)
	}
	return nil
}

func (s *Set) Len() uint64 {
	return s.n
}

func (s *Set) IsFull() bool {
	return s.n == common.NDIRENT
}

// IsEmpty is true when only "." and ".." remain.
func (s *Set) IsEmpty() bool {
	return s.n == 2
}

func (s *Set) index(name string) int {
	for i := uint64(0); i < s.n; i++ {
		if s.ents[i].Name == name {
			return int(i)
		}
	}
	return -1
}

func (s *Set) Find(name string) (common.Inum, error) {
	i := s.index(name)
	if i < 0 {
		return common.NULLINUM, fmt.Errorf("entry %q: %w", name, common.ErrNotFound)
	}
	return s.ents[i].Inum, nil
}

// Insert appends name. A duplicate is reported even when the set is full;
// neither failure changes the set.
func (s *Set) Insert(name string, inum common.Inum) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if s.index(name) >= 0 {
		return fmt.Errorf("entry %q: %w", name, common.ErrDuplicateName)
	}
	if s.IsFull() {
		return fmt.Errorf("inserting %q: %w", name, common.ErrDirectoryFull)
	}
	s.ents[s.n] = Entry{Name: name, Inum: inum}
	s.n++
	return nil
}

// Remove deletes name and shifts the later entries down.
func (s *Set) Remove(name string) error {
	if name == DOT || name == DOTDOT {
		return fmt.Errorf("removing %q: %w", name, common.ErrProtectedEntry)
	}
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("entry %q: %w", name, common.ErrNotFound)
	}
	copy(s.ents[i:s.n], s.ents[i+1:s.n])
	s.n--
	s.ents[s.n] = Entry{}
	return nil
}

func (s *Set) Entries() []Entry {
	ents := make([]Entry, s.n)
	copy(ents, s.ents[:s.n])
	return ents
}

// Children are the entries other than "." and "..".
func (s *Set) Children() []Entry {
	return s.Entries()[2:]
}

func (s *Set) Self() common.Inum {
	return s.ents[0].Inum
}

func (s *Set) Parent() common.Inum {
	return s.ents[1].Inum
}

func (s *Set) Encode() []byte {
	enc := marshal.NewEnc(common.DIRSZ)
	for i := uint64(0); i < common.NDIRENT; i++ {
		// name bytes are filled in below
		enc.PutInt(0)
		enc.PutInt(0)
		enc.PutInt(uint64(s.ents[i].Inum))
	}
	enc.PutInt(s.n)
	b := enc.Finish()
	for i := uint64(0); i < s.n; i++ {
		buf.PutName(b[i*common.DIRENTSZ:], s.ents[i].Name)
	}
	return b
}

func Decode(b []byte) (*Set, error) {
	if uint64(len(b)) < common.DIRSZ {
		return nil, fmt.Errorf("decoding directory: have %d bytes: %w",
			len(b), common.ErrTruncatedImage)
	}
	s := &Set{}
	dec := marshal.NewDec(b[:common.DIRSZ])
	for i := uint64(0); i < common.NDIRENT; i++ {
		dec.GetInt()
		dec.GetInt()
		s.ents[i] = Entry{
			Name: buf.GetName(b[i*common.DIRENTSZ:]),
			Inum: common.Inum(dec.GetInt()),
		}
	}
	s.n = dec.GetInt()
	if s.n < 2 || s.n > common.NDIRENT {
		return nil, fmt.Errorf("directory holds %d entries: %w", s.n, common.ErrCorruptImage)
	}
	if s.ents[0].Name != DOT || s.ents[1].Name != DOTDOT {
		return nil, fmt.Errorf("directory missing . or ..: %w", common.ErrCorruptImage)
	}
	for i := s.n; i < common.NDIRENT; i++ {
		s.ents[i] = Entry{}
	}
	return s, nil
}
