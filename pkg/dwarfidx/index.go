// Package dwarfidx builds a fast, in-memory index from (name, DIE tag)
// pairs to DIE byte locations across a set of 64-bit little-endian ELF
// object files carrying DWARF v2/v3/v4 debugging information. See
// SPEC_FULL.md for the full design; this file wires together the elf
// and dwarf sub-packages behind the two-operation external interface
// spec.md §6 mandates: New and Find.
package dwarfidx

import (
	"errors"
	"fmt"

	"github.com/Manu343726/dwarfidx/pkg/dwarfidx/dwarf"
	"github.com/Manu343726/dwarfidx/pkg/dwarfidx/elf"
	"github.com/Manu343726/dwarfidx/pkg/utils"
)

// ErrNotFound is returned by Find when no entry matches, corresponding
// to spec.md §6's ValueError class.
var ErrNotFound = errors.New("dwarfidx: not found")

// FileHandle is the external collaborator contract of spec.md §6: given
// a DieLocation, a caller materializes further DWARF structure (a full
// DIE object, its siblings, etc.) from the raw section bytes this index
// hands back. dwarfidx itself never does that materialization — only
// section discovery, relocation, and the name hash.
type FileHandle interface {
	// Path is the filesystem path this handle was built from.
	Path() string
	// Section returns the raw bytes of a named debug section
	// (".debug_info", ".debug_abbrev", ".debug_str"), or nil if the
	// file doesn't have it.
	Section(name string) []byte
}

// file is the concrete FileHandle backing one indexed object file. It
// owns the mmap and keeps the file's compilation units alive for the
// life of the Index.
type file struct {
	mapping  *elf.Mapping
	sections *elf.Sections
	cus      []*dwarf.CompilationUnit
}

func (f *file) Path() string { return f.mapping.Path }

func (f *file) Section(name string) []byte {
	switch name {
	case ".debug_info":
		return f.sections.DebugInfo.Bytes
	case ".debug_abbrev":
		return f.sections.DebugAbbrev.Bytes
	case ".debug_str":
		return f.sections.DebugStr.Bytes
	case ".symtab":
		return f.sections.Symtab.Bytes
	default:
		return nil
	}
}

// Index is the global DWARF name index of spec.md §3's DieHash,
// built once by New and queried read-only thereafter by Find.
type Index struct {
	hash        *DieHash
	files       []*file
	addressSize int
}

// Options configures New. A zero Options uses the spec default
// (2^17 hash slots).
type Options struct {
	// HashBits sizes the name hash table as 2^HashBits slots. Zero
	// selects DefaultHashBits.
	HashBits int
}

// New builds an Index over the given object-file paths, in order. Each
// file is opened, validated, relocated, and indexed before the next; on
// any error the partially constructed index is torn down and the error
// is returned, per spec.md §6.
func New(paths []string, opts Options) (idx *Index, err error) {
	bits := opts.HashBits
	if bits == 0 {
		bits = DefaultHashBits
	}

	idx = &Index{hash: NewDieHash(bits)}

	defer func() {
		if err != nil {
			idx.Close()
			idx = nil
		}
	}()

	for _, path := range paths {
		if err := idx.addFile(path); err != nil {
			// The deferred cleanup closes idx and then sets it to nil.
			return idx, utils.WrapError(err, "indexing %s", path)
		}
	}

	return idx, nil
}

func (idx *Index) addFile(path string) error {
	mapping, err := elf.Load(path)
	if err != nil {
		return err
	}

	sections, err := elf.Discover(path, mapping.Bytes)
	if err != nil {
		mapping.Close()
		return err
	}

	if err := relocateAll(path, sections); err != nil {
		mapping.Close()
		return err
	}

	f := &file{mapping: mapping, sections: sections}
	idx.files = append(idx.files, f)

	offset := 0
	debugInfo := sections.DebugInfo.Bytes
	for offset < len(debugInfo) {
		cu, err := dwarf.ReadCUHeader(debugInfo, offset)
		if err != nil {
			return err
		}

		abbrev, err := dwarf.CompileAbbrevTable(sections.DebugAbbrev.Bytes, cu.DebugAbbrevOffset, cu.AddressSize, cu.Is64Bit)
		if err != nil {
			return err
		}
		cu.Abbrev = abbrev

		insert := func(name []byte, tag uint64, cuOffset, dieOffset int) error {
			return idx.hash.Insert(name, tag, DieLocation{File: f, CUOffset: cuOffset, DieOffset: dieOffset})
		}

		if err := dwarf.IndexCU(cu, debugInfo, sections.DebugStr.Bytes, insert); err != nil {
			return err
		}

		f.cus = append(f.cus, cu)
		idx.addressSize = cu.AddressSize
		offset = cu.End()
	}

	return nil
}

func relocateAll(path string, sections *elf.Sections) error {
	symtab := sections.Symtab.Bytes
	type pair struct {
		target *elf.Section
		rela   *elf.Section
	}
	pairs := []pair{
		{&sections.DebugAbbrev, sections.RelaAbbrev},
		{&sections.DebugInfo, sections.RelaInfo},
		{&sections.DebugStr, sections.RelaStr},
	}
	for _, p := range pairs {
		if p.rela == nil {
			continue
		}
		if err := elf.Relocate(path, p.target.Bytes, p.rela.Bytes, symtab); err != nil {
			return err
		}
	}
	return nil
}

// Find resolves (name, tag) to the location of the first-inserted
// matching DIE, per spec.md §6. It returns ErrNotFound when no entry
// matches.
func (idx *Index) Find(name string, tag uint64) (DieLocation, error) {
	loc, ok := idx.hash.Find([]byte(name), tag)
	if !ok {
		return DieLocation{}, fmt.Errorf("%w: (%q, tag=0x%x)", ErrNotFound, name, tag)
	}
	return loc, nil
}

// AddressSize reports the address_size of the most recently processed
// CU, an informational property per spec.md §6.
func (idx *Index) AddressSize() int {
	return idx.addressSize
}

// Close unmaps every file owned by the index, releasing abbreviation
// buffers and CU vectors first (they're ordinary Go heap allocations
// collected by the GC once unreachable) and then each file's mmap, per
// the release order spec.md §5 describes.
func (idx *Index) Close() error {
	var firstErr error
	for _, f := range idx.files {
		f.cus = nil
		if err := f.mapping.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	idx.files = nil
	return firstErr
}
