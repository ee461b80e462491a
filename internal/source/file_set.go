package source

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// File is one registered input. The backend never reads DOL source text
// itself; files are registered by the driver so diagnostics can point back
// into whatever the frontend consumed.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	lineIdx []uint32 // byte offset of each line start
}

// FileSet maps FileIDs carried on HIR spans back to file names and
// line/column positions for rendering.
type FileSet struct {
	files []File
	index map[string]FileID
}

// NewFileSet creates an empty FileSet. FileID 0 is reserved as "no file".
func NewFileSet() *FileSet {
	fs := &FileSet{index: make(map[string]FileID)}
	fs.files = append(fs.files, File{}) // sentinel for NoFileID
	return fs
}

// Add registers a file and returns its fresh FileID.
func (fs *FileSet) Add(path string, content []byte) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		lineIdx: buildLineIndex(content),
	})
	fs.index[path] = id
	return id
}

// Get returns the file for the given ID, or nil for NoFileID / unknown IDs.
func (fs *FileSet) Get(id FileID) *File {
	if fs == nil || id == NoFileID || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the FileID previously registered for path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	if fs == nil {
		return NoFileID, false
	}
	id, ok := fs.index[path]
	return id, ok
}

// Position resolves a byte offset to 1-based line and column numbers.
func (f *File) Position(offset uint32) (line, col int) {
	if f == nil {
		return 1, 1
	}
	i := sort.Search(len(f.lineIdx), func(i int) bool {
		return f.lineIdx[i] > offset
	})
	if i == 0 {
		return 1, int(offset) + 1
	}
	return i, int(offset-f.lineIdx[i-1]) + 1
}

// LineContent returns the raw bytes of the 1-based line number.
func (f *File) LineContent(line int) []byte {
	if f == nil || line < 1 || line > len(f.lineIdx) {
		return nil
	}
	start := f.lineIdx[line-1]
	end := uint32(len(f.Content))
	if line < len(f.lineIdx) {
		end = f.lineIdx[line]
	}
	for end > start && (f.Content[end-1] == '\n' || f.Content[end-1] == '\r') {
		end--
	}
	return f.Content[start:end]
}

func buildLineIndex(content []byte) []uint32 {
	idx := []uint32{0}
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i)+1)
		}
	}
	return idx
}
