package archives

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// karFile contains the metadata for a file entry
type karFile struct {
	offset  int32
	size    int32
	decSize int32
}

// karFolder contains an index of the available sub-folders and files
type karFolder struct {
	folders map[string]*karFolder
	files   map[string]*karFile
}

func newKarFolder() *karFolder {
	return &karFolder{
		folders: map[string]*karFolder{},
		files:   map[string]*karFile{},
	}
}

// KarWriter writes .kar archives: brotli-compressed file bodies followed by an index.
//
// Layout: "KNAR", uint32 version (2), uint32 index offset, uint32 entry count, file bodies,
// index. Index entries are offset, size, decompressed size (int32 each), uint16 name length
// and the name. A directory entry has zero offset/size and is terminated by a ".." entry.
type KarWriter struct {
	hdl      *os.File
	root     *karFolder
	dirStack []*karFolder
	current  *karFolder
	buffer   []byte
}

var _ Writer = (*KarWriter)(nil)

const karHeaderSize = 4 + 12

// NewKarWriter creates a new KarWriter instance and opens it for writing
func NewKarWriter(filename string) (*KarWriter, error) {
	hdl, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	// the header is written by Close once the index offset is known
	_, err = hdl.Seek(karHeaderSize, io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, err
	}

	root := newKarFolder()
	return &KarWriter{
		hdl:      hdl,
		root:     root,
		dirStack: []*karFolder{root},
		current:  root,
		buffer:   make([]byte, 4096),
	}, nil
}

// OpenDirectory creates a new directory entry. Anything created until the next CloseDirectory() call will be created
// inside this directory.
func (w *KarWriter) OpenDirectory(dirname string) error {
	dir, ok := w.current.folders[dirname]
	if !ok {
		dir = newKarFolder()
		w.current.folders[dirname] = dir
	}

	w.dirStack = append(w.dirStack, dir)
	w.current = dir
	return nil
}

// CloseDirectory closes the directory that was last opened
func (w *KarWriter) CloseDirectory() error {
	stackLen := len(w.dirStack)
	if stackLen < 2 {
		return eris.New("No directory left on stack")
	}

	w.dirStack = w.dirStack[:stackLen-1]
	w.current = w.dirStack[stackLen-2]
	return nil
}

// WriteFile compresses reader into the archive as filename inside the current directory
func (w *KarWriter) WriteFile(filename string, reader io.Reader) error {
	offset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	brw := brotli.NewWriterLevel(w.hdl, brotli.BestCompression)
	decSize, err := io.CopyBuffer(brw, reader, w.buffer)
	if err != nil {
		return err
	}

	err = brw.Close()
	if err != nil {
		return err
	}

	newPos, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	w.current.files[filename] = &karFile{
		offset:  int32(offset),
		size:    int32(newPos - offset),
		decSize: int32(decSize),
	}
	return nil
}

// Close writes the central index and closes the archive
func (w *KarWriter) Close() error {
	if len(w.dirStack) != 1 {
		w.hdl.Close()
		return eris.New("Open directories left over!")
	}

	items := int32(0)
	buffer := make([]byte, 48)
	tocOffset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		w.hdl.Close()
		return err
	}

	err = writeDirectoryEntries(w.root, w.hdl, &items, buffer)
	if err != nil {
		w.hdl.Close()
		return err
	}

	_, err = w.hdl.Seek(0, io.SeekStart)
	if err != nil {
		w.hdl.Close()
		return err
	}

	copy(buffer[0:4], "KNAR")
	binary.LittleEndian.PutUint32(buffer[4:8], 2)
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(tocOffset))
	binary.LittleEndian.PutUint32(buffer[12:16], uint32(items))

	_, err = w.hdl.Write(buffer[:karHeaderSize])
	if err != nil {
		w.hdl.Close()
		return err
	}

	return w.hdl.Close()
}

func writeEntry(hdl io.Writer, buffer []byte, name string, offset, size, decSize int32) error {
	binary.LittleEndian.PutUint32(buffer[:4], uint32(offset))
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(size))
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(decSize))
	binary.LittleEndian.PutUint16(buffer[12:14], uint16(len(name)))
	_, err := hdl.Write(buffer[:14])
	if err != nil {
		return err
	}

	_, err = io.WriteString(hdl, name)
	return err
}

func sortedKeys[T any](items map[string]T) []string {
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func writeDirectoryEntries(folder *karFolder, hdl io.Writer, items *int32, buffer []byte) error {
	for _, name := range sortedKeys(folder.folders) {
		err := writeEntry(hdl, buffer, name, 0, 0, 0)
		if err != nil {
			return err
		}

		err = writeDirectoryEntries(folder.folders[name], hdl, items, buffer)
		if err != nil {
			return err
		}

		err = writeEntry(hdl, buffer, "..", 0, 0, 0)
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(folder.files) {
		file := folder.files[name]
		err := writeEntry(hdl, buffer, name, file.offset, file.size, file.decSize)
		if err != nil {
			return err
		}
	}

	*items += int32(len(folder.folders)*2 + len(folder.files))
	return nil
}
