package archives

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// ZipWriter writes regular .zip archives with deflate compression.
type ZipWriter struct {
	hdl      *os.File
	zw       *zip.Writer
	dirStack []string
}

var _ Writer = (*ZipWriter)(nil)

// NewZipWriter creates filename and opens it for writing
func NewZipWriter(filename string) (*ZipWriter, error) {
	hdl, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &ZipWriter{
		hdl:      hdl,
		zw:       zip.NewWriter(hdl),
		dirStack: []string{},
	}, nil
}

// OpenDirectory enters dirname. Directories only exist implicitly through their files.
func (w *ZipWriter) OpenDirectory(dirname string) error {
	w.dirStack = append(w.dirStack, dirname)
	return nil
}

// CloseDirectory closes the directory that was last opened
func (w *ZipWriter) CloseDirectory() error {
	if len(w.dirStack) < 1 {
		return eris.New("No directory left on stack")
	}

	w.dirStack = w.dirStack[:len(w.dirStack)-1]
	return nil
}

// WriteFile adds a file to the current directory.
func (w *ZipWriter) WriteFile(filename string, reader io.Reader) error {
	name := path.Join(append(append([]string{}, w.dirStack...), filename)...)
	entry, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   strings.TrimPrefix(name, "/"),
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, reader)
	return err
}

// Close writes the central directory and closes the file.
func (w *ZipWriter) Close() error {
	if len(w.dirStack) != 0 {
		w.zw.Close()
		w.hdl.Close()
		return eris.New("Open directories left over!")
	}

	err := w.zw.Close()
	if err != nil {
		w.hdl.Close()
		return err
	}

	return w.hdl.Close()
}
