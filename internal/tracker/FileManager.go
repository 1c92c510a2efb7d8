package tracker

import "os"

type FileManager struct {
}

func NewFileManager() *FileManager {
	return &FileManager{}
}

// ReadFile returns the file's contents, or nil when it does not exist yet.
func (f *FileManager) ReadFile(fileName string) ([]byte, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// WriteFileAtomic writes data through a temp file in the same directory
// and renames it over the target, so a crash mid-write never leaves a
// half-written file behind.
func (f *FileManager) WriteFileAtomic(fileName string, data []byte) error {
	tmp := fileName + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err == nil {
		err = file.Sync()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, fileName)
}
