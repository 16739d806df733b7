package database

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fieldSep = "\t"

// FileUserStore keeps one user per line: username, real name, password
// separated by tabs. The file is rewritten in full on every Save.
type FileUserStore struct {
	path string
}

// NewFileUserStore new a FileUserStore
func NewFileUserStore(path string) *FileUserStore {
	return &FileUserStore{path: path}
}

// Load reads every record. A missing file is an empty registry.
func (s *FileUserStore) Load() ([]User, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	users := make([]User, 0)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, fieldSep)
		if len(fields) != 3 || fields[0] == "" {
			return nil, fmt.Errorf("%s:%d: %w", s.path, lineNo, ErrCorruptRecord)
		}
		users = append(users, User{
			Username: fields[0],
			RealName: fields[1],
			Password: fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Save writes to a temp file next to the target and renames it over
func (s *FileUserStore) Save(users []User) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, u := range users {
		fmt.Fprintf(w, "%s%s%s%s%s\n", u.Username, fieldSep, u.RealName, fieldSep, u.Password)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
