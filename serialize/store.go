package serialize

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"seqcore/project"
)

// fileExt is the on-disk extension for a single versioned project stream,
// distinguishing it from the teacher's plain JSON saves it replaces.
const fileExt = ".seq"

// SaveInfo describes one saved project stream, for listing (adapted from
// the teacher's sequencer/project.go SaveInfo).
type SaveInfo struct {
	Filename  string
	Name      string
	Timestamp time.Time
}

// ProjectsDir returns the directory holding every project's saves.
func ProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "seqcore", "projects"), nil
}

// ProjectDir returns the directory holding one project's timestamped saves.
func ProjectDir(name string) (string, error) {
	base, err := ProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

// ListProjects returns every project folder name, sorted.
func ListProjects() ([]string, error) {
	dir, err := ProjectsDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListSaves returns a project's saves, newest first.
func ListSaves(name string) ([]SaveInfo, error) {
	dir, err := ProjectDir(name)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, e := range entries {
		fname := e.Name()
		if e.IsDir() || !strings.HasSuffix(fname, fileExt) {
			continue
		}
		base := strings.TrimSuffix(fname, fileExt)
		if len(base) < 19 {
			continue
		}
		ts, err := time.Parse("2006-01-02_15-04-05", base[:19])
		if err != nil {
			continue
		}
		saveName := ""
		if len(base) > 20 && base[19] == '_' {
			saveName = base[20:]
		}
		saves = append(saves, SaveInfo{Filename: fname, Name: saveName, Timestamp: ts})
	}
	sort.Slice(saves, func(i, j int) bool { return saves[i].Timestamp.After(saves[j].Timestamp) })
	return saves, nil
}

// SaveProject writes p's versioned stream to a new timestamped file under
// the named project's directory, creating the directory if needed.
func SaveProject(name string, p *project.Project) error {
	if name == "" {
		name = "untitled"
	}
	dir, err := ProjectDir(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+fileExt)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteProject(f, p)
}

// LoadProject reads a specific save (or the most recent one if filename is
// empty) into a freshly built Project. A ProtocolError leaves the caller's
// current project untouched — this function only ever returns a new one.
func LoadProject(name, filename string) (*project.Project, error) {
	dir, err := ProjectDir(name)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		saves, err := ListSaves(name)
		if err != nil || len(saves) == 0 {
			return nil, fmt.Errorf("no saves found in project %s", name)
		}
		filename = saves[0].Filename
	}
	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProject(f)
}

// CreateProject makes an empty project folder.
func CreateProject(name string) error {
	dir, err := ProjectDir(name)
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DeleteSave removes a specific save file.
func DeleteSave(name, filename string) error {
	dir, err := ProjectDir(name)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, filename))
}

// DeleteProject removes an entire project folder and all its saves.
func DeleteProject(name string) error {
	dir, err := ProjectDir(name)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// RenameProject renames a project's folder.
func RenameProject(oldName, newName string) error {
	oldDir, err := ProjectDir(oldName)
	if err != nil {
		return err
	}
	newDir, err := ProjectDir(newName)
	if err != nil {
		return err
	}
	return os.Rename(oldDir, newDir)
}

// RenameSave renames a save file's name suffix, keeping its timestamp
// prefix (adapted from the teacher's sanitizeFilename-based RenameSave).
func RenameSave(projectName, oldFilename, newName string) error {
	dir, err := ProjectDir(projectName)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(oldFilename, fileExt)
	if len(base) < 19 {
		return fmt.Errorf("invalid save filename")
	}
	ts := base[:19]

	newFilename := ts + fileExt
	if newName != "" {
		newFilename = ts + "_" + sanitizeFilename(newName) + fileExt
	}
	return os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename))
}

func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return r.Replace(name)
}
