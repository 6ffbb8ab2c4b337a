package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"
)

// LocalFSDriver keeps objects on local disk. Objects are spread over a
// two-level directory fan-out derived from the base name of the key.
type LocalFSDriver struct {
	BaseDir   string
	PublicURL string
}

// NewLocalFSDriver creates a new LocalFSDriver.
// baseDir is where files will be stored.
// publicURL is the base URL used to generate download links (e.g., /api/v1/uploads).
func NewLocalFSDriver(baseDir, publicURL string) (*LocalFSDriver, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalFSDriver{BaseDir: baseDir, PublicURL: publicURL}, nil
}

// objectPath maps "EXPORT/abcdef.xlsx" to <base>/EXPORT/ab/cd/abcdef.xlsx.
func (d *LocalFSDriver) objectPath(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	dir, name := path.Split(key)
	if len(name) >= 4 {
		dir = path.Join(dir, name[0:2], name[2:4])
	}
	return filepath.Join(d.BaseDir, filepath.FromSlash(dir), name), nil
}

func (d *LocalFSDriver) Save(ctx context.Context, key string, body io.Reader, info ObjectInfo) error {
	fullPath, err := d.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to save file content: %w", err)
	}

	// Metadata sidecar
	info.Size = written
	meta, err := json.Marshal(info)
	if err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(fullPath+".meta", meta, 0644); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

func (d *LocalFSDriver) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info := ObjectInfo{ContentType: "application/octet-stream"}
	fullPath, err := d.objectPath(key)
	if err != nil {
		return nil, info, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, info, err
	}

	if meta, err := os.ReadFile(fullPath + ".meta"); err == nil {
		var stored ObjectInfo
		if json.Unmarshal(meta, &stored) == nil && stored.ContentType != "" {
			info = stored
		}
	}
	return f, info, nil
}

func (d *LocalFSDriver) Delete(ctx context.Context, key string) error {
	fullPath, err := d.objectPath(key)
	if err != nil {
		return err
	}
	os.Remove(fullPath + ".meta") // Ignore error if meta doesn't exist
	err = os.Remove(fullPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (d *LocalFSDriver) GenerateURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	// The router serves {PublicURL}/{key} from this driver.
	if d.PublicURL == "" {
		return key, nil
	}
	return fmt.Sprintf("%s/%s", d.PublicURL, key), nil
}
