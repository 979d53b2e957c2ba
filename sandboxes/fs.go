package sandboxes

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// VirtualFS is the sandbox's in-memory filesystem. Donated files are
// mounted here before a resume; the script never touches the host
// filesystem.
type VirtualFS struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewVirtualFS() *VirtualFS {
	return &VirtualFS{
		files: make(map[string][]byte),
	}
}

// Mount places data at a freshly generated, collision-free virtual path and
// returns that path. Two mounts of the same file name land at distinct
// paths.
func (v *VirtualFS) Mount(name string, data []byte) string {
	path := "/mnt/" + uuid.NewString() + "/" + name
	v.mu.Lock()
	v.files[path] = data
	v.mu.Unlock()
	return path
}

func (v *VirtualFS) Read(path string) ([]byte, error) {
	v.mu.Lock()
	data, ok := v.files[path]
	v.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no such virtual file: %s", path)
	}
	return data, nil
}
