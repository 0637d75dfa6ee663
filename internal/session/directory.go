package session

import (
	"context"
	"sort"
	"sync"
)

// Directory 会话目录：记录各实例打开的会话，供多实例部署时统一查询
type Directory interface {
	Publish(ctx context.Context, info Info) error
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]Info, error)
}

// MemoryDirectory 进程内目录，单实例部署时使用
type MemoryDirectory struct {
	mu       sync.RWMutex
	serverID string
	infos    map[string]Info
}

// NewMemoryDirectory 创建进程内目录
func NewMemoryDirectory(serverID string) *MemoryDirectory {
	return &MemoryDirectory{serverID: serverID, infos: make(map[string]Info)}
}

func (d *MemoryDirectory) Publish(_ context.Context, info Info) error {
	if info.ServerID == "" {
		info.ServerID = d.serverID
	}
	d.mu.Lock()
	d.infos[info.ID] = info
	d.mu.Unlock()
	return nil
}

func (d *MemoryDirectory) Remove(_ context.Context, id string) error {
	d.mu.Lock()
	delete(d.infos, id)
	d.mu.Unlock()
	return nil
}

func (d *MemoryDirectory) List(_ context.Context) ([]Info, error) {
	d.mu.RLock()
	out := make([]Info, 0, len(d.infos))
	for _, info := range d.infos {
		out = append(out, info)
	}
	d.mu.RUnlock()
	sortInfos(out)
	return out, nil
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].OpenedAt.Equal(infos[j].OpenedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].OpenedAt.Before(infos[j].OpenedAt)
	})
}
