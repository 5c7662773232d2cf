package procstats

import (
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

// Source reads resource usage for a pid.
type Source interface {
	Sample(pid int) (cpuPercent float64, rssBytes uint64, err error)
	// Forget drops any per-pid state for pids not in live.
	Forget(live map[int]struct{})
}

// ProcessSource reads usage through gopsutil. CPU percent is measured between
// consecutive samples of the same pid, so the first sample reports zero.
type ProcessSource struct {
	mu    sync.Mutex
	procs map[int]*process.Process
}

func NewProcessSource() *ProcessSource {
	return &ProcessSource{procs: make(map[int]*process.Process)}
}

func (s *ProcessSource) Sample(pid int) (float64, uint64, error) {
	s.mu.Lock()
	p, ok := s.procs[pid]
	if !ok {
		var err error
		p, err = process.NewProcess(int32(pid))
		if err != nil {
			s.mu.Unlock()
			return 0, 0, err
		}
		s.procs[pid] = p
	}
	s.mu.Unlock()

	cpu, err := p.Percent(0)
	if err != nil {
		return 0, 0, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	return cpu, mem.RSS, nil
}

func (s *ProcessSource) Forget(live map[int]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid := range s.procs {
		if _, ok := live[pid]; !ok {
			delete(s.procs, pid)
		}
	}
}
