package ipc

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// selfPong describes the current process.
func selfPong(version string) Pong {
	pong := Pong{PID: os.Getpid(), Version: version}

	p, err := process.NewProcess(int32(pong.PID))
	if err != nil {
		log.Debug("process stats unavailable", "error", err)
		return pong
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		pong.RSS = mem.RSS
	}
	if created, err := p.CreateTime(); err == nil {
		pong.StartedAt = created
	}
	return pong
}
