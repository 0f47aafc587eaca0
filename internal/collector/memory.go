package collector

import (
	"os"
	"strconv"
	"strings"
)

// getMemTotal returns MemTotal in bytes, or 0 when meminfo is unreadable.
func (s *Sampler) getMemTotal() uint64 {
	content, err := os.ReadFile(s.path("meminfo"))
	if err != nil {
		return 0
	}

	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.TrimSuffix(fields[0], ":") == "MemTotal" {
			value, err := strconv.ParseUint(fields[1], 10, 64)
			if err == nil {
				return value * 1024 // Convert from KB to bytes
			}
		}
	}
	return 0
}
