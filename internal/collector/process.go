package collector

import (
	"os"
	"strconv"
	"strings"

	"github.com/prabalesh/osdash/internal/models"
)

// stat fields counted after the ")" that closes the command name
const (
	statState     = 0
	statUtime     = 11
	statStime     = 12
	statStartTime = 19
)

func (s *Sampler) getProcessInfo(pid int) (models.HostProcess, bool) {
	statContent, err := os.ReadFile(s.path(strconv.Itoa(pid), "stat"))
	if err != nil {
		return models.HostProcess{}, false
	}
	name, statFields, ok := splitStat(string(statContent))
	if !ok || len(statFields) <= statStartTime {
		return models.HostProcess{}, false
	}

	utime, _ := strconv.ParseUint(statFields[statUtime], 10, 64)
	stime, _ := strconv.ParseUint(statFields[statStime], 10, 64)
	start, _ := strconv.ParseUint(statFields[statStartTime], 10, 64)

	// Read /proc/[pid]/status for additional info
	statusContent, err := os.ReadFile(s.path(strconv.Itoa(pid), "status"))
	if err == nil {
		if n := getProcessName(statusContent); n != "" {
			name = n
		}
	}

	return models.HostProcess{
		PID:        pid,
		Name:       name,
		Status:     statFields[statState],
		CPUTicks:   utime + stime,
		StartTicks: start,
		MemRSS:     getProcessRSS(statusContent),
	}, true
}

// splitStat separates the parenthesised command name, which may contain
// spaces, from the remaining fields.
func splitStat(content string) (string, []string, bool) {
	open := strings.IndexByte(content, '(')
	end := strings.LastIndexByte(content, ')')
	if open < 0 || end < open {
		return "", nil, false
	}
	return content[open+1 : end], strings.Fields(content[end+1:]), true
}

func getProcessName(statusContent []byte) string {
	for _, line := range strings.Split(string(statusContent), "\n") {
		if strings.HasPrefix(line, "Name:") {
			fields := strings.Fields(line)
			if len(fields) > 1 {
				return fields[1]
			}
		}
	}
	return ""
}

func getProcessRSS(statusContent []byte) uint64 {
	for _, line := range strings.Split(string(statusContent), "\n") {
		if strings.HasPrefix(line, "VmRSS:") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				if val, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
					return val * 1024 // Convert from KB to bytes
				}
			}
			break
		}
	}
	return 0
}
