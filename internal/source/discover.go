package source

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// candidateInfo is one discovered serial endpoint and, if available,
// a human-readable description pulled from sysfs — the Linux analogue
// of the VID/PID descriptor spec.md §4.1 matches against.
type candidateInfo struct {
	Name        string
	Description string
}

// knownDescriptors is the fixed substring list spec.md §4.1 names for
// auto-detecting a connected microcontroller.
var knownDescriptors = []string{"Arduino", "CH340", "FTDI", "USB Serial"}

var devNamePattern = regexp.MustCompile(`^(ttyUSB|ttyACM)(\d+)$`)

// selectPort picks the first candidate (in the caller's order) whose
// description matches a known descriptor substring. It is pure so it
// can be exercised by table tests without touching /dev or /sys.
func selectPort(candidates []candidateInfo) (string, error) {
	for _, c := range candidates {
		for _, k := range knownDescriptors {
			if strings.Contains(c.Description, k) {
				return c.Name, nil
			}
		}
	}
	return "", ErrNoDeviceFound
}

// defaultDiscover enumerates /dev for ttyUSB*/ttyACM* nodes and, on
// Linux, reads the matching /sys/class/tty/<name>/device/../product
// and manufacturer files to build a description string. It is
// best-effort: platforms without that sysfs layout simply yield
// candidates with empty descriptions, which selectPort will then
// reject, surfacing ErrNoDeviceFound rather than guessing.
func defaultDiscover() ([]string, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}

	var candidates []candidateInfo
	for _, e := range entries {
		if !devNamePattern.MatchString(e.Name()) {
			continue
		}
		candidates = append(candidates, candidateInfo{
			Name:        filepath.Join("/dev", e.Name()),
			Description: sysfsDescription(e.Name()),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return deviceIndex(candidates[i].Name) < deviceIndex(candidates[j].Name)
	})

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	picked, err := selectPort(candidates)
	if err == nil {
		// Put the matching endpoint first so Connect()'s "auto" path,
		// which opens the first name returned, lands on it
		// deterministically.
		reordered := []string{picked}
		for _, n := range names {
			if n != picked {
				reordered = append(reordered, n)
			}
		}
		return reordered, nil
	}
	return nil, err
}

func deviceIndex(devPath string) int {
	base := filepath.Base(devPath)
	m := devNamePattern.FindStringSubmatch(base)
	if m == nil {
		return 1 << 30
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 1 << 30
	}
	return n
}

func sysfsDescription(devName string) string {
	base := "/sys/class/tty/" + devName + "/device"
	manufacturer := readSysfsTrimmed(filepath.Join(base, "..", "manufacturer"))
	product := readSysfsTrimmed(filepath.Join(base, "..", "product"))
	return strings.TrimSpace(manufacturer + " " + product)
}

func readSysfsTrimmed(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
