package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MonitorID identifies one monitor on a status page. It is either a demo
// monitor (locally generated placeholder, index >= 1) or a real provider
// monitor carried as an opaque string. The two spaces never collide: demo
// IDs serialize as negative integers on the wire and as "demo-<n>" strings
// in persisted configuration.
type MonitorID struct {
	demo int // >= 1 for demo monitors, 0 otherwise
	real string
}

func DemoID(n int) MonitorID {
	if n < 1 {
		n = 1
	}
	return MonitorID{demo: n}
}

func RealID(s string) MonitorID {
	return MonitorID{real: s}
}

func (id MonitorID) IsDemo() bool { return id.demo >= 1 }

// DemoIndex returns the 1-based demo index, or 0 for real IDs.
func (id MonitorID) DemoIndex() int { return id.demo }

// String renders the persisted form: "demo-<n>" for demo monitors, the raw
// provider ID otherwise. This is the key manual logs are stored under.
func (id MonitorID) String() string {
	if id.IsDemo() {
		return "demo-" + strconv.Itoa(id.demo)
	}
	return id.real
}

// ParseMonitorID interprets one persisted monitor-ID string. It accepts the
// "demo-<n>" form, a numeric string that parses to a negative integer
// (legacy demo encoding), or anything else as a real provider ID.
func ParseMonitorID(s string) MonitorID {
	if rest, ok := strings.CutPrefix(s, "demo-"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 {
			return DemoID(n)
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n < 0 {
		return DemoID(-n)
	}
	return RealID(s)
}

// IsDemoID reports whether a persisted ID string names a demo monitor.
func IsDemoID(s string) bool {
	return ParseMonitorID(s).IsDemo()
}

// PartitionIDs splits a persisted monitor-ID list into the demo index set
// and the real provider IDs, preserving the order of the real IDs.
func PartitionIDs(ids []string) (demo map[int]bool, real []string) {
	demo = make(map[int]bool)
	for _, s := range ids {
		id := ParseMonitorID(s)
		if id.IsDemo() {
			demo[id.DemoIndex()] = true
			continue
		}
		real = append(real, id.String())
	}
	return demo, real
}

// MarshalJSON emits demo IDs as negative integers and real IDs as numbers
// when numeric, strings otherwise, matching the provider wire shapes.
func (id MonitorID) MarshalJSON() ([]byte, error) {
	if id.IsDemo() {
		return []byte(strconv.Itoa(-id.demo)), nil
	}
	if _, err := strconv.ParseInt(id.real, 10, 64); err == nil && id.real != "" {
		return []byte(id.real), nil
	}
	return []byte(strconv.Quote(id.real)), nil
}

func (id *MonitorID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		*id = ParseMonitorID(unq)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("monitor id: %w", err)
	}
	if n < 0 {
		*id = DemoID(int(-n))
		return nil
	}
	*id = RealID(s)
	return nil
}
