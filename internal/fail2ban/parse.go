package fail2ban

import (
	"strconv"
	"strings"
)

// Commands understood by the fail2ban server.
const (
	CmdStatus = "status"
)

// Markers in status responses. They are protocol constants.
const (
	markerJailList        = "Jail list:"
	markerCurrentlyBanned = "Currently banned:"
	markerCurrentlyFailed = "Currently failed:"
	markerTotalBanned     = "Total banned:"
	markerTotalFailed     = "Total failed:"
)

// JailStatusCommand returns the command that fetches one jail's counters.
func JailStatusCommand(jail string) string {
	return CmdStatus + " " + jail
}

// JailStats is the parsed "status <jail>" response. A nil field was missing
// or malformed in the response and must be treated as unknown.
type JailStats struct {
	CurrentlyBanned *int64 `json:"currently_banned,omitempty"`
	CurrentlyFailed *int64 `json:"currently_failed,omitempty"`
	TotalBanned     *int64 `json:"total_banned,omitempty"`
	TotalFailed     *int64 `json:"total_failed,omitempty"`
}

// ParseJailList returns the jail names listed after the "Jail list:" marker.
// It returns an empty slice when the marker is absent.
func ParseJailList(raw string) []string {
	jails := []string{}
	for _, line := range strings.Split(raw, "\n") {
		_, rest, ok := strings.Cut(line, markerJailList)
		if !ok {
			continue
		}
		for _, name := range strings.Split(rest, ",") {
			if name = strings.TrimSpace(name); name != "" {
				jails = append(jails, name)
			}
		}
		break
	}
	return jails
}

// ParseJailStatus extracts the jail counters from a "status <jail>" response.
// Each marker is located independently; lines without a marker are ignored.
func ParseJailStatus(raw string) JailStats {
	var st JailStats
	fields := []struct {
		marker string
		dst    **int64
	}{
		{markerCurrentlyBanned, &st.CurrentlyBanned},
		{markerCurrentlyFailed, &st.CurrentlyFailed},
		{markerTotalBanned, &st.TotalBanned},
		{markerTotalFailed, &st.TotalFailed},
	}

	for _, line := range strings.Split(raw, "\n") {
		for _, f := range fields {
			if *f.dst != nil {
				continue
			}
			_, rest, ok := strings.Cut(line, f.marker)
			if !ok {
				continue
			}
			if v, ok := parseCount(rest); ok {
				*f.dst = &v
			}
			break
		}
	}
	return st
}

// parseCount parses a non-negative decimal count surrounded by whitespace.
func parseCount(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
