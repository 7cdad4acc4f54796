package scheduler

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type runTime struct {
	Hour   int
	Minute int
}

func (r runTime) minutes() int { return r.Hour*60 + r.Minute }

func (r runTime) String() string { return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute) }

func parseRunTime(s string) (runTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return runTime{}, fmt.Errorf("run time %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return runTime{}, fmt.Errorf("run time %q has invalid hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return runTime{}, fmt.Errorf("run time %q has invalid minute", s)
	}
	return runTime{Hour: h, Minute: m}, nil
}

// planRunTimes parses, dedupes and sorts the scenario's run times, then drops
// any time that falls within minInterval of the previous kept one.
// Malformed entries are logged and skipped.
func planRunTimes(scenarioID int64, raw []string, minInterval time.Duration) []runTime {
	seen := make(map[int]bool, len(raw))
	var parsed []runTime
	for _, s := range raw {
		rt, err := parseRunTime(s)
		if err != nil {
			slog.Error("skipping malformed run time", "scenario_id", scenarioID, "run_time", s, "error", err)
			continue
		}
		if seen[rt.minutes()] {
			continue
		}
		seen[rt.minutes()] = true
		parsed = append(parsed, rt)
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].minutes() < parsed[j].minutes() })

	gap := int(minInterval / time.Minute)
	var kept []runTime
	for _, rt := range parsed {
		if len(kept) > 0 && rt.minutes()-kept[len(kept)-1].minutes() < gap {
			slog.Warn("dropping run time closer than minimum interval",
				"scenario_id", scenarioID,
				"run_time", rt.String(),
				"previous", kept[len(kept)-1].String(),
				"min_interval", minInterval.String())
			continue
		}
		kept = append(kept, rt)
	}
	return kept
}
