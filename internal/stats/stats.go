// Package stats merges monitor data sources and reduces them to the rollup
// numbers both the dashboard and the public page display. Everything here
// is a pure function over the records passed in; empty or partially
// populated input yields zero values, never an error.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/statuskit/statuskit/internal/model"
)

// DefaultBucketSeconds is the chart bucket width: 30-minute windows.
const DefaultBucketSeconds = 1800

type ChartPoint struct {
	Timestamp int64   `json:"timestamp"` // bucket start, unix seconds
	Value     float64 `json:"value"`     // average response time in ms
}

type KPIs struct {
	Uptime        string       `json:"uptime"` // "99.00"
	TotalMonitors int          `json:"totalMonitors"`
	Incidents     int          `json:"incidents"`
	AvgResponse   int          `json:"avgResponse"` // ms
	ChartData     []ChartPoint `json:"chartData"`
}

// MergeManualLogs folds user-authored incident logs into each record's
// provider logs, keyed by the record's persisted ID string, and re-sorts
// the combined list newest-first. That descending order is the contract the
// incident list rendering depends on. Records without manual entries come
// back untouched. Coinciding manual and provider entries are both kept;
// there is no identity to dedupe on.
func MergeManualLogs(records []model.MonitorRecord, manual map[string][]model.LogEntry) []model.MonitorRecord {
	if len(manual) == 0 {
		return records
	}
	out := make([]model.MonitorRecord, len(records))
	for i, r := range records {
		extra := manual[r.ID.String()]
		if len(extra) == 0 {
			out[i] = r
			continue
		}
		logs := make([]model.LogEntry, 0, len(r.Logs)+len(extra))
		logs = append(logs, r.Logs...)
		logs = append(logs, extra...)
		sort.SliceStable(logs, func(a, b int) bool {
			return logs[a].Datetime > logs[b].Datetime
		})
		r.Logs = logs
		out[i] = r
	}
	return out
}

// ComputeKPIs reduces a merged record set to display rollups using the
// default chart bucket width.
func ComputeKPIs(records []model.MonitorRecord) KPIs {
	return ComputeKPIsBucketed(records, DefaultBucketSeconds)
}

// ComputeKPIsBucketed is ComputeKPIs with an explicit bucket width in
// seconds. Global uptime averages each record's longest reported window,
// i.e. the last dash-separated field of its uptime ratio; unparsable or
// missing ratios count as 0. Chart buckets are emitted oldest-first, the
// opposite of the log sort: logs read newest-first, charts left to right.
func ComputeKPIsBucketed(records []model.MonitorRecord, bucketSeconds int64) KPIs {
	if bucketSeconds <= 0 {
		bucketSeconds = DefaultBucketSeconds
	}

	k := KPIs{
		Uptime:        "0.00",
		TotalMonitors: len(records),
		ChartData:     []ChartPoint{},
	}
	if len(records) == 0 {
		return k
	}

	var uptimeSum float64
	var respSum, respCount int64
	buckets := make(map[int64][]int)

	for _, r := range records {
		uptimeSum += lastRatioField(r.CustomUptimeRatio)
		for _, l := range r.Logs {
			if l.Type == model.LogTypeDown {
				k.Incidents++
			}
		}
		for _, rt := range r.ResponseTimes {
			respSum += int64(rt.Value)
			respCount++
			bucket := floorBucket(rt.Datetime, bucketSeconds)
			buckets[bucket] = append(buckets[bucket], rt.Value)
		}
	}

	k.Uptime = fmt.Sprintf("%.2f", uptimeSum/float64(len(records)))
	if respCount > 0 {
		k.AvgResponse = int(math.Round(float64(respSum) / float64(respCount)))
	}

	keys := make([]int64, 0, len(buckets))
	for ts := range buckets {
		keys = append(keys, ts)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	for _, ts := range keys {
		var sum int
		for _, v := range buckets[ts] {
			sum += v
		}
		k.ChartData = append(k.ChartData, ChartPoint{
			Timestamp: ts,
			Value:     float64(sum) / float64(len(buckets[ts])),
		})
	}
	return k
}

// floorBucket rounds dt down to the start of its bucket. Integer division
// alone truncates toward zero, which rounds pre-epoch datetimes the wrong
// way.
func floorBucket(dt, width int64) int64 {
	bucket := dt / width * width
	if dt < 0 && bucket > dt {
		bucket -= width
	}
	return bucket
}

func lastRatioField(ratio string) float64 {
	if ratio == "" {
		return 0
	}
	fields := strings.Split(ratio, "-")
	v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
	if err != nil {
		return 0
	}
	return v
}
