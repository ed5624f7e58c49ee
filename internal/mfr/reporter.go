package mfr

import (
	"context"
	"fmt"
	"time"

	logs "github.com/danmuck/mfrlink/internal/logging"
	"github.com/danmuck/mfrlink/internal/observability"
)

// StartStatsReporter logs link statistics every interval while there is
// activity, and refreshes the track gauges. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration, comm *CommManager, pic *Picture) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var prev CommStats
		for {
			select {
			case <-ticker.C:
				cur := comm.Stats()
				targets, missiles := pic.Counts()
				observability.SetTrackCount("target", targets)
				observability.SetTrackCount("missile", missiles)

				if line, ok := formatDelta(prev, cur, interval); ok {
					logs.Infof("%s tracks=%d missiles=%d", line, targets, missiles)
				}
				prev = cur
			case <-ctx.Done():
				return
			}
		}
	}()
}

// formatDelta renders the change between two snapshots. It reports false
// when nothing arrived in the window.
func formatDelta(prev, cur CommStats, window time.Duration) (string, bool) {
	packets := cur.Transport.Packets - prev.Transport.Packets
	if packets == 0 {
		return "", false
	}
	batches := cur.Batch.TotalPackets - prev.Batch.TotalPackets
	lost := cur.Batch.LossCount - prev.Batch.LossCount
	integrity := cur.Batch.IntegrityFailures - prev.Batch.IntegrityFailures
	legacy := (cur.LegacyTargets + cur.LegacyMissiles) - (prev.LegacyTargets + prev.LegacyMissiles)
	rate := float64(packets) / window.Seconds()

	return fmt.Sprintf(
		"mfr.stats stream=%s pkt_rate=%.1f/s batches=%d lost=%d integrity=%d legacy=%d last_seq=%d",
		cur.Stream, rate, batches, lost, integrity, legacy, cur.Batch.LastSeqID,
	), true
}
