// Package reporting derives financial summaries from a snapshot and archives
// a dated summary document for trend history.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/domain/models"
)

// Archive stores dated summary documents.
type Archive interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}

// SnapshotSource provides the current authoritative snapshot.
type SnapshotSource interface {
	Current() models.Snapshot
}

// Service computes dashboard statistics and runs the daily archive job.
type Service struct {
	source  SnapshotSource
	archive Archive
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a reporting service. The archive may be nil when no
// archival backend is configured.
func NewService(source SnapshotSource, archive Archive, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, archive: archive, logger: logger, now: time.Now}
}

// Summarize computes the financial summary for a snapshot. Pure: no hidden
// state, and every division guards its zero denominator by yielding 0.
func Summarize(s models.Snapshot) models.Stats {
	stats := models.Stats{TotalPigs: len(s.Pigs)}

	for _, p := range s.Pigs {
		switch p.Status {
		case models.StatusRaising:
			stats.ActivePigs++
		case models.StatusSold:
			stats.SoldPigs++
		}
		stats.TotalPurchaseCost += p.PurchaseCost
	}
	for _, r := range s.FeedRecords {
		stats.TotalFeedCost += r.Cost
	}
	for _, r := range s.MiscRecords {
		stats.TotalMiscCost += r.Cost
	}
	for _, r := range s.SaleRecords {
		stats.TotalRevenue += r.TotalRevenue
	}

	stats.TotalExpenses = stats.TotalFeedCost + stats.TotalPurchaseCost + stats.TotalMiscCost
	stats.NetProfit = stats.TotalRevenue - stats.TotalExpenses
	stats.AvgDailyFeedCost = avgDailyFeedCost(s.FeedRecords, stats.TotalFeedCost)

	if stats.TotalPigs > 0 {
		stats.SellThroughRate = float64(stats.SoldPigs) / float64(stats.TotalPigs) * 100
	}
	if stats.TotalRevenue > 0 {
		stats.ProfitMargin = stats.NetProfit / stats.TotalRevenue * 100
	}
	return stats
}

// avgDailyFeedCost spreads the total feed spend over the span between the
// earliest and latest purchase dates, clamped to a minimum of one day. Below
// two records the rate is defined as 0. Records with unparsable dates are
// skipped, matching the tolerance of the rest of the pipeline.
func avgDailyFeedCost(records []models.FeedRecord, totalFeedCost float64) float64 {
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		d, err := time.Parse(models.DateLayout, r.DatePurchased)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) < 2 {
		return 0
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	spanDays := dates[len(dates)-1].Sub(dates[0]).Hours() / 24
	if spanDays < 1 {
		spanDays = 1
	}
	return totalFeedCost / spanDays
}

// ArchiveDailySummary snapshots today's stats into the archive. Failures are
// logged, never fatal; the next scheduled run is a fresh attempt.
func (s *Service) ArchiveDailySummary(ctx context.Context) error {
	if s.archive == nil {
		s.logger.Debug("no archive configured, skipping daily summary")
		return nil
	}

	stats := Summarize(s.source.Current())
	summary := models.DailySummary{
		Date:        s.now().UTC().Format(models.DateLayout),
		Stats:       stats,
		GeneratedAt: s.now().UTC(),
	}

	if err := s.archive.SaveDailySummary(ctx, summary); err != nil {
		return fmt.Errorf("archive daily summary: %w", err)
	}

	s.logger.Info("daily summary archived",
		zap.String("date", summary.Date),
		zap.Float64("net_profit", stats.NetProfit))
	return nil
}
