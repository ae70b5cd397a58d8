package models

import "time"

// Stats is the derived financial summary shown on the dashboard. Every ratio
// guards its zero denominator by reporting 0 instead of NaN or infinity.
type Stats struct {
	TotalPigs         int     `json:"totalPigs"`
	ActivePigs        int     `json:"activePigs"`
	SoldPigs          int     `json:"soldPigs"`
	TotalFeedCost     float64 `json:"totalFeedCost"`
	TotalPurchaseCost float64 `json:"totalPurchaseCost"`
	TotalMiscCost     float64 `json:"totalMiscCost"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalExpenses     float64 `json:"totalExpenses"`
	NetProfit         float64 `json:"netProfit"`
	AvgDailyFeedCost  float64 `json:"avgDailyFeedCost"`
	SellThroughRate   float64 `json:"sellThroughRate"`
	ProfitMargin      float64 `json:"profitMargin"`
}

// DailySummary is a dated Stats document archived for trend history.
type DailySummary struct {
	Date        string    `bson:"date" json:"date"`
	Stats       Stats     `bson:"stats" json:"stats"`
	GeneratedAt time.Time `bson:"generated_at" json:"generatedAt"`
}
