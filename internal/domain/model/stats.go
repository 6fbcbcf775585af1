package model

// MonthlyPoint is one bucket of a month-indexed series; Month is formatted "2006-01".
type MonthlyPoint struct {
	Month   string
	Revenue int64
	New     int
	Total   int
}

// Dashboard holds the headline figures for one calendar month.
type Dashboard struct {
	Month         string
	Pending       int
	ActiveMembers int
	Revenue       int64
}

// Analytics aggregates revenue and member growth over consecutive months.
type Analytics struct {
	MonthlyRevenue []MonthlyPoint
	MemberGrowth   []MonthlyPoint
	TotalRevenue   int64
	RevenueGrowth  float64 // percent vs previous month
	TotalMembers   int
	MemberGrowthPc float64 // percent vs previous month
	AvgRevenue     int64   // total revenue / total members
}
