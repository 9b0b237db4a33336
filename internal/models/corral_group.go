package models

// CorralGroup holds per-pen statistics computed on demand from a snapshot's
// rows. It is never persisted.
type CorralGroup struct {
	GroupName        string  `json:"group_name"`
	AnimalCount      int     `json:"animal_count"`
	AvgMilkYesterday float64 `json:"avg_milk_yesterday"`
	SumMilkYesterday float64 `json:"sum_milk_yesterday"`
	AvgMilk7d        float64 `json:"avg_milk_7d"`
}
