package census

// Summary holds the snapshot-level figures derived from validated records.
type Summary struct {
	TotalAnimals       int
	DistinctGroupCount int
}

// Summarize counts records and distinct non-empty group names.
func Summarize(records []Record) Summary {
	groups := make([]string, len(records))
	for i, r := range records {
		groups[i] = r.GroupName
	}
	return SummarizeGroups(groups)
}

// SummarizeGroups computes a Summary from the group name of every row.
func SummarizeGroups(groups []string) Summary {
	distinct := make(map[string]struct{})
	for _, g := range groups {
		if g != "" {
			distinct[g] = struct{}{}
		}
	}
	return Summary{TotalAnimals: len(groups), DistinctGroupCount: len(distinct)}
}
