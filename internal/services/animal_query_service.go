package services

import (
	"math"
	"strings"

	"gorm.io/gorm"

	apperrors "herdsnap/internal/errors"
	"herdsnap/internal/models"
	"herdsnap/internal/pagination"
	"herdsnap/internal/query"
	"herdsnap/internal/uuid"
)

var rowSortKeys = query.SortKeys{
	Columns: map[string]string{
		"animal_number":       "animal_number",
		"group_name":          "group_name",
		"milk_yesterday":      "milk_yesterday",
		"milk_avg_7d":         "milk_avg_7d",
		"reproduction_status": "reproduction_status",
		"days_in_milking":     "days_in_milking",
		"category":            "category",
	},
	Default: query.Sort{Column: "id"},
}

// animalQueryService serves row listings and per-group rollups. Every read
// is scoped to snapshots the caller owns; anything else reads as empty.
type animalQueryService struct {
	db *gorm.DB
}

// NewAnimalQueryService creates a new AnimalQueryServicer.
func NewAnimalQueryService(db *gorm.DB) AnimalQueryServicer {
	return &animalQueryService{db: db}
}

// owns reports whether snapshotID exists and belongs to ownerID.
func (s *animalQueryService) owns(ownerID, snapshotID string) (bool, error) {
	if ownerID == "" || !uuid.IsValid(snapshotID) {
		return false, nil
	}
	var n int64
	err := s.db.Model(&models.Snapshot{}).
		Where("id = ? AND owner_id = ?", snapshotID, ownerID).
		Count(&n).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n > 0, nil
}

// ListRows retrieves a paginated, filtered list of a snapshot's rows.
func (s *animalQueryService) ListRows(ownerID, snapshotID string, page pagination.PageRequest, filter RowFilter) (*pagination.PageResponse[models.AnimalRow], error) {
	ok, err := s.owns(ownerID, snapshotID)
	if err != nil {
		return nil, err
	}
	if !ok {
		empty := pagination.Empty[models.AnimalRow](page)
		return &empty, nil
	}

	spec := query.Spec{
		Sort: rowSortKeys.Resolve(filter.SortBy, filter.SortOrder),
		Page: page,
	}
	spec.Filter(query.Where("snapshot_id = ?", snapshotID))
	if g := strings.TrimSpace(filter.Group); g != "" {
		spec.Filter(query.Where("group_name = ?", g))
	}
	if p, ok := query.Contains(filter.Search, "search_text"); ok {
		spec.Filter(p)
	}

	result, err := query.Page[models.AnimalRow](s.db, spec)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &result, nil
}

type groupTotals struct {
	GroupName        string  `gorm:"column:group_name"`
	AnimalCount      int64   `gorm:"column:animal_count"`
	SumMilkYesterday float64 `gorm:"column:sum_milk_yesterday"`
	SumMilkAvg7d     float64 `gorm:"column:sum_milk_avg_7d"`
}

// AggregateByGroup rolls a snapshot's rows up per group, ordered by group
// name. Rows without a group are left out.
func (s *animalQueryService) AggregateByGroup(ownerID, snapshotID string) ([]models.CorralGroup, error) {
	ok, err := s.owns(ownerID, snapshotID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.CorralGroup{}, nil
	}

	var totals []groupTotals
	err = s.db.Model(&models.AnimalRow{}).
		Select("group_name, COUNT(*) AS animal_count, " +
			"COALESCE(SUM(milk_yesterday), 0) AS sum_milk_yesterday, " +
			"COALESCE(SUM(milk_avg_7d), 0) AS sum_milk_avg_7d").
		Where("snapshot_id = ? AND group_name <> ''", snapshotID).
		Group("group_name").
		Order("group_name ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	groups := make([]models.CorralGroup, 0, len(totals))
	for _, t := range totals {
		groups = append(groups, models.CorralGroup{
			GroupName:        t.GroupName,
			AnimalCount:      int(t.AnimalCount),
			SumMilkYesterday: round2(t.SumMilkYesterday),
			AvgMilkYesterday: round2(t.SumMilkYesterday / float64(t.AnimalCount)),
			AvgMilk7d:        round2(t.SumMilkAvg7d / float64(t.AnimalCount)),
		})
	}
	return groups, nil
}

// ListGroupRows returns every row of one group in insertion order.
func (s *animalQueryService) ListGroupRows(ownerID, snapshotID, groupName string) ([]models.AnimalRow, error) {
	ok, err := s.owns(ownerID, snapshotID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.AnimalRow{}, nil
	}

	rows := []models.AnimalRow{}
	err = s.db.Where("snapshot_id = ? AND group_name = ?", snapshotID, strings.TrimSpace(groupName)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
