package models

import (
	"encoding/json"

	"gorm.io/gorm"

	"herdsnap/internal/textfold"
)

// AnimalRow is one animal's metrics within a snapshot. Rows are only created
// as part of their snapshot's creation and are never mutated afterwards.
type AnimalRow struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SnapshotID         string    `gorm:"type:uuid;not null;index:idx_animal_rows_snapshot_group,priority:1" json:"snapshot_id"`
	Position           int       `gorm:"not null" json:"position"`
	AnimalNumber       string    `gorm:"not null;size:64" json:"animal_number"`
	GroupName          string    `gorm:"not null;size:128;index:idx_animal_rows_snapshot_group,priority:2" json:"group_name"`
	MilkYesterday      float64   `gorm:"not null;default:0" json:"milk_yesterday"`
	MilkAvg7d          float64   `gorm:"column:milk_avg_7d;not null;default:0" json:"milk_avg_7d"`
	ReproductionStatus string    `gorm:"size:128" json:"reproduction_status"`
	DaysInMilking      int       `gorm:"not null;default:0" json:"days_in_milking"`
	SelectionTag       string    `gorm:"size:128" json:"selection_tag"`
	Category           *Category `json:"category"`
	SearchText         string    `gorm:"not null;default:''" json:"-"`

	Snapshot *Snapshot `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate fills the folded search column from the searchable fields.
func (r *AnimalRow) BeforeCreate(tx *gorm.DB) error {
	r.SearchText = textfold.Key(r.AnimalNumber, r.GroupName, r.ReproductionStatus)
	return nil
}

// CategoryLabel returns the display label of the row's category, or an empty
// string when the row is unclassified.
func (r AnimalRow) CategoryLabel() string {
	if r.Category == nil {
		return ""
	}
	return r.Category.Label()
}

// MarshalJSON adds category_label to the wire form.
func (r AnimalRow) MarshalJSON() ([]byte, error) {
	type row AnimalRow
	return json.Marshal(struct {
		row
		CategoryLabel string `json:"category_label,omitempty"`
	}{row(r), r.CategoryLabel()})
}
