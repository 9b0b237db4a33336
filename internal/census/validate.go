package census

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rejection reasons.
const (
	// ReasonMissingRequiredField marks a row without an animal number or group.
	ReasonMissingRequiredField = "missing_required_field"
	// ReasonValueTooLong marks an animal number or group name longer than
	// its column allows.
	ReasonValueTooLong = "value_too_long"
)

// Column limits of the stored row, in characters.
const (
	MaxAnimalNumberLen = 64
	MaxGroupNameLen    = 128
	MaxTextLen         = 128
)

// Record is a validated animal row. The counters that only feed the
// classifier are kept alongside the persisted fields.
type Record struct {
	Position           int
	AnimalNumber       string
	GroupName          string
	ReproductionStatus string
	SelectionTag       string
	MilkYesterday      float64
	MilkAvg7d          float64
	DaysInMilking      int

	LactationNumber    float64
	Inseminations      float64
	DaysPregnant       float64
	DaysToCalving      float64
	TotalLactationMilk float64
}

// Features is the fixed-order vector consumed by the classifier.
type Features [8]float64

// Features returns lactation number, days in milking, inseminations, days
// pregnant, days to calving, milk yesterday, 7-day average and total
// lactation milk, in that order.
func (r Record) Features() Features {
	return Features{
		r.LactationNumber,
		float64(r.DaysInMilking),
		r.Inseminations,
		r.DaysPregnant,
		r.DaysToCalving,
		r.MilkYesterday,
		r.MilkAvg7d,
		r.TotalLactationMilk,
	}
}

// Rejection describes a row dropped by validation.
type Rejection struct {
	Position int               `json:"position"`
	Reason   string            `json:"reason"`
	RawData  map[string]string `json:"raw_data"`
}

// Validate splits a cleaned table into records and rejections. Every row is
// evaluated; a rejection never stops the rows after it.
func Validate(t Table) ([]Record, []Rejection) {
	col := func(key string) int { return t.Column(key) }
	var (
		cAnimal    = col(FieldAnimalNumber)
		cGroup     = col(FieldGroupName)
		cRepro     = col(FieldReproductionStatus)
		cTag       = col(FieldSelectionTag)
		cMilk      = col(FieldMilkYesterday)
		cMilk7d    = col(FieldMilkAvg7d)
		cDIM       = col(FieldDaysInMilking)
		cLact      = col(FieldLactationNumber)
		cInsem     = col(FieldInseminations)
		cPregnant  = col(FieldDaysPregnant)
		cToCalving = col(FieldDaysToCalving)
		cTotal     = col(FieldTotalLactationMilk)
	)

	records := make([]Record, 0, len(t.Rows))
	var rejections []Rejection
	for _, r := range t.Rows {
		animal := strings.TrimSpace(r.Get(cAnimal))
		group := strings.TrimSpace(r.Get(cGroup))
		if animal == "" || group == "" {
			rejections = append(rejections, Rejection{
				Position: r.Position,
				Reason:   ReasonMissingRequiredField,
				RawData:  t.Record(r),
			})
			continue
		}
		if utf8.RuneCountInString(animal) > MaxAnimalNumberLen || utf8.RuneCountInString(group) > MaxGroupNameLen {
			rejections = append(rejections, Rejection{
				Position: r.Position,
				Reason:   ReasonValueTooLong,
				RawData:  t.Record(r),
			})
			continue
		}

		records = append(records, Record{
			Position:           r.Position,
			AnimalNumber:       animal,
			GroupName:          group,
			ReproductionStatus: truncate(strings.TrimSpace(r.Get(cRepro)), MaxTextLen),
			SelectionTag:       truncate(strings.TrimSpace(r.Get(cTag)), MaxTextLen),
			MilkYesterday:      nonNegative(parseNumber(r.Get(cMilk))),
			MilkAvg7d:          nonNegative(parseNumber(r.Get(cMilk7d))),
			DaysInMilking:      parseCount(r.Get(cDIM)),
			LactationNumber:    parseNumber(r.Get(cLact)),
			Inseminations:      parseNumber(r.Get(cInsem)),
			DaysPregnant:       parseNumber(r.Get(cPregnant)),
			DaysToCalving:      parseNumber(r.Get(cToCalving)),
			TotalLactationMilk: parseNumber(r.Get(cTotal)),
		})
	}
	return records, rejections
}

// parseNumber is deliberately permissive: a comma is accepted as decimal
// separator and anything unparseable becomes 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseCount parses a day counter, dropping any fraction. Negative values and
// values past the 32-bit column range are noise like any other and become 0.
func parseCount(s string) int {
	v := math.Trunc(parseNumber(s))
	if v < 0 || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
