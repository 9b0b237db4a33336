package census

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Canonical field keys. Cleaned tables use these as their header.
const (
	FieldAnimalNumber       = "animal_number"
	FieldGroupName          = "group_name"
	FieldReproductionStatus = "reproduction_status"
	FieldLactationNumber    = "lactation_number"
	FieldDaysInMilking      = "days_in_milking"
	FieldInseminations      = "inseminations"
	FieldDaysPregnant       = "days_pregnant"
	FieldDaysToCalving      = "days_to_calving"
	FieldMilkYesterday      = "milk_yesterday"
	FieldMilkAvg7d          = "milk_avg_7d"
	FieldTotalLactationMilk = "total_lactation_milk"
	FieldSelectionTag       = "selection_tag"
)

// FieldKind decides how a missing value is imputed.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
)

// Field maps one canonical key to the source headers that may carry it.
type Field struct {
	Key     string    `yaml:"key"`
	Kind    FieldKind `yaml:"kind"`
	Headers []string  `yaml:"headers"`
}

// Profile describes a census export: which pens are out of scope and which
// columns are recognized, in output order.
type Profile struct {
	ExcludedGroups []string `yaml:"excluded_groups"`
	Fields         []Field  `yaml:"fields"`
}

var canonicalKinds = map[string]FieldKind{
	FieldAnimalNumber:       KindText,
	FieldGroupName:          KindText,
	FieldReproductionStatus: KindText,
	FieldLactationNumber:    KindNumber,
	FieldDaysInMilking:      KindNumber,
	FieldInseminations:      KindNumber,
	FieldDaysPregnant:       KindNumber,
	FieldDaysToCalving:      KindNumber,
	FieldMilkYesterday:      KindNumber,
	FieldMilkAvg7d:          KindNumber,
	FieldTotalLactationMilk: KindNumber,
	FieldSelectionTag:       KindText,
}

// DefaultProfile matches the herd-management software export the system was
// built around.
func DefaultProfile() Profile {
	return Profile{
		ExcludedGroups: []string{"ESTABLO INICIAL", "MACHOS", "BECERRAS/NOVILLAS", "SECAS", "RETO"},
		Fields: []Field{
			{Key: FieldAnimalNumber, Kind: KindText, Headers: []string{"Número del animal"}},
			{Key: FieldGroupName, Kind: KindText, Headers: []string{"Nombre del grupo"}},
			{Key: FieldReproductionStatus, Kind: KindText, Headers: []string{"Estado de la reproducción"}},
			{Key: FieldLactationNumber, Kind: KindNumber, Headers: []string{"Nº Lactación"}},
			{Key: FieldDaysInMilking, Kind: KindNumber, Headers: []string{"Días en ordeño"}},
			{Key: FieldInseminations, Kind: KindNumber, Headers: []string{"Número de inseminaciones"}},
			{Key: FieldDaysPregnant, Kind: KindNumber, Headers: []string{"Días preñada"}},
			{Key: FieldDaysToCalving, Kind: KindNumber, Headers: []string{"Días para el parto"}},
			{Key: FieldMilkYesterday, Kind: KindNumber, Headers: []string{"Producción de leche ayer"}},
			{Key: FieldMilkAvg7d, Kind: KindNumber, Headers: []string{"Producción media diaria últimos 7 días"}},
			{Key: FieldTotalLactationMilk, Kind: KindNumber, Headers: []string{"Producción TOTAL en lactación"}},
			{Key: FieldSelectionTag, Kind: KindText, Headers: []string{"Número(s) de selección de animal"}},
		},
	}
}

// LoadProfile reads a YAML profile. An empty path yields DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading census profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing census profile %s: %w", path, err)
	}
	if err := p.normalize(); err != nil {
		return Profile{}, fmt.Errorf("census profile %s: %w", path, err)
	}
	return p, nil
}

// normalize fills in default kinds and rejects unknown or duplicate keys.
func (p *Profile) normalize() error {
	seen := make(map[string]bool, len(p.Fields))
	for i := range p.Fields {
		f := &p.Fields[i]
		kind, ok := canonicalKinds[f.Key]
		if !ok {
			return fmt.Errorf("unknown field key %q", f.Key)
		}
		if seen[f.Key] {
			return fmt.Errorf("field %q declared twice", f.Key)
		}
		seen[f.Key] = true
		if f.Kind == "" {
			f.Kind = kind
		}
	}
	for _, required := range []string{FieldAnimalNumber, FieldGroupName} {
		if !seen[required] {
			return fmt.Errorf("required field %q missing", required)
		}
	}
	return nil
}

// field returns the profile entry for a canonical key.
func (p Profile) field(key string) (Field, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// columnFor locates the source column of a field. The canonical key is always
// accepted as a header so that cleaned tables clean to themselves.
func (p Profile) columnFor(t Table, f Field) int {
	for _, h := range f.Headers {
		if i := t.Column(h); i >= 0 {
			return i
		}
	}
	return t.Column(f.Key)
}

func (p Profile) isExcluded(group string) bool {
	for _, g := range p.ExcludedGroups {
		if g == group {
			return true
		}
	}
	return false
}
