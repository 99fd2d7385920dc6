package model

import "github.com/sells-group/kgmap/internal/fee"

// NewKindergarten copies the cleaned source fields and the normalized
// inclusiveness flag into a dataset entry. Fee is left raw; Expand replaces it.
func NewKindergarten(rec SourceRecord, inclusive string) Kindergarten {
	return Kindergarten{
		Name:      rec.Name,
		Nature:    rec.Nature,
		Inclusive: inclusive,
		Scale:     rec.Scale,
		Address:   rec.Address,
		Fee:       rec.Fee,
		Phone:     rec.Phone,
	}
}

// Expand produces one entry per fee class, in class order. The fee is
// replaced by the class fee and, when the class is named, the name becomes
// "<name>（<class>）".
func Expand(base Kindergarten, classes []fee.Class) []Kindergarten {
	out := make([]Kindergarten, 0, len(classes))
	for _, c := range classes {
		k := base
		k.Fee = c.Fee
		if c.Name != "" {
			k.Name = base.Name + "（" + c.Name + "）"
		}
		out = append(out, k)
	}
	return out
}
