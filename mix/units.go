package mix

// VolumeUnit is a volume unit expressed in microliters.
type VolumeUnit float64

const (
	Microliter VolumeUnit = 1
	Milliliter VolumeUnit = 1000
	Liter      VolumeUnit = 1_000_000
)

func (u VolumeUnit) String() string {
	switch u {
	case Microliter:
		return "µL"
	case Milliliter:
		return "mL"
	case Liter:
		return "L"
	}
	return "?"
}

// From converts a volume in microliters to u.
func (u VolumeUnit) From(microliters float64) float64 { return microliters / float64(u) }

// To converts a volume in u to microliters.
func (u VolumeUnit) To(v float64) float64 { return v * float64(u) }
