package domain

// AppearanceKind tags the stored variant of an appearance
type AppearanceKind string

const (
	AppearanceOcclusion  AppearanceKind = "occlusion"
	AppearanceSomatotype AppearanceKind = "somatotype"
)

// AppearanceTypeKey is the property holding the AppearanceKind
const AppearanceTypeKey = "appearance_type"

// Somatotype scale bounds
const (
	ScaleMin = 1.0
	ScaleMax = 7.0
)

// ErrScaleRange is the message for somatotype values outside the scale
const ErrScaleRange = "Scale range not between 1 and 7"

type OcclusionIn struct {
	Glasses   bool   `json:"glasses"`
	Beard     string `json:"beard,omitempty" validate:"omitempty,oneof=None Little Medium Big"`
	Moustache string `json:"moustache,omitempty" validate:"omitempty,oneof=None Little Medium Big"`
	Extra
}

type SomatotypeIn struct {
	Ectomorph float64 `json:"ectomorph"`
	Endomorph float64 `json:"endomorph"`
	Mesomorph float64 `json:"mesomorph"`
	Extra
}

// InScale reports whether every component lies within the somatotype scale
func (s SomatotypeIn) InScale() bool {
	for _, v := range []float64{s.Ectomorph, s.Endomorph, s.Mesomorph} {
		if v < ScaleMin || v > ScaleMax {
			return false
		}
	}
	return true
}

// AppearanceKindOf returns the stored variant of an appearance document
func AppearanceKindOf(doc Document) AppearanceKind {
	return AppearanceKind(doc.String(AppearanceTypeKey))
}
