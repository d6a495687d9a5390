// ABOUTME: Posture catalog model, seed lists, and therapy type enumeration.
// ABOUTME: Maps each of the seven therapy types to its fixed posture subset.
package models

import "strings"

// Posture is a reference exercise in the catalog.
type Posture struct {
	ID           int64   `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	SanskritName *string `json:"sanskrit_name,omitempty" yaml:"sanskrit_name,omitempty"`
	Instructions *string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Benefits     *string `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	Precautions  *string `json:"precautions,omitempty" yaml:"precautions,omitempty"`
	Video        *string `json:"video,omitempty" yaml:"video,omitempty"`
	Photo        *string `json:"photo,omitempty" yaml:"photo,omitempty"`
}

// PostureRef is the short form of a posture offered when building a series.
type PostureRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SanskritName string `json:"sanskrit_name"`
}

// CatalogEntry is one seed row: display name and Sanskrit name.
type CatalogEntry struct {
	Name         string
	SanskritName string
}

// BaseCatalog is the first posture list shipped with the catalog.
var BaseCatalog = []CatalogEntry{
	{"Cat Pose", "Marjaryasana"},
	{"Chair Pose", "Utkatasana"},
	{"Cobra Pose", "Bhujangasana"},
	{"Bound Angle Pose", "Baddha Konasana"},
	{"Dolphin Plank Pose", "Makara Adho Mukha Svanasana"},
	{"Downward Facing Dog", "Adho Mukha Svanasana"},
	{"Boat Pose", "Navasana"},
	{"Corpse Pose", "Savasana"},
	{"Easy Pose", "Sukhasana"},
}

// AdditionalCatalog was added later for the extended therapy types.
var AdditionalCatalog = []CatalogEntry{
	{"Child's Pose", "Balasana"},
	{"Legs Up the Wall", "Viparita Karani"},
	{"Seated Forward Bend", "Paschimottanasana"},
	{"Bridge Pose", "Setu Bandhasana"},
	{"Camel Pose", "Ustrasana"},
	{"Lotus Pose", "Padmasana"},
	{"Locust Pose", "Salabhasana"},
	{"Seated Twist", "Ardha Matsyendrasana"},
	{"Supine Twist", "Supta Matsyendrasana"},
}

// TherapyType is the condition a series targets.
type TherapyType string

const (
	TherapyAnxiety     TherapyType = "Anxiety"
	TherapyDepression  TherapyType = "Depression"
	TherapyBackPain    TherapyType = "Back Pain"
	TherapyArthritis   TherapyType = "Arthritis"
	TherapyHeadache    TherapyType = "Headache"
	TherapyInsomnia    TherapyType = "Insomnia"
	TherapyPoorPosture TherapyType = "Poor Posture"
)

// AllTherapyTypes lists the therapy types in form order.
var AllTherapyTypes = []TherapyType{
	TherapyAnxiety, TherapyDepression, TherapyBackPain, TherapyArthritis,
	TherapyHeadache, TherapyInsomnia, TherapyPoorPosture,
}

// TherapyPostures maps each therapy type to the posture names relevant to it.
var TherapyPostures = map[TherapyType][]string{
	TherapyAnxiety: {
		"Bound Angle Pose", "Boat Pose", "Cobra Pose", "Cat Pose", "Corpse Pose", "Easy Pose",
		"Child's Pose", "Legs Up the Wall", "Seated Forward Bend", "Bridge Pose", "Camel Pose", "Lotus Pose",
	},
	TherapyDepression: {
		"Cat Pose", "Cobra Pose", "Boat Pose", "Bound Angle Pose", "Corpse Pose", "Easy Pose",
		"Child's Pose", "Legs Up the Wall", "Seated Forward Bend", "Bridge Pose", "Camel Pose", "Lotus Pose",
	},
	TherapyBackPain: {
		"Cat Pose", "Chair Pose", "Cobra Pose", "Bound Angle Pose", "Dolphin Plank Pose", "Downward Facing Dog",
		"Child's Pose", "Bridge Pose", "Locust Pose", "Camel Pose", "Seated Twist", "Supine Twist",
	},
	TherapyArthritis: {
		"Easy Pose", "Child's Pose", "Cat Pose", "Cobra Pose", "Bound Angle Pose", "Seated Forward Bend",
		"Bridge Pose", "Legs Up the Wall", "Corpse Pose", "Seated Twist", "Supine Twist", "Lotus Pose",
	},
	TherapyHeadache: {
		"Child's Pose", "Cat Pose", "Cobra Pose", "Easy Pose", "Seated Forward Bend", "Legs Up the Wall",
		"Corpse Pose", "Seated Twist", "Supine Twist", "Bridge Pose", "Camel Pose", "Lotus Pose",
	},
	TherapyInsomnia: {
		"Child's Pose", "Legs Up the Wall", "Corpse Pose", "Easy Pose", "Seated Forward Bend", "Bound Angle Pose",
		"Bridge Pose", "Camel Pose", "Lotus Pose", "Seated Twist", "Supine Twist", "Cat Pose",
	},
	TherapyPoorPosture: {
		"Cat Pose", "Cobra Pose", "Chair Pose", "Downward Facing Dog", "Child's Pose", "Bridge Pose",
		"Locust Pose", "Camel Pose", "Seated Twist", "Supine Twist", "Bound Angle Pose", "Seated Forward Bend",
	},
}

// legacyTherapyLabels are the labels used by the original Spanish forms.
var legacyTherapyLabels = map[string]TherapyType{
	"ansiedad":         TherapyAnxiety,
	"depresión":        TherapyDepression,
	"depresion":        TherapyDepression,
	"dolor de espalda": TherapyBackPain,
	"artritis":         TherapyArthritis,
	"dolor de cabeza":  TherapyHeadache,
	"insomnio":         TherapyInsomnia,
	"mala postura":     TherapyPoorPosture,
}

// ParseTherapyType resolves a label (case-insensitive, English or legacy
// Spanish) to a TherapyType.
func ParseTherapyType(label string) (TherapyType, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, tt := range AllTherapyTypes {
		if strings.ToLower(string(tt)) == l {
			return tt, true
		}
	}
	tt, ok := legacyTherapyLabels[l]
	return tt, ok
}

// IsValid reports whether t is one of the seven therapy types.
func (t TherapyType) IsValid() bool {
	_, ok := TherapyPostures[t]
	return ok
}

// PostureNames returns the posture names for t, or nil for an unknown type.
func (t TherapyType) PostureNames() []string {
	return TherapyPostures[t]
}
