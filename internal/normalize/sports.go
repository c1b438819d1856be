package normalize

import (
	"strings"
	"unicode"
)

// FallbackWorkoutType is used for sport codes missing from the tables.
const FallbackWorkoutType = "Activity"

var whoopSports = map[int]string{
	-1: "Activity",
	0:  "Running",
	1:  "Cycling",
	16: "Baseball",
	17: "Basketball",
	18: "Rowing",
	19: "Fencing",
	20: "Field Hockey",
	21: "Football",
	22: "Golf",
	24: "Ice Hockey",
	25: "Lacrosse",
	27: "Rugby",
	28: "Sailing",
	29: "Skiing",
	30: "Soccer",
	31: "Softball",
	32: "Squash",
	33: "Swimming",
	34: "Tennis",
	35: "Track & Field",
	36: "Volleyball",
	37: "Water Polo",
	38: "Wrestling",
	39: "Boxing",
	42: "Dance",
	43: "Pilates",
	44: "Yoga",
	45: "Weightlifting",
	47: "Cross Country Skiing",
	48: "Functional Fitness",
	49: "Duathlon",
	51: "Gymnastics",
	52: "Hiking",
	53: "Horseback Riding",
	55: "Kayaking",
	56: "Martial Arts",
	57: "Mountain Biking",
	59: "Powerlifting",
	60: "Rock Climbing",
	61: "Paddleboarding",
	62: "Triathlon",
	63: "Walking",
	64: "Surfing",
	65: "Elliptical",
	66: "Stairmaster",
	70: "Meditation",
	71: "Other",
	96: "HIIT",
	97: "Spin",
}

// terraActivities follows the aggregator's activity type enumeration.
var terraActivities = map[int]string{
	1:   "Cycling",
	7:   "Walking",
	8:   "Running",
	9:   "Aerobics",
	12:  "Basketball",
	24:  "Dancing",
	25:  "Elliptical",
	35:  "Hiking",
	80:  "Strength Training",
	82:  "Swimming",
	100: "Yoga",
}

// WhoopWorkoutType maps a WHOOP sport id, or failing that its sport name, to
// a display workout type.
func WhoopWorkoutType(sportID *int, sportName string) string {
	if sportID != nil {
		if name, ok := whoopSports[*sportID]; ok {
			return name
		}
	}
	if sportName != "" {
		return titleCase(sportName)
	}
	return FallbackWorkoutType
}

// TerraWorkoutType maps an aggregator activity code to a display workout type.
func TerraWorkoutType(code *int) string {
	if code == nil {
		return FallbackWorkoutType
	}
	if name, ok := terraActivities[*code]; ok {
		return name
	}
	return FallbackWorkoutType
}

// titleCase turns "functional-fitness" or "functional_fitness" into
// "Functional Fitness".
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return FallbackWorkoutType
	}
	return strings.Join(words, " ")
}
