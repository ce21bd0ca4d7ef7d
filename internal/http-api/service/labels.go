package service

// ratingLabels is the fixed tier description for each star value, indexed
// 1..5. Exposed so presentation never duplicates the mapping.
var ratingLabels = [5]string{
	"Total dumpster fire",
	"Kinda sucks",
	"Doesn't suck",
	"Actually good",
	"Holy $#!† this works!",
}

// Labels returns the label table in star order, index 0 holding the label
// for one star.
func Labels() [5]string {
	return ratingLabels
}

// LabelFor returns the label for a star value, or "" when the value is
// outside [1,5].
func LabelFor(value int) string {
	if value < 1 || value > 5 {
		return ""
	}
	return ratingLabels[value-1]
}
