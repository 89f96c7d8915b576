package courts

// State is a US state or territory with the federal circuit covering it
type State struct {
	Code    string
	Name    string
	Abbrev  string // Bluebook abbreviation used in court parentheticals
	Circuit string // Case-law database court id of the covering circuit
}

var states = []State{
	{"AL", "Alabama", "Ala.", "ca11"},
	{"AK", "Alaska", "Alaska", "ca9"},
	{"AZ", "Arizona", "Ariz.", "ca9"},
	{"AR", "Arkansas", "Ark.", "ca8"},
	{"CA", "California", "Cal.", "ca9"},
	{"CO", "Colorado", "Colo.", "ca10"},
	{"CT", "Connecticut", "Conn.", "ca2"},
	{"DE", "Delaware", "Del.", "ca3"},
	{"DC", "District of Columbia", "D.C.", "cadc"},
	{"FL", "Florida", "Fla.", "ca11"},
	{"GA", "Georgia", "Ga.", "ca11"},
	{"HI", "Hawaii", "Haw.", "ca9"},
	{"ID", "Idaho", "Idaho", "ca9"},
	{"IL", "Illinois", "Ill.", "ca7"},
	{"IN", "Indiana", "Ind.", "ca7"},
	{"IA", "Iowa", "Iowa", "ca8"},
	{"KS", "Kansas", "Kan.", "ca10"},
	{"KY", "Kentucky", "Ky.", "ca6"},
	{"LA", "Louisiana", "La.", "ca5"},
	{"ME", "Maine", "Me.", "ca1"},
	{"MD", "Maryland", "Md.", "ca4"},
	{"MA", "Massachusetts", "Mass.", "ca1"},
	{"MI", "Michigan", "Mich.", "ca6"},
	{"MN", "Minnesota", "Minn.", "ca8"},
	{"MS", "Mississippi", "Miss.", "ca5"},
	{"MO", "Missouri", "Mo.", "ca8"},
	{"MT", "Montana", "Mont.", "ca9"},
	{"NE", "Nebraska", "Neb.", "ca8"},
	{"NV", "Nevada", "Nev.", "ca9"},
	{"NH", "New Hampshire", "N.H.", "ca1"},
	{"NJ", "New Jersey", "N.J.", "ca3"},
	{"NM", "New Mexico", "N.M.", "ca10"},
	{"NY", "New York", "N.Y.", "ca2"},
	{"NC", "North Carolina", "N.C.", "ca4"},
	{"ND", "North Dakota", "N.D.", "ca8"},
	{"OH", "Ohio", "Ohio", "ca6"},
	{"OK", "Oklahoma", "Okla.", "ca10"},
	{"OR", "Oregon", "Or.", "ca9"},
	{"PA", "Pennsylvania", "Pa.", "ca3"},
	{"PR", "Puerto Rico", "P.R.", "ca1"},
	{"RI", "Rhode Island", "R.I.", "ca1"},
	{"SC", "South Carolina", "S.C.", "ca4"},
	{"SD", "South Dakota", "S.D.", "ca8"},
	{"TN", "Tennessee", "Tenn.", "ca6"},
	{"TX", "Texas", "Tex.", "ca5"},
	{"UT", "Utah", "Utah", "ca10"},
	{"VT", "Vermont", "Vt.", "ca2"},
	{"VA", "Virginia", "Va.", "ca4"},
	{"WA", "Washington", "Wash.", "ca9"},
	{"WV", "West Virginia", "W. Va.", "ca4"},
	{"WI", "Wisconsin", "Wis.", "ca7"},
	{"WY", "Wyoming", "Wyo.", "ca10"},
}

var circuitNames = map[string]string{
	"ca1":  "First",
	"ca2":  "Second",
	"ca3":  "Third",
	"ca4":  "Fourth",
	"ca5":  "Fifth",
	"ca6":  "Sixth",
	"ca7":  "Seventh",
	"ca8":  "Eighth",
	"ca9":  "Ninth",
	"ca10": "Tenth",
	"ca11": "Eleventh",
	"cadc": "District of Columbia",
	"cafc": "Federal",
}

// ordinal forms used in short court names, e.g. "9th Cir."
var circuitOrdinals = map[string]string{
	"1st": "ca1", "2d": "ca2", "2nd": "ca2", "3d": "ca3", "3rd": "ca3",
	"4th": "ca4", "5th": "ca5", "6th": "ca6", "7th": "ca7", "8th": "ca8",
	"9th": "ca9", "10th": "ca10", "11th": "ca11",
}
