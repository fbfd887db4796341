package schema

import "strings"

// ProgramDisplayNames maps the display names used by dashboards to program codes.
var ProgramDisplayNames = map[string]string{
	"All Colleges":           GrandTotal,
	"BSCS":                   "BSCS",
	"BSIT":                   "BSIT",
	"BSA":                    "BSA",
	"BSBA":                   "BSBA",
	"BEEd":                   "BEED",
	"BSEd Major in Filipino": "BSED_FIL",
	"BSEd Major in English":  "BSED_ENG",
	"BSEd Major in Math":     "BSED_MATH",
	"BSN":                    "BSN",
	"BSECE":                  "BSECE",
	"BSHM":                   "BSHM",
	"ABPsych":                "ABPSYCH",
}

// ResolveProgramCode turns a display name or a code into a program code.
// Unknown names are returned trimmed and unchanged.
func ResolveProgramCode(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := ProgramDisplayNames[name]; ok {
		return code
	}
	for display, code := range ProgramDisplayNames {
		if strings.EqualFold(display, name) {
			return code
		}
	}
	return name
}

// ProgramDisplayName returns the display name for a program code, or the code itself.
func ProgramDisplayName(code string) string {
	for display, c := range ProgramDisplayNames {
		if c == code {
			return display
		}
	}
	return code
}
