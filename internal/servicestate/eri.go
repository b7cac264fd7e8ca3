//
//
package servicestate

// ERI icon modes.
const (
	IconModeNormal = 0
	IconModeFlash  = 1
)

// SearchingText is shown in NV mode while out of service.
const SearchingText = "Searching for Service"

// EriEntry is the display information for one roaming indicator.
type EriEntry struct {
	IconIndex int    `yaml:"icon_index" json:"iconIndex"`
	IconMode  int    `yaml:"icon_mode" json:"iconMode"`
	Text      string `yaml:"text" json:"text"`
}

// EriTable maps roaming indicators to display information.
type EriTable struct {
	Entries       map[int]EriEntry
	SearchingText string
}

// DefaultEriTable returns the built-in indicator texts, used when the
// carrier supplies no table.
func DefaultEriTable() EriTable {
	t := EriTable{
		Entries: map[int]EriEntry{
			0:  {Text: "Roaming Indicator On"},
			1:  {Text: "Roaming Indicator Off"},
			2:  {Text: "Roaming Indicator Flashing", IconMode: IconModeFlash},
			3:  {Text: "Out of Neighborhood"},
			4:  {Text: "Out of Building"},
			5:  {Text: "Roaming - Preferred System"},
			6:  {Text: "Roaming - Available System"},
			7:  {Text: "Roaming - Alliance Partner"},
			8:  {Text: "Roaming - Premium Partner"},
			9:  {Text: "Roaming - Full Service Functionality"},
			10: {Text: "Roaming - Partial Service Functionality"},
			11: {Text: "Roaming Banner On"},
			12: {Text: "Roaming Banner Off"},
		},
		SearchingText: SearchingText,
	}
	for ind, e := range t.Entries {
		e.IconIndex = ind
		t.Entries[ind] = e
	}
	return t
}

// Lookup returns the entry for indicator, falling back to the default
// indicator's entry. The bool is false when neither is in the table.
func (t EriTable) Lookup(indicator, defaultIndicator int) (EriEntry, bool) {
	if e, ok := t.Entries[indicator]; ok {
		return e, true
	}
	if e, ok := t.Entries[defaultIndicator]; ok {
		return e, true
	}
	return EriEntry{IconIndex: -1, IconMode: -1}, false
}

// Searching returns the out-of-service text.
func (t EriTable) Searching() string {
	if t.SearchingText == "" {
		return SearchingText
	}
	return t.SearchingText
}
