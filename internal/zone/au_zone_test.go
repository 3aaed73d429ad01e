package zone

import "testing"

func TestExtractAUZone(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		wantZone int
		wantOk   bool
	}{
		{"state name full match", "123 Example Rd, Victoria", 1, true},
		{"longest state name wins over short code", "South Australia", 5, true},
		{"city name match", "45 High St, Brisbane", 2, true},
		{"city code token match", "Warehouse SYD-12", 3, true},
		{"state code token match", "Depot, NSW", 3, true},
		{"unmatched address defaults to zone 5", "a shed out the back of nowhere", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone, ok := ExtractAUZone(tt.address)
			if zone != tt.wantZone || ok != tt.wantOk {
				t.Errorf("ExtractAUZone(%q) = (%d, %v); want (%d, %v)", tt.address, zone, ok, tt.wantZone, tt.wantOk)
			}
		})
	}
}

func TestExtractAUZonePrefersLongerStateName(t *testing.T) {
	// "NEW SOUTH WALES" must win over any shorter entry that also
	// appears as a substring of the normalized address.
	zone, ok := ExtractAUZone("Unit 4, New South Wales")
	if !ok || zone != 3 {
		t.Errorf("ExtractAUZone() = (%d, %v); want (3, true)", zone, ok)
	}
}
