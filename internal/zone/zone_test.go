package zone

import "testing"

func TestExtractCountry(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
		wantOk  bool
	}{
		{
			name:    "trailing two-letter code",
			address: "123 Example St; Sydney; AU",
			want:    "AU",
			wantOk:  true,
		},
		{
			name:    "two-letter code embedded in a word group",
			address: "Sydney NSW AU",
			want:    "AU",
			wantOk:  true,
		},
		{
			name:    "falls back to country name mapping",
			address: "Via Roma 1, Milan, Italy",
			want:    "IT",
			wantOk:  true,
		},
		{
			name:    "no country found anywhere",
			address: "a road without any markers",
			want:    "",
			wantOk:  false,
		},
		{
			name:    "lowercase code still matches after upper-casing",
			address: "Auckland; nz",
			want:    "NZ",
			wantOk:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCountry(tt.address)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("ExtractCountry(%q) = (%q, %v); want (%q, %v)", tt.address, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

func TestIsAU(t *testing.T) {
	if !IsAU("42 Smith St; Melbourne; AU") {
		t.Error("IsAU() = false for an AU address; want true")
	}
	if IsAU("42 Rue de Paris; Paris; FR") {
		t.Error("IsAU() = true for a French address; want false")
	}
}

func TestRequireCountry(t *testing.T) {
	if _, err := RequireCountry("42 Smith St; Melbourne; AU"); err != nil {
		t.Errorf("RequireCountry() returned an error for a resolvable address: %v", err)
	}
	_, err := RequireCountry("a road without any markers")
	if err != ErrAddressUnparsable {
		t.Errorf("RequireCountry() error = %v; want ErrAddressUnparsable", err)
	}
}
