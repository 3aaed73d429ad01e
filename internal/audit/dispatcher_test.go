package audit

import (
	"testing"

	"github.com/joexgit2024/freightaudit/internal/models"
)

func TestDispatchByMode(t *testing.T) {
	tests := []struct {
		name string
		mode models.Mode
		want Calculator
	}{
		{"air", models.ModeAir, CalcAir},
		{"ocean", models.ModeOcean, CalcOcean},
		{"dgf air", models.ModeDGFAir, CalcDGF},
		{"dgf sea", models.ModeDGFSea, CalcDGF},
		{"au domestic", models.ModeAUDomestic, CalcExpressAUDomestic},
		{"express third party", models.ModeExpress3P, CalcExpressThirdParty},
		{"unknown mode", models.Mode("bogus"), CalcReviewRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := &models.Invoice{Mode: tt.mode}
			got := Dispatch(invoice)
			if got != tt.want {
				t.Errorf("Dispatch() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestDispatchExpressRoutesByAUEnds(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		destination string
		description string
		want        Calculator
	}{
		{"both AU routes domestic", "Sydney, NSW, Australia", "Melbourne, VIC, Australia", "", CalcExpressAUDomestic},
		{"origin AU routes export", "Sydney, NSW, Australia", "Singapore", "", CalcExpressExport},
		{"destination AU routes import", "Singapore", "Sydney, NSW, Australia", "", CalcExpressImport},
		{"neither AU with 3rd party tag routes third party", "Singapore", "Hong Kong", "3RD PARTY billing", CalcExpressThirdParty},
		{"neither AU with express worldwide tag routes third party", "Singapore", "Hong Kong", "EXPRESS WORLDWIDE", CalcExpressThirdParty},
		{"neither AU with express 3rdcty tag routes third party", "Singapore", "Hong Kong", "EXPRESS 3RDCTY", CalcExpressThirdParty},
		{"neither AU with third country tag routes third party", "Singapore", "Hong Kong", "THIRD COUNTRY", CalcExpressThirdParty},
		{"neither AU without a tag goes to review", "Singapore", "Hong Kong", "", CalcReviewRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := &models.Invoice{
				Mode:        models.ModeExpress,
				Origin:      tt.origin,
				Destination: tt.destination,
				Description: tt.description,
			}
			got := Dispatch(invoice)
			if got != tt.want {
				t.Errorf("Dispatch() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestHasThirdPartyTagIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"shipped 3rd party freight collect", true},
		{"THIRD PARTY BILLED", true},
		{"express worldwide service", true},
		{"EXPRESS 3RDCTY", true},
		{"booked as third country movement", true},
		{"standard prepaid shipment", false},
		{"", false},
	}

	for _, tt := range tests {
		got := hasThirdPartyTag(tt.description)
		if got != tt.want {
			t.Errorf("hasThirdPartyTag(%q) = %v; want %v", tt.description, got, tt.want)
		}
	}
}
