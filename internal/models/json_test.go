package models

import "testing"

func TestUnmarshalCharges(t *testing.T) {
	raw := `{"freight": 600, "fuel": 40.5}`
	got, err := unmarshalCharges(raw)
	if err != nil {
		t.Fatalf("unmarshalCharges() error = %v", err)
	}
	if got[ChargeFreight] != 600 {
		t.Errorf("got[ChargeFreight] = %v; want 600", got[ChargeFreight])
	}
	if got[ChargeKind("fuel")] != 40.5 {
		t.Errorf("got[fuel] = %v; want 40.5", got[ChargeKind("fuel")])
	}
}

func TestUnmarshalChargesInvalidJSON(t *testing.T) {
	_, err := unmarshalCharges("not json")
	if err == nil {
		t.Error("unmarshalCharges() error = nil; want an error for malformed JSON")
	}
}

func TestMarshalUnmarshalDetailsRoundTrip(t *testing.T) {
	details := AuditResultDetails{
		AuditResults: []RateCardAuditDetail{{RateCardID: "RC-1", Service: "Standard"}},
	}
	raw, err := marshalDetails(details)
	if err != nil {
		t.Fatalf("marshalDetails() error = %v", err)
	}

	var got AuditResultDetails
	if err := unmarshalDetails(raw, &got); err != nil {
		t.Fatalf("unmarshalDetails() error = %v", err)
	}
	if len(got.AuditResults) != 1 || got.AuditResults[0].RateCardID != "RC-1" {
		t.Errorf("round-tripped details = %+v; want RateCardID RC-1", got)
	}
}

func TestUnmarshalDetailsEmptyStringIsNoOp(t *testing.T) {
	var got AuditResultDetails
	if err := unmarshalDetails("", &got); err != nil {
		t.Errorf("unmarshalDetails(\"\") error = %v; want nil", err)
	}
}
