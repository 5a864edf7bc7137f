package gs1

import "testing"

func TestParseKilograms(t *testing.T) {
	code, err := Parse("0108412345678905310000125010LOTE-230901")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if code.GTIN != "08412345678905" {
		t.Errorf("GTIN = %q, want 08412345678905", code.GTIN)
	}
	if code.Unit != UnitKilograms {
		t.Errorf("Unit = %q, want kg", code.Unit)
	}
	if code.Weight != 12.50 {
		t.Errorf("Weight = %v, want 12.50", code.Weight)
	}
	if code.Lot != "LOTE-230901" {
		t.Errorf("Lot = %q, want LOTE-230901", code.Lot)
	}
}

func TestParsePounds(t *testing.T) {
	code, err := Parse("0108412345678905320000275610L778")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if code.Unit != UnitPounds {
		t.Errorf("Unit = %q, want lb", code.Unit)
	}
	if code.Weight != 27.56 {
		t.Errorf("Weight = %v, want 27.56", code.Weight)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"wrong prefix", "9908412345678905310000125010LOTE"},
		{"non-numeric weight", "010841234567890531000012AB10LOTE"},
		{"missing lot", "0108412345678905310000125010"},
		{"short gtin", "018412345310000125010LOTE"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.raw); err == nil {
				t.Errorf("Parse(%q) succeeded, want failure", tc.raw)
			}
		})
	}
}

func TestParseBatch(t *testing.T) {
	payload := "0108412345678905310000125010LOTE-1\n" +
		"garbage line\n" +
		"\n" +
		"0108412345678905310000080010LOTE-2\n" +
		"0199999931000012"

	result := ParseBatch(payload)

	if len(result.Codes) != 2 {
		t.Fatalf("got %d parsed codes, want 2", len(result.Codes))
	}
	if result.UnrecognizedCount() != 2 {
		t.Errorf("got %d unrecognized, want 2", result.UnrecognizedCount())
	}
	if result.Codes[0].Lot != "LOTE-1" || result.Codes[1].Lot != "LOTE-2" {
		t.Errorf("lots = %q, %q", result.Codes[0].Lot, result.Codes[1].Lot)
	}
}
