package triage

import (
	"reflect"
	"testing"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultPatterns(), testCatalog())
}

func testCatalog() Catalog {
	return NewCatalog([]CTA{
		{ID: CTADiagnosticBooking, Type: CTATypeDiagnostic, Label: "Prendre RDV diagnostic", URL: "https://example.test/rdv"},
		{ID: CTADropOffShop, Type: CTATypeProduct, Label: "Déposer mon FAP", URL: "https://example.test/depot"},
		{ID: CTAGenericGarageFinder, Type: CTATypeDiagnostic, Label: "Trouver un garage", URL: "https://example.test/garages"},
		{ID: CTAInfoFAP, Type: CTATypeInformational, Label: "Comprendre le FAP", URL: "https://example.test/blog"},
		{ID: CTACallback, Type: CTATypeCallback, Label: "Être rappelé", URL: "https://example.test/rappel"},
	})
}

func TestExtractSignals(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "filter_light_power_loss_short_trips",
			text: "voyant FAP allumé, perte de puissance, trajets courts en ville",
			want: []string{SignalFilterLight, SignalPowerLoss, SignalShortTrips, SignalFilterKeyword},
		},
		{
			name: "non_drivable",
			text: "ça cale et ne démarre plus",
			want: []string{SignalNonDrivable},
		},
		{
			name: "fault_code",
			text: "j'ai le code P2002 à la valise",
			want: []string{SignalFaultCode},
		},
		{
			name: "diacritics_folded",
			text: "FUMÉE NOIRE à l'accélération",
			want: []string{SignalSmokeBlack},
		},
		{
			name: "adblue",
			text: "le voyant AdBlue vient de s'allumer",
			want: []string{SignalAdBlue},
		},
		{
			name: "highway_driver",
			text: "je fais surtout de l'autoroute",
			want: []string{SignalHighway},
		},
		{
			name: "no_signals_on_smalltalk",
			text: "bonjour, merci de votre aide",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.ExtractSignals(tc.text)
			for _, sig := range tc.want {
				if !got[sig] {
					t.Fatalf("ExtractSignals(%q): expected signal %s, got %v", tc.text, sig, got)
				}
			}
			if tc.want == nil && len(got) != 0 {
				t.Fatalf("ExtractSignals(%q): expected no signals, got %v", tc.text, got)
			}
		})
	}
}

func TestExtractSignalsIdempotent(t *testing.T) {
	e := newTestEngine()
	text := "voyant FAP allumé, fumée noire, P2463, trajets courts"
	first := e.ExtractSignals(text)
	second := e.ExtractSignals(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("ExtractSignals not idempotent: %v vs %v", first, second)
	}
}

func TestCompilePatternsRejectsBadRule(t *testing.T) {
	if _, err := CompilePatterns([]PatternRule{{Signal: "x", Pattern: "("}}); err == nil {
		t.Fatal("expected error for invalid regex")
	}
	if _, err := CompilePatterns([]PatternRule{{Signal: " ", Pattern: "ok"}}); err == nil {
		t.Fatal("expected error for empty signal name")
	}
}
