package triage

import (
	"reflect"
	"testing"
)

func TestDecideRoutingTable(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name        string
		slots       SlotMap
		wantRoute   Route
		wantPrimary string
		wantMissing []Slot
	}{
		{
			name: "non_drivable_forces_garage_despite_low_score",
			slots: SlotMap{
				SlotSymptoms: "ça cale et ne démarre plus",
				SlotUrgency:  "vehicule immobilise",
			},
			wantRoute:   RoutePartnerGarage,
			wantPrimary: CTADiagnosticBooking,
			wantMissing: []Slot{SlotPostcode, SlotPlate},
		},
		{
			name: "severe_medium_score_goes_to_garage",
			slots: SlotMap{
				SlotSymptoms: "perte de puissance, mode dégradé",
				SlotDriving:  "trajets courts",
			},
			wantRoute:   RoutePartnerGarage,
			wantPrimary: CTADiagnosticBooking,
			wantMissing: []Slot{SlotPostcode, SlotPlate},
		},
		{
			name: "high_score_self_capable_gets_drop_off",
			slots: SlotMap{
				SlotWarningLights: "voyant FAP allumé",
				SlotSymptoms:      "fumée noire à l'accélération",
				SlotDriving:       "trajets courts en ville",
				SlotCanSelfRemove: "oui",
			},
			wantRoute:   RouteSelfRemove,
			wantPrimary: CTADropOffShop,
		},
		{
			name: "high_score_not_self_capable_goes_to_garage",
			slots: SlotMap{
				SlotWarningLights: "voyant FAP allumé",
				SlotSymptoms:      "fumée noire à l'accélération",
				SlotDriving:       "trajets courts en ville",
				SlotCanSelfRemove: "non",
			},
			wantRoute:   RoutePartnerGarage,
			wantPrimary: CTADiagnosticBooking,
			wantMissing: []Slot{SlotPostcode, SlotPlate},
		},
		{
			name: "medium_score_is_uncertain",
			slots: SlotMap{
				SlotWarningLights: "voyant FAP allumé",
				SlotDriving:       "trajets courts",
			},
			wantRoute:   RouteLikely,
			wantPrimary: CTADiagnosticBooking,
		},
		{
			name:        "low_score_is_generic",
			slots:       SlotMap{SlotSymptoms: "petit bruit au démarrage"},
			wantRoute:   RouteGeneric,
			wantPrimary: CTAGenericGarageFinder,
		},
		{
			name: "routing_slots_already_known_not_asked_again",
			slots: SlotMap{
				SlotSymptoms: "ne démarre plus",
				SlotPostcode: "75001",
				SlotPlate:    "AA-123-AA",
			},
			wantRoute:   RoutePartnerGarage,
			wantPrimary: CTADiagnosticBooking,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec := e.DecideRouting(tc.slots)
			if dec.Route != tc.wantRoute {
				t.Fatalf("route = %s, want %s (reasons: %v)", dec.Route, tc.wantRoute, dec.Reasons)
			}
			primary := dec.Primary()
			if primary == nil || primary.ID != tc.wantPrimary {
				t.Fatalf("primary = %+v, want %s", primary, tc.wantPrimary)
			}
			if !reflect.DeepEqual(dec.MissingSlots, tc.wantMissing) {
				t.Fatalf("missing slots = %v, want %v", dec.MissingSlots, tc.wantMissing)
			}
		})
	}
}

func TestDecideRoutingCTABoundaries(t *testing.T) {
	e := newTestEngine()

	slots := SlotMap{
		SlotWarningLights: "voyant FAP allumé",
		SlotSymptoms:      "perte de puissance, fumée noire",
		SlotDriving:       "trajets courts en ville",
	}
	dec := e.DecideRouting(slots)

	if len(dec.CTAs) > 3 {
		t.Fatalf("CTA list too long: %d", len(dec.CTAs))
	}
	seen := map[string]bool{}
	for _, cta := range dec.CTAs {
		if cta.URL == "" {
			t.Fatalf("CTA %s emitted with empty URL", cta.ID)
		}
		if seen[cta.ID] {
			t.Fatalf("duplicate CTA %s", cta.ID)
		}
		seen[cta.ID] = true
	}
}

func TestDecideRoutingOmitsUnconfiguredCTA(t *testing.T) {
	// Callback has no URL configured: it must be silently omitted, never
	// emitted with an empty target.
	catalog := NewCatalog([]CTA{
		{ID: CTADiagnosticBooking, Type: CTATypeDiagnostic, Label: "RDV", URL: "https://example.test/rdv"},
		{ID: CTAInfoFAP, Type: CTATypeInformational, Label: "Info", URL: "https://example.test/blog"},
		{ID: CTACallback, Type: CTATypeCallback, Label: "Rappel", URL: ""},
	})
	e := NewEngine(DefaultPatterns(), catalog)

	dec := e.DecideRouting(SlotMap{SlotSymptoms: "ne démarre plus"})
	for _, cta := range dec.CTAs {
		if cta.ID == CTACallback {
			t.Fatalf("unconfigured CTA emitted: %+v", cta)
		}
		if cta.URL == "" {
			t.Fatalf("CTA with empty URL emitted: %+v", cta)
		}
	}
}

func TestDecideRoutingDeterministic(t *testing.T) {
	e := newTestEngine()
	slots := SlotMap{
		SlotWarningLights: "voyant FAP allumé",
		SlotSymptoms:      "perte de puissance",
		SlotDriving:       "trajets courts",
		SlotCanSelfRemove: "oui",
	}

	first := e.DecideRouting(slots)
	for i := 0; i < 20; i++ {
		again := e.DecideRouting(slots)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("routing not deterministic:\n%+v\n%+v", first, again)
		}
	}
}
