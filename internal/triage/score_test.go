package triage

import "testing"

func TestComputeFaultScoreBounds(t *testing.T) {
	e := newTestEngine()

	if got := e.ComputeFaultScore(SlotMap{}); got != 0 {
		t.Fatalf("empty slots: score = %d, want 0", got)
	}

	// Highway mention alone cannot push below zero.
	low := e.ComputeFaultScore(SlotMap{SlotDriving: "autoroute uniquement"})
	if low != 0 {
		t.Fatalf("highway-only: score = %d, want clamped 0", low)
	}

	// All indicator families present stays within 100.
	high := e.ComputeFaultScore(SlotMap{
		SlotWarningLights: "voyant FAP allumé, voyant AdBlue",
		SlotSymptoms:      "perte de puissance, fumée noire, régénération ratée",
		SlotDriving:       "petits trajets en ville",
		SlotOBDCodes:      "P2002",
	})
	if high < 0 || high > 100 {
		t.Fatalf("score out of range: %d", high)
	}
	if high < 95 {
		t.Fatalf("all evidence present: score = %d, want 95", high)
	}
}

func TestComputeFaultScoreWeights(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name  string
		slots SlotMap
		want  int
	}{
		{
			name:  "filter_keyword_only",
			slots: SlotMap{SlotSymptoms: "fap colmaté"},
			want:  30,
		},
		{
			name:  "short_trips_only",
			slots: SlotMap{SlotDriving: "trajets courts en ville"},
			want:  20,
		},
		{
			name:  "power_loss_only",
			slots: SlotMap{SlotSymptoms: "perte de puissance"},
			want:  30,
		},
		{
			name:  "adblue_only",
			slots: SlotMap{SlotAdBlue: "voyant adblue allumé"},
			want:  15,
		},
		{
			name:  "highway_penalty_without_power_loss",
			slots: SlotMap{SlotSymptoms: "fap colmaté", SlotDriving: "beaucoup d'autoroute"},
			want:  10,
		},
		{
			name:  "highway_penalty_waived_with_power_loss",
			slots: SlotMap{SlotSymptoms: "fap colmaté, perte de puissance", SlotDriving: "beaucoup d'autoroute"},
			want:  60,
		},
		{
			name: "scenario_a_high_tier",
			slots: SlotMap{
				SlotWarningLights: "voyant FAP allumé",
				SlotSymptoms:      "perte de puissance",
				SlotDriving:       "trajets courts en ville",
			},
			want: 80,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.ComputeFaultScore(tc.slots); got != tc.want {
				t.Fatalf("ComputeFaultScore(%v) = %d, want %d", tc.slots, got, tc.want)
			}
		})
	}
}

// Adding positive evidence never lowers the score; only the highway mention
// may.
func TestComputeFaultScoreMonotonic(t *testing.T) {
	e := newTestEngine()

	base := SlotMap{SlotDriving: "trajets courts en ville"}
	baseScore := e.ComputeFaultScore(base)

	additions := []struct {
		slot Slot
		text string
	}{
		{SlotSymptoms, "fumée noire"},
		{SlotWarningLights, "voyant FAP allumé"},
		{SlotAdBlue, "adblue presque vide"},
		{SlotOBDCodes, "P2002"},
	}

	cur := base.Clone()
	prev := baseScore
	for _, add := range additions {
		cur[add.slot] = add.text
		got := e.ComputeFaultScore(cur)
		if got < prev {
			t.Fatalf("score decreased from %d to %d after adding %s=%q", prev, got, add.slot, add.text)
		}
		prev = got
	}
}

func TestComputeFaultScoreDeterministic(t *testing.T) {
	e := newTestEngine()
	slots := SlotMap{
		SlotWarningLights: "voyant FAP",
		SlotSymptoms:      "fumée noire | perte de puissance",
		SlotDriving:       "urbain",
	}
	first := e.ComputeFaultScore(slots)
	for i := 0; i < 10; i++ {
		if got := e.ComputeFaultScore(slots); got != first {
			t.Fatalf("non-deterministic score: %d then %d", first, got)
		}
	}
}
