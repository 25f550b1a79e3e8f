package triage

import (
  "fmt"
  "strings"
)

type Route string

const (
  RoutePartnerGarage Route = "partner_garage"
  RouteSelfRemove    Route = "self_remove_partner_shop"
  RouteLikely        Route = "likely_but_uncertain"
  RouteGeneric       Route = "generic"
)

// Score tiers: >=60 high, 40-59 medium, <40 low.
const (
  scoreTierHigh   = 60
  scoreTierMedium = 40
)

const maxCTAs = 3

// Decision is recomputed per turn and never stored; only the CTA list and
// the missing-slot list escape the turn. Reasons are a diagnostic trace.
type Decision struct {
  Score        int      `json:"score"`
  Severe       bool     `json:"severe"`
  Route        Route    `json:"route"`
  CTAs         []CTA    `json:"ctas"`
  MissingSlots []Slot   `json:"missing_slots"`
  Reasons      []string `json:"reasons"`
}

// Primary returns the primary CTA, by construction the first entry.
func (d Decision) Primary() *CTA {
  if len(d.CTAs) == 0 {
    return nil
  }
  return &d.CTAs[0]
}

// DecideRouting evaluates the ordered decision table, first match wins:
//
//	non-drivable                      -> partner_garage (safety override)
//	severe && score >= 40             -> partner_garage
//	score >= 60 && can self-remove    -> self_remove_partner_shop
//	score >= 60                       -> partner_garage
//	40 <= score < 60                  -> likely_but_uncertain
//	otherwise                         -> generic
//
// Informational and callback CTAs are appended on every branch; the emitted
// list is capped at three entries, primary first.
func (e *Engine) DecideRouting(slots SlotMap) Decision {
  score := e.ComputeFaultScore(slots)

  severityText := strings.Join([]string{
    slots.Get(SlotUrgency),
    slots.Get(SlotSymptoms),
    slots.Get(SlotWarningLights),
  }, " ")
  sig := e.patterns.Extract(severityText)
  nonDrivable := sig[SignalNonDrivable]
  severe := nonDrivable || sig[SignalPowerLoss]

  dec := Decision{Score: score, Severe: severe}
  canSelfRemove := strings.EqualFold(slots.Get(SlotCanSelfRemove), "oui")

  switch {
  case nonDrivable:
    dec.Route = RoutePartnerGarage
    dec.Reasons = append(dec.Reasons, "vehicle reported non-drivable, garage visit regardless of score")
    e.appendCTA(&dec, CTADiagnosticBooking)
    e.appendCTA(&dec, CTAInfoFAP)
    dec.MissingSlots = missingOf(slots, SlotPostcode, SlotPlate)
  case severe && score >= scoreTierMedium:
    dec.Route = RoutePartnerGarage
    dec.Reasons = append(dec.Reasons, fmt.Sprintf("severe symptoms with score %d", score))
    e.appendCTA(&dec, CTADiagnosticBooking)
    e.appendCTA(&dec, CTAInfoFAP)
    dec.MissingSlots = missingOf(slots, SlotPostcode, SlotPlate)
  case score >= scoreTierHigh && canSelfRemove:
    dec.Route = RouteSelfRemove
    dec.Reasons = append(dec.Reasons, fmt.Sprintf("high confidence (%d) and user can remove the filter", score))
    e.appendCTA(&dec, CTADropOffShop)
  case score >= scoreTierHigh:
    dec.Route = RoutePartnerGarage
    dec.Reasons = append(dec.Reasons, fmt.Sprintf("high confidence (%d), removal by partner garage", score))
    e.appendCTA(&dec, CTADiagnosticBooking)
    dec.MissingSlots = missingOf(slots, SlotPostcode, SlotPlate)
  case score >= scoreTierMedium:
    dec.Route = RouteLikely
    dec.Reasons = append(dec.Reasons, fmt.Sprintf("medium confidence (%d), confirmation needed", score))
    e.appendCTA(&dec, CTADiagnosticBooking)
  default:
    dec.Route = RouteGeneric
    dec.Reasons = append(dec.Reasons, fmt.Sprintf("low confidence (%d)", score))
    e.appendCTA(&dec, CTAGenericGarageFinder)
  }

  e.appendCTA(&dec, CTAInfoFAP)
  e.appendCTA(&dec, CTACallback)

  return dec
}

// appendCTA resolves an id against the catalog and appends it, skipping
// duplicates, entries with no configured URL, and anything past the cap.
func (e *Engine) appendCTA(dec *Decision, id string) {
  if len(dec.CTAs) >= maxCTAs {
    return
  }
  cta, ok := e.catalog.Get(id)
  if !ok {
    dec.Reasons = append(dec.Reasons, fmt.Sprintf("cta %s omitted: no target url", id))
    return
  }
  for _, existing := range dec.CTAs {
    if existing.ID == cta.ID {
      return
    }
  }
  dec.CTAs = append(dec.CTAs, cta)
}

func missingOf(slots SlotMap, wanted ...Slot) []Slot {
  var out []Slot
  for _, s := range wanted {
    if !slots.Has(s) {
      out = append(out, s)
    }
  }
  return out
}
