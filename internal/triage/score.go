package triage

import "strings"

// Evidence weights for particulate-filter clogging. The highway penalty
// reflects that sustained highway driving self-regenerates the filter, so a
// highway profile without power-loss evidence argues against a clogged FAP.
const (
  weightFilterKeyword = 30
  weightShortTrips    = 20
  weightPowerLoss     = 30
  weightAdBlue        = 15
  highwayPenalty      = 20
)

// ComputeFaultScore maps the symptom-relevant slot text to a 0-100
// confidence that the fault is a clogged particulate filter. It carries no
// hidden state: the score is re-derived from slot text on every call.
func (e *Engine) ComputeFaultScore(slots SlotMap) int {
  text := strings.Join([]string{
    slots.Get(SlotWarningLights),
    slots.Get(SlotSymptoms),
    slots.Get(SlotDriving),
    slots.Get(SlotAdBlue),
    slots.Get(SlotOBDCodes),
  }, " ")

  sig := e.patterns.Extract(text)

  score := 0
  if sig[SignalFilterKeyword] || sig[SignalFilterLight] || sig[SignalRegenFailed] || sig[SignalFaultCode] {
    score += weightFilterKeyword
  }
  if sig[SignalShortTrips] {
    score += weightShortTrips
  }
  powerLoss := sig[SignalPowerLoss] || sig[SignalNonDrivable] ||
    sig[SignalSmokeBlack] || sig[SignalSmokeBlue] || sig[SignalSmokeWhite]
  if powerLoss {
    score += weightPowerLoss
  }
  if sig[SignalAdBlue] {
    score += weightAdBlue
  }
  if sig[SignalHighway] && !powerLoss {
    score -= highwayPenalty
  }

  if score < 0 {
    return 0
  }
  if score > 100 {
    return 100
  }
  return score
}
