package triage

import (
  "regexp"
  "strings"
)

type Slot string

const (
  SlotVehicle       Slot = "vehicle"
  SlotMileage       Slot = "mileage"
  SlotDriving       Slot = "driving_pattern"
  SlotWarningLights Slot = "warning_lights"
  SlotSymptoms      Slot = "symptoms"
  SlotOBDCodes      Slot = "obd_codes"
  SlotAdBlue        Slot = "adblue_status"
  SlotUrgency       Slot = "urgency"
  SlotCanSelfRemove Slot = "can_self_remove"
  SlotPostcode      Slot = "postcode"
  SlotPlate         Slot = "license_plate"
  SlotContactName   Slot = "contact_name"
  SlotContactPhone  Slot = "contact_phone"
)

// Question priority during the gathering stage: first absent slot in this
// order is the next clarifying question.
var SlotPriority = []Slot{
  SlotVehicle,
  SlotMileage,
  SlotDriving,
  SlotWarningLights,
  SlotSymptoms,
  SlotOBDCodes,
  SlotAdBlue,
  SlotUrgency,
  SlotCanSelfRemove,
  SlotPostcode,
  SlotPlate,
  SlotContactName,
  SlotContactPhone,
}

// RequiredSlots gate the gathering -> ready transition. Postcode and plate
// are routing-needed only; they never regress the conversation stage.
var RequiredSlots = []Slot{SlotVehicle, SlotDriving, SlotSymptoms}

type SlotMap map[Slot]string

func (m SlotMap) Get(s Slot) string {
  return strings.TrimSpace(m[s])
}

func (m SlotMap) Has(s Slot) bool {
  return m.Get(s) != ""
}

func (m SlotMap) Clone() SlotMap {
  out := make(SlotMap, len(m))
  for k, v := range m {
    out[k] = v
  }
  return out
}

// symptomCap bounds the accumulated symptoms slot so a chatty session
// cannot grow session memory without limit.
const (
  symptomDelimiter = " | "
  symptomCap       = 2000
)

// MergeSlots writes incoming values into existing. A slot already present is
// never overwritten or cleared; the symptoms slot accumulates instead,
// delimited and capped.
func MergeSlots(existing, incoming SlotMap) SlotMap {
  if existing == nil {
    existing = SlotMap{}
  }
  for slot, raw := range incoming {
    val := strings.TrimSpace(raw)
    if val == "" {
      continue
    }
    if slot == SlotSymptoms && existing.Has(SlotSymptoms) {
      cur := existing.Get(SlotSymptoms)
      if strings.Contains(cur, val) {
        continue
      }
      joined := cur + symptomDelimiter + val
      if len(joined) > symptomCap {
        joined = joined[:symptomCap]
      }
      existing[SlotSymptoms] = joined
      continue
    }
    if existing.Has(slot) {
      continue
    }
    existing[slot] = val
  }
  return existing
}

var (
  // Postcode must be exactly five digits, not a fragment of a longer run.
  postcodeRe = regexp.MustCompile(`(?:^|[^0-9])([0-9]{5})(?:[^0-9]|$)`)
  // SIV plate shape AA-123-AA; a partial match is rejected outright.
  plateRe   = regexp.MustCompile(`(?i)(?:^|[^A-Z0-9-])([A-Z]{2}-[0-9]{3}-[A-Z]{2})(?:[^A-Z0-9-]|$)`)
  mileageRe = regexp.MustCompile(`([0-9]{1,3}(?:[ .][0-9]{3})+|[0-9]{4,7})\s*(?:kms?\b|kilometres)`)
  codesRe   = regexp.MustCompile(`\b[pu][0-9]{4}\b`)

  selfRemoveYesRe = regexp.MustCompile(`je (peux|sais|vais) (le |la )?demonter|demonte\w* moi[- ]meme|oui je demonte`)
  selfRemoveNoRe  = regexp.MustCompile(`je ne (peux|sais) pas (le |la )?demonter|pas capable de demonter|aucune idee du demontage`)

  vehicleBrandRe = regexp.MustCompile(`\b(peugeot|citroen|renault|dacia|ds|ford|volkswagen|vw|audi|bmw|mercedes|opel|fiat|toyota|nissan|seat|skoda|volvo|mini|kia|hyundai|mazda|honda|suzuki|jeep|alfa|land rover|mitsubishi)\b`)
)

// SoftExtractSlots pulls high-precision structured fragments out of one
// message. It is deliberately conservative: a malformed postcode or plate is
// dropped rather than stored, so slot presence stays a trustworthy test.
func (e *Engine) SoftExtractSlots(text string) SlotMap {
  out := SlotMap{}
  norm := normalizeText(text)

  if m := postcodeRe.FindStringSubmatch(norm); m != nil {
    out[SlotPostcode] = m[1]
  }
  if m := plateRe.FindStringSubmatch(strings.ToUpper(text)); m != nil {
    out[SlotPlate] = m[1]
  }
  if m := mileageRe.FindStringSubmatch(norm); m != nil {
    out[SlotMileage] = strings.TrimSpace(m[0])
  }
  if codes := codesRe.FindAllString(norm, -1); len(codes) > 0 {
    out[SlotOBDCodes] = strings.ToUpper(strings.Join(codes, ", "))
  }
  if vehicleBrandRe.MatchString(norm) {
    out[SlotVehicle] = clip(strings.TrimSpace(text), 120)
  }
  switch {
  case selfRemoveNoRe.MatchString(norm):
    out[SlotCanSelfRemove] = "non"
  case selfRemoveYesRe.MatchString(norm):
    out[SlotCanSelfRemove] = "oui"
  }
  return out
}

// SlotsFromSignals turns one message's coarse signals into slot writes.
// The raw message text lands in the symptom-family slots so the score stays
// re-derivable from slot text alone.
func (e *Engine) SlotsFromSignals(sig Signals, text string) SlotMap {
  out := SlotMap{}
  msg := clip(strings.TrimSpace(text), 300)
  if msg == "" {
    return out
  }

  if sig[SignalShortTrips] || sig[SignalHighway] {
    out[SlotDriving] = msg
  }
  if sig[SignalFilterLight] || sig[SignalEngineLight] {
    out[SlotWarningLights] = msg
  }
  if sig[SignalPowerLoss] || sig[SignalNonDrivable] || sig[SignalRegenFailed] ||
    sig[SignalSmokeBlack] || sig[SignalSmokeBlue] || sig[SignalSmokeWhite] ||
    sig[SignalFilterKeyword] || sig[SignalEGR] {
    out[SlotSymptoms] = msg
  }
  if sig[SignalAdBlue] {
    out[SlotAdBlue] = msg
  }
  if sig[SignalNonDrivable] {
    out[SlotUrgency] = "vehicule immobilise"
  }
  if sig[SignalSelfCapable] {
    out[SlotCanSelfRemove] = "oui"
  }
  return out
}

func clip(s string, n int) string {
  if len(s) <= n {
    return s
  }
  return s[:n]
}
