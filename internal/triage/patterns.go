package triage

import (
  "fmt"
  "os"
  "regexp"
  "strings"

  "gopkg.in/yaml.v3"
)

// Signal names produced by the extractor. The pattern table below is
// configuration, not logic: routing and scoring only ever consume the
// boolean output, so vocabulary changes never touch the decision code.
const (
  SignalNonDrivable   = "non_drivable"
  SignalPowerLoss     = "power_loss"
  SignalFilterLight   = "filter_light"
  SignalEngineLight   = "engine_light"
  SignalRegenFailed   = "regen_failed"
  SignalFilterRemoved = "filter_removed"
  SignalSelfCapable   = "self_capable"
  SignalSmokeBlack    = "smoke_black"
  SignalSmokeBlue     = "smoke_blue"
  SignalSmokeWhite    = "smoke_white"
  SignalShortTrips    = "short_trips"
  SignalHighway       = "highway"
  SignalAdBlue        = "adblue"
  SignalEGR           = "egr"
  SignalFaultCode     = "fault_code"
  SignalFilterKeyword = "filter_keyword"
)

type Signals map[string]bool

type PatternRule struct {
  Signal  string `yaml:"signal"`
  Pattern string `yaml:"pattern"`
}

type compiledRule struct {
  signal string
  re     *regexp.Regexp
}

type PatternSet struct {
  rules []compiledRule
}

// Patterns are written against normalized text: lowercased, diacritics
// folded to ASCII. French user input arrives with and without accents.
var defaultPatternRules = []PatternRule{
  {Signal: SignalNonDrivable, Pattern: `ne demarre plus|demarre pas|\bcale\b|ne roule plus|immobilis|remorqu|depann`},
  {Signal: SignalPowerLoss, Pattern: `perte de puissance|manque de puissance|plus de puissance|puissance reduite|mode degrade|\bbride\b|n.?avance plus`},
  {Signal: SignalFilterLight, Pattern: `voyant (fap|filtre|antipollution)|temoin (fap|filtre)|fap allume`},
  {Signal: SignalEngineLight, Pattern: `voyant moteur|temoin moteur|check engine`},
  {Signal: SignalRegenFailed, Pattern: `regen\w* (rate|ratee|echoue|echouee|impossible|ne (se fait|marche) pas)`},
  {Signal: SignalFilterRemoved, Pattern: `defap|fap supprime|sans fap|fap enleve|fap retire`},
  {Signal: SignalSelfCapable, Pattern: `je (peux|sais|vais) (le |la )?demonter|demonte\w* moi[- ]meme|je suis mecanicien|bon bricoleur`},
  {Signal: SignalSmokeBlack, Pattern: `fumee noire`},
  {Signal: SignalSmokeBlue, Pattern: `fumee bleue`},
  {Signal: SignalSmokeWhite, Pattern: `fumee blanche`},
  {Signal: SignalShortTrips, Pattern: `trajets? courts?|petits trajets|en ville|que de la ville|ville uniquement|urbain`},
  {Signal: SignalHighway, Pattern: `autoroute|longs trajets|grands trajets|voie rapide`},
  {Signal: SignalAdBlue, Pattern: `adblue|ad blue|\buree\b`},
  {Signal: SignalEGR, Pattern: `\begr\b|vanne egr`},
  {Signal: SignalFaultCode, Pattern: `\b[pu][0-9]{4}\b`},
  {Signal: SignalFilterKeyword, Pattern: `\bfap\b|filtre a particules?|colmat|encrasse|bouche`},
}

func DefaultPatterns() *PatternSet {
  ps, err := CompilePatterns(defaultPatternRules)
  if err != nil {
    // The default table is tested; a compile failure here is a programmer error.
    panic(err)
  }
  return ps
}

func CompilePatterns(rules []PatternRule) (*PatternSet, error) {
  ps := &PatternSet{}
  for _, r := range rules {
    signal := strings.TrimSpace(r.Signal)
    if signal == "" {
      return nil, fmt.Errorf("pattern rule with empty signal name")
    }
    re, err := regexp.Compile(r.Pattern)
    if err != nil {
      return nil, fmt.Errorf("pattern for signal %q: %w", signal, err)
    }
    ps.rules = append(ps.rules, compiledRule{signal: signal, re: re})
  }
  return ps, nil
}

// LoadPatternsFile reads an ordered {signal, pattern} list from a YAML file,
// letting deployments extend the symptom vocabulary without a rebuild.
func LoadPatternsFile(path string) (*PatternSet, error) {
  raw, err := os.ReadFile(path)
  if err != nil {
    return nil, err
  }
  var rules []PatternRule
  if err := yaml.Unmarshal(raw, &rules); err != nil {
    return nil, fmt.Errorf("parse pattern table: %w", err)
  }
  if len(rules) == 0 {
    return nil, fmt.Errorf("pattern table %s is empty", path)
  }
  return CompilePatterns(rules)
}

var diacriticReplacer = strings.NewReplacer(
  "à", "a", "â", "a", "ä", "a",
  "é", "e", "è", "e", "ê", "e", "ë", "e",
  "î", "i", "ï", "i",
  "ô", "o", "ö", "o",
  "ù", "u", "û", "u", "ü", "u",
  "ç", "c",
  "œ", "oe",
)

func normalizeText(text string) string {
  return diacriticReplacer.Replace(strings.ToLower(text))
}

func (ps *PatternSet) Extract(text string) Signals {
  out := make(Signals, len(ps.rules))
  norm := normalizeText(text)
  for _, r := range ps.rules {
    if r.re.MatchString(norm) {
      out[r.signal] = true
    }
  }
  return out
}
