package services

import (
  "fmt"
  "regexp"
  "strings"

  "github.com/refap/refap-backend/internal/session"
  "github.com/refap/refap-backend/internal/triage"
)

// The bot persona. The model is told what stage the conversation is in and
// what the routing engine decided; it never invents CTAs or links itself.
const personaPrompt = `Tu es l'assistant Re-FAP, spécialiste des filtres à particules (FAP) diesel.
Tu aides le client à comprendre son problème de FAP en français, simplement et honnêtement.
Ne donne jamais de lien ni d'URL : les boutons d'action sont affichés par l'application.
Ne recommande jamais un garage ou un service par son nom.
Reste concis : trois phrases maximum par réponse.`

var slotQuestions = map[triage.Slot]string{
  triage.SlotVehicle:       "la marque, le modèle et l'année du véhicule",
  triage.SlotMileage:       "le kilométrage",
  triage.SlotDriving:       "le type de trajets (ville, mixte, autoroute)",
  triage.SlotWarningLights: "les voyants allumés au tableau de bord",
  triage.SlotSymptoms:      "les symptômes constatés",
  triage.SlotOBDCodes:      "les codes défaut OBD éventuels",
  triage.SlotAdBlue:        "l'état du niveau AdBlue",
  triage.SlotUrgency:       "si le véhicule roule encore",
  triage.SlotCanSelfRemove: "si le client peut démonter le FAP lui-même",
  triage.SlotPostcode:      "le code postal",
  triage.SlotPlate:         "la plaque d'immatriculation",
  triage.SlotContactName:   "le nom du client",
  triage.SlotContactPhone:  "le numéro de téléphone",
}

// ComposeSystemPrompt builds the model-facing instruction: persona, stage
// directive, routing context, and retrieval passages when present.
func ComposeSystemPrompt(st session.TurnState, passages []Passage) string {
  var b strings.Builder
  b.WriteString(personaPrompt)
  b.WriteString("\n\n")

  switch st.Stage {
  case session.StageReady:
    b.WriteString("Étape: le diagnostic est suffisamment renseigné, propose la suite.\n")
  default:
    b.WriteString("Étape: collecte d'informations, pose une seule question à la fois.\n")
  }

  dec := st.Decision
  fmt.Fprintf(&b, "Score de probabilité FAP: %d/100. Orientation: %s.\n", dec.Score, dec.Route)
  if dec.Severe {
    b.WriteString("Le véhicule présente des symptômes sévères, conseille de ne pas forcer.\n")
  }
  if st.Next != "" {
    if q, ok := slotQuestions[st.Next]; ok {
      fmt.Fprintf(&b, "Information à demander maintenant: %s.\n", q)
    }
  }

  if len(passages) > 0 {
    b.WriteString("\nContexte documentaire (à reformuler, jamais à citer tel quel):\n")
    for _, p := range passages {
      fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(p.Preview))
    }
  }

  return b.String()
}

var (
  urlRe = regexp.MustCompile(`https?://[^\s)>\]]+`)
  // Competitor names the model tends to volunteer; replaced rather than left
  // in a customer-facing reply.
  brandRe = regexp.MustCompile(`(?i)\b(norauto|feu vert|midas|speedy|euromaster|oscaro)\b`)
)

// SanitizeReply post-processes model output: raw URLs are stripped, brand
// names neutralized and repeated CTA label mentions collapsed, since the
// CTAs are rendered as buttons next to the text.
func SanitizeReply(text string, ctas []triage.CTA) string {
  out := urlRe.ReplaceAllString(text, "")
  out = brandRe.ReplaceAllString(out, "un garage partenaire")

  for _, cta := range ctas {
    label := strings.TrimSpace(cta.Label)
    if label == "" {
      continue
    }
    first := strings.Index(out, label)
    if first < 0 {
      continue
    }
    head := out[:first+len(label)]
    tail := strings.ReplaceAll(out[first+len(label):], label, "")
    out = head + tail
  }

  out = strings.Join(strings.Fields(out), " ")
  return strings.TrimSpace(out)
}
