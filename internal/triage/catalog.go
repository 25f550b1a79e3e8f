package triage

import (
  "strings"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/utils"
)

type CTAType string

const (
  CTATypeDiagnostic    CTAType = "diagnostic"
  CTATypeInformational CTAType = "informational"
  CTATypeCallback      CTAType = "callback"
  CTATypeProduct       CTAType = "product"
)

// CTA is an immutable descriptor sourced from the catalog. A descriptor with
// an empty URL never escapes the catalog.
type CTA struct {
  ID    string  `json:"id"`
  Type  CTAType `json:"type"`
  Label string  `json:"label"`
  URL   string  `json:"url"`
  Hint  string  `json:"hint,omitempty"`
}

const (
  CTADiagnosticBooking  = "diagnostic_booking"
  CTADropOffShop        = "drop_off_shop"
  CTAGenericGarageFinder = "generic_garage_finder"
  CTAInfoFAP            = "info_fap"
  CTACallback           = "callback"
)

type Catalog struct {
  entries map[string]CTA
}

// NewCatalog validates and stores the fixed CTA table. Entries without a URL
// are kept but reported absent by Get, so routing silently omits them.
func NewCatalog(entries []CTA) Catalog {
  m := make(map[string]CTA, len(entries))
  for _, e := range entries {
    m[e.ID] = e
  }
  return Catalog{entries: m}
}

func (c Catalog) Get(id string) (CTA, bool) {
  e, ok := c.entries[id]
  if !ok || strings.TrimSpace(e.URL) == "" {
    return CTA{}, false
  }
  return e, true
}

// DefaultCatalog builds the production CTA table; target URLs are
// env-overridable so campaign landing pages can change without a release.
func DefaultCatalog(log *logger.Logger) Catalog {
  return NewCatalog([]CTA{
    {
      ID:    CTADiagnosticBooking,
      Type:  CTATypeDiagnostic,
      Label: "Prendre RDV diagnostic",
      URL:   utils.GetEnv("CTA_BOOKING_URL", "https://re-fap.fr/rdv-diagnostic", log),
      Hint:  "Diagnostic FAP en garage partenaire",
    },
    {
      ID:    CTADropOffShop,
      Type:  CTATypeProduct,
      Label: "Déposer mon FAP pour nettoyage",
      URL:   utils.GetEnv("CTA_DROPOFF_URL", "https://re-fap.fr/depot-fap", log),
      Hint:  "Vous démontez, nous nettoyons",
    },
    {
      ID:    CTAGenericGarageFinder,
      Type:  CTATypeDiagnostic,
      Label: "Trouver un garage",
      URL:   utils.GetEnv("CTA_GARAGE_FINDER_URL", "https://re-fap.fr/trouver-garage", log),
    },
    {
      ID:    CTAInfoFAP,
      Type:  CTATypeInformational,
      Label: "Comprendre le FAP",
      URL:   utils.GetEnv("CTA_INFO_URL", "https://re-fap.fr/blog/fap-colmate", log),
    },
    {
      ID:    CTACallback,
      Type:  CTATypeCallback,
      Label: "Être rappelé",
      URL:   utils.GetEnv("CTA_CALLBACK_URL", "https://re-fap.fr/rappel", log),
    },
  })
}
