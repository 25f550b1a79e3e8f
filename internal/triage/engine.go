package triage

// Engine bundles the compiled signal pattern table and the CTA catalog.
// Every method is deterministic and side-effect free: the same text or slot
// state always produces the same output, which is what makes the routing
// decision auditable turn by turn.
type Engine struct {
  patterns *PatternSet
  catalog  Catalog
}

func NewEngine(patterns *PatternSet, catalog Catalog) *Engine {
  if patterns == nil {
    patterns = DefaultPatterns()
  }
  return &Engine{patterns: patterns, catalog: catalog}
}

func (e *Engine) ExtractSignals(text string) Signals {
  return e.patterns.Extract(text)
}
