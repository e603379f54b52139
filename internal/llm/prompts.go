package llm

import (
	"fmt"
	"strings"
)

const intentSystemPrompt = "You are a pharmaceutical data extraction expert. Always return valid JSON."

const scoreSystemPrompt = "You are a medical literature relevance assessor. Always return valid JSON."

const synthesisSystemPrompt = "You are a medical affairs writer producing MLR-ready promotional claims. " +
	"Every number you write must appear verbatim in the provided source text. Always return valid JSON."

// buildIntentPrompt asks for the structured intent schema
func buildIntentPrompt(query string) string {
	return fmt.Sprintf(`Extract structured information from this user query about drug claims.

User Query: %q

Extract the following information in JSON format:
{
  "drug": {
    "brand_name": "Brand name if mentioned (e.g., Paxlovid)",
    "generic_name": "Generic name if mentioned or can be inferred",
    "search_terms": ["all relevant search terms including brand, generic, and synonyms"]
  },
  "claim_type": "efficacy, safety, dosing, mechanism, or indication",
  "indication": "Medical condition/indication",
  "population": "Target patient population (e.g., high-risk patients, adults, elderly)",
  "output_requirements": {
    "claim_count": 6,
    "include_substantiation": true,
    "format_type": "MLR-ready"
  }
}

Important:
- If brand name is given but not generic, leave generic_name empty (it is looked up separately)
- Default to "efficacy" if claim type is unclear
- Be generous with search_terms - include all variations

Return ONLY valid JSON, no other text.`, query)
}

// buildScorePrompt asks for one relevance score per article in a single call
func buildScorePrompt(req ScoreRequest) string {
	maxScore := req.MaxScore
	if maxScore <= 0 {
		maxScore = 10
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Score each article below for relevance to this request on a 0-%d scale.

Drug: %s
Claim type: %s
Indication: %s
Population: %s

Articles:
`, maxScore, req.Intent.Drug.PrimaryName(), req.Intent.ClaimType, req.Intent.Indication, req.Intent.Population)

	for i, a := range req.Articles {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, a.Title)
		if a.Abstract != "" {
			fmt.Fprintf(&b, "Abstract: %s\n", truncate(a.Abstract, 500))
		}
		if a.Results != "" {
			fmt.Fprintf(&b, "Results: %s\n", truncate(a.Results, 500))
		}
	}

	fmt.Fprintf(&b, `
Return ONLY valid JSON of the form {"scores": [s1, s2, ...]} with exactly %d numbers, one per article, in the order given.`, len(req.Articles))

	return b.String()
}

// buildSynthesisPrompt asks for one claim drafted strictly from source text
func buildSynthesisPrompt(req SynthesisRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Draft ONE %s claim for %s`, req.ClaimType, req.Intent.Drug.PrimaryName())
	if req.Intent.Indication != "" {
		fmt.Fprintf(&b, " in %s", req.Intent.Indication)
	}
	if req.Intent.Population != "" {
		fmt.Fprintf(&b, " (%s)", req.Intent.Population)
	}
	b.WriteString(" using ONLY the source text below.\n")

	if len(req.Metadata) > 0 {
		b.WriteString("\nSource metadata:\n")
		for k, v := range req.Metadata {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}

	fmt.Fprintf(&b, "\nSource text (%s):\n%s\n", req.SourceName, truncate(req.SourceText, 24000))

	b.WriteString(`
Return ONLY valid JSON:
{
  "claim_text": "concise MLR-ready claim statement",
  "substantiation": "detailed substantiation paragraph quoting the supporting data",
  "extracted_from": "section of the source the data came from",
  "numerical_data": {"metric name": "value exactly as written in the source"}
}

Rules:
- Every number in claim_text and numerical_data must appear verbatim in the source text
- The substantiation must restate those numbers in context
- Do not use data from anywhere but the source text`)

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
