package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pharmaclaims/substantia/internal/model"
)

// maxExcludedRendered caps the excluded-articles appendix in rendered output;
// the JSON bundle always carries the full list
const maxExcludedRendered = 10

// Renderer writes a result bundle as JSON, Markdown, or a terminal summary
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the complete bundle as indented JSON
func (r *Renderer) RenderJSON(bundle *model.ResultBundle, path string) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal bundle")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write JSON report")
	}
	return nil
}

// RenderMarkdown writes a reviewer-facing claims report
func (r *Renderer) RenderMarkdown(bundle *model.ResultBundle, path string) error {
	var b strings.Builder

	b.WriteString("# MLR Claims Report\n\n")
	fmt.Fprintf(&b, "**Query:** %s\n\n", bundle.Summary.UserQuery)
	fmt.Fprintf(&b, "**Run:** `%s` — %s\n\n", bundle.Summary.RunID, bundle.Summary.Timestamp.Format("2006-01-02 15:04 UTC"))

	b.WriteString("## Search Summary\n\n")
	fmt.Fprintf(&b, "- Sources searched: %s\n", strings.Join(bundle.Summary.SourcesSearched, ", "))
	rf := bundle.Summary.ResultsFound
	fmt.Fprintf(&b, "- FDA labels: %d\n", rf["fda_labels"])
	fmt.Fprintf(&b, "- PubMed articles: %d (%d full text, %d abstract only)\n",
		rf["pubmed_total"], rf["pubmed_full_text"], rf["pubmed_abstract_only"])
	fmt.Fprintf(&b, "- Clinical trials: %d\n", rf["clinical_trials"])
	fmt.Fprintf(&b, "- Search time: %.1fs\n", bundle.Summary.SearchTimeSec)
	fmt.Fprintf(&b, "- Strategy: %s\n\n", bundle.Summary.FullTextStrategy)

	if len(bundle.Summary.Degradations) > 0 {
		b.WriteString("### Degradations\n\n")
		for _, d := range bundle.Summary.Degradations {
			fmt.Fprintf(&b, "- **%s**: %s\n", d.Source, d.Reason)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Claims (%d)\n\n", len(bundle.Claims))
	for _, c := range bundle.Claims {
		fmt.Fprintf(&b, "### Claim %d — %s\n\n", c.ID, c.ClaimType)
		fmt.Fprintf(&b, "> %s\n\n", c.ClaimText)
		fmt.Fprintf(&b, "**Substantiation:** %s\n\n", c.Substantiation)
		fmt.Fprintf(&b, "**Confidence:** %s\n\n", c.ConfidenceText)
		fmt.Fprintf(&b, "**Source:** %s (%s)\n\n", c.SourceType, c.ExtractedFrom)

		if len(c.NumericalData) > 0 {
			b.WriteString("**Key figures:**\n\n")
			for k, v := range c.NumericalData {
				fmt.Fprintf(&b, "- %s: %s\n", k, v)
			}
			b.WriteString("\n")
		}

		b.WriteString("**Citations:**\n\n")
		for _, cit := range c.Citations {
			fmt.Fprintf(&b, "- %s\n", formatCitation(cit))
		}
		b.WriteString("\n")

		if len(c.ValidationNotes) > 0 {
			b.WriteString("**Validation notes:**\n\n")
			for _, n := range c.ValidationNotes {
				fmt.Fprintf(&b, "- %s\n", n)
			}
			b.WriteString("\n")
		}
	}

	if len(bundle.Excluded) > 0 {
		fmt.Fprintf(&b, "## Excluded Candidates (%d)\n\n", len(bundle.Excluded))
		shown := bundle.Excluded
		if len(shown) > maxExcludedRendered {
			shown = shown[:maxExcludedRendered]
		}
		for _, e := range shown {
			line := e.Title
			if line == "" {
				line = e.ID
			}
			if e.Journal != "" {
				line += fmt.Sprintf(" (%s, %d)", e.Journal, e.Year)
			}
			fmt.Fprintf(&b, "- %s — %s", line, e.Reason)
			if e.Note != "" {
				fmt.Fprintf(&b, ". %s", e.Note)
			}
			b.WriteString("\n")
		}
		if len(bundle.Excluded) > maxExcludedRendered {
			fmt.Fprintf(&b, "- … and %d more (see JSON report)\n", len(bundle.Excluded)-maxExcludedRendered)
		}
		b.WriteString("\n")
	}

	if bundle.Recommendation != "" {
		b.WriteString("## Recommendation\n\n")
		b.WriteString(bundle.Recommendation)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrap(err, "write Markdown report")
	}
	return nil
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(bundle *model.ResultBundle, w io.Writer) {
	rf := bundle.Summary.ResultsFound
	fmt.Fprintf(w, "Query: %s\n", bundle.Summary.UserQuery)
	fmt.Fprintf(w, "Sources: %d FDA label(s), %d PubMed articles (%d full text), %d trials in %.1fs\n",
		rf["fda_labels"], rf["pubmed_total"], rf["pubmed_full_text"], rf["clinical_trials"],
		bundle.Summary.SearchTimeSec)
	fmt.Fprintf(w, "Claims: %d\n", len(bundle.Claims))

	for _, c := range bundle.Claims {
		text := c.ClaimText
		if len(text) > 100 {
			text = text[:97] + "..."
		}
		fmt.Fprintf(w, "  [%d] (%s) %s\n", c.ID, c.Confidence, text)
	}
	if len(bundle.Excluded) > 0 {
		fmt.Fprintf(w, "Excluded: %d candidate(s)\n", len(bundle.Excluded))
	}
	for _, d := range bundle.Summary.Degradations {
		fmt.Fprintf(w, "Degraded: %s - %s\n", d.Source, d.Reason)
	}
	if bundle.Recommendation != "" {
		fmt.Fprintf(w, "%s\n", bundle.Recommendation)
	}
}

func formatCitation(c model.Citation) string {
	switch c.CitationType {
	case model.CitationFDALabel:
		return fmt.Sprintf("%s (%s)", c.Text, c.URL)
	case model.CitationJournalArticle:
		s := fmt.Sprintf("%s. %s. *%s* (%d).", c.Authors, c.Title, c.Journal, c.Year)
		if c.PMID != "" {
			s += " PMID: " + c.PMID + "."
		}
		if c.PMCID != "" {
			s += " " + c.PMCID + "."
		}
		if c.DOI != "" {
			s += " doi:" + c.DOI
		}
		return s
	case model.CitationTrialRegistry:
		return fmt.Sprintf("%s. %s (%s)", c.Text, c.NCT, c.URL)
	}
	return c.Text
}
