package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/model"
)

const eutilsBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// LiteratureClient searches PubMed and fetches article metadata and PMC full
// text through the NCBI E-utilities. Search covers steps 1 and 2 of the
// retrieval chain (PMIDs, then metadata with PMC IDs); step 3 belongs to the
// FullTextResolver.
type LiteratureClient struct {
	rest    *rest
	baseURL string
	apiKey  string
	email   string
}

// NewLiteratureClient creates a PubMed/PMC client. The API key raises NCBI's
// rate allowance from 3 to 10 requests per second; the caller adjusts the
// limiter accordingly.
func NewLiteratureClient(r *rest, ncbi model.NCBIConfig) *LiteratureClient {
	return &LiteratureClient{
		rest:    r,
		baseURL: eutilsBaseURL,
		apiKey:  ncbi.APIKey,
		email:   ncbi.Email,
	}
}

// Kind identifies the source
func (c *LiteratureClient) Kind() model.SourceKind {
	return model.SourceLiterature
}

// Search runs esearch for PMIDs, then efetch for metadata. Returned articles
// carry PMC IDs where PMC indexes them but are not yet resolved to full text.
func (c *LiteratureClient) Search(ctx context.Context, q model.SourceQuery) ([]*model.Candidate, error) {
	pmids, err := c.searchPMIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		zap.L().Info("no PubMed articles found", zap.String("drug", q.DrugName))
		return nil, nil
	}

	articles, err := c.fetchMetadata(ctx, pmids)
	if err != nil {
		return nil, err
	}

	candidates := make([]*model.Candidate, 0, len(articles))
	for _, a := range articles {
		candidates = append(candidates, model.NewArticleCandidate(a))
	}
	return candidates, nil
}

// searchPMIDs is step 1: esearch with the clinical-trial publication-type
// filter and a date window of the last q.YearsBack years, newest first.
func (c *LiteratureClient) searchPMIDs(ctx context.Context, q model.SourceQuery) ([]string, error) {
	terms := []string{fmt.Sprintf("(%s)", q.DrugName)}
	if q.Indication != "" {
		terms = append(terms, fmt.Sprintf("(%s)", q.Indication))
	}
	if q.Population != "" {
		terms = append(terms, fmt.Sprintf("(%s)", q.Population))
	}
	terms = append(terms, "(clinical trial[Publication Type] OR randomized controlled trial[Publication Type])")

	now := time.Now()
	yearsBack := q.YearsBack
	if yearsBack <= 0 {
		yearsBack = 5
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", strings.Join(terms, " AND "))
	params.Set("retmax", strconv.Itoa(q.MaxResults))
	params.Set("retmode", "json")
	params.Set("sort", "pub_date")
	params.Set("mindate", now.AddDate(-yearsBack, 0, 0).Format("2006/01/02"))
	params.Set("maxdate", now.Format("2006/01/02"))
	c.addCredentials(params)

	body, err := c.rest.get(ctx, c.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "PubMed search")
	}

	var resp struct {
		Result struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "decode esearch response")
	}

	zap.L().Debug("PubMed search complete", zap.Int("pmids", len(resp.Result.IDList)))
	return resp.Result.IDList, nil
}

// fetchMetadata is step 2: one efetch call for all PMIDs, parsing titles,
// abstracts, authors and the PMC IDs that gate full-text retrieval.
func (c *LiteratureClient) fetchMetadata(ctx context.Context, pmids []string) ([]*model.Article, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")
	c.addCredentials(params)

	body, err := c.rest.get(ctx, c.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "PubMed metadata fetch")
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, eris.Wrap(err, "decode PubMed XML")
	}

	articles := make([]*model.Article, 0, len(set.Articles))
	for _, raw := range set.Articles {
		if a := raw.toArticle(); a != nil {
			articles = append(articles, a)
		}
	}

	withPMC := 0
	for _, a := range articles {
		if a.PMCID != "" {
			withPMC++
		}
	}
	zap.L().Info("PubMed metadata parsed",
		zap.Int("articles", len(articles)),
		zap.Int("with_pmc_id", withPMC))

	return articles, nil
}

// FullText is a resolved PMC article body
type FullText struct {
	Text     string
	Sections map[string]string
}

// FetchFullText is step 3: efetch against the pmc database for one article.
// A StatusError with code 403 means the publisher restricts access.
func (c *LiteratureClient) FetchFullText(ctx context.Context, pmcid string) (*FullText, error) {
	params := url.Values{}
	params.Set("db", "pmc")
	params.Set("id", strings.TrimPrefix(pmcid, "PMC"))
	params.Set("retmode", "xml")
	c.addCredentials(params)

	body, err := c.rest.get(ctx, c.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var set pmcArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, eris.Wrapf(err, "decode PMC XML for %s", pmcid)
	}
	if set.Article == nil || len(set.Article.Sections) == 0 {
		return nil, eris.Errorf("no article body in PMC response for %s", pmcid)
	}

	sections := make(map[string]string, len(set.Article.Sections))
	var parts []string
	for _, sec := range set.Article.Sections {
		title := sec.Title
		if title == "" {
			title = "Untitled"
		}
		sections[title] = sec.Text
		parts = append(parts, fmt.Sprintf("## %s\n%s\n", title, sec.Text))
	}

	return &FullText{
		Text:     strings.Join(parts, "\n\n"),
		Sections: sections,
	}, nil
}

func (c *LiteratureClient) addCredentials(params url.Values) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}
}

// --- PubMed efetch XML shapes ---

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Texts []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Authors []struct {
				LastName string `xml:"LastName"`
				ForeName string `xml:"ForeName"`
			} `xml:"AuthorList>Author"`
			Journal struct {
				Title string `xml:"Title"`
				Year  string `xml:"JournalIssue>PubDate>Year"`
			} `xml:"Journal"`
			PubTypes []string `xml:"PublicationTypeList>PublicationType"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
	IDs []articleID `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

func (p pubmedArticle) toArticle() *model.Article {
	pmid := strings.TrimSpace(p.Citation.PMID)
	if pmid == "" {
		return nil
	}

	art := p.Citation.Article

	a := &model.Article{
		PMID:             pmid,
		Title:            strings.TrimSpace(art.Title),
		Abstract:         strings.TrimSpace(strings.Join(art.Abstract.Texts, " ")),
		Journal:          strings.TrimSpace(art.Journal.Title),
		PublicationTypes: art.PubTypes,
	}
	if a.Title == "" {
		a.Title = "No title"
	}
	if y, err := strconv.Atoi(strings.TrimSpace(art.Journal.Year)); err == nil {
		a.PubYear = y
	}

	for _, author := range art.Authors {
		if author.LastName == "" {
			continue
		}
		name := author.LastName
		if author.ForeName != "" {
			name += " " + string([]rune(author.ForeName)[0])
		}
		a.Authors = append(a.Authors, name)
	}

	for _, id := range p.IDs {
		switch id.Type {
		case "doi":
			if a.DOI == "" {
				a.DOI = strings.TrimSpace(id.Value)
			}
		case "pmc":
			if a.PMCID == "" {
				a.PMCID = strings.TrimSpace(id.Value)
			}
		}
	}

	return a
}

// --- PMC (JATS) full-text XML shapes ---

type pmcArticleSet struct {
	XMLName xml.Name    `xml:"pmc-articleset"`
	Article *pmcArticle `xml:"article"`
}

type pmcArticle struct {
	Sections []pmcSection `xml:"body>sec"`
}

// pmcSection flattens one top-level body section to plain text. Nested
// subsections fold into the parent's text, the way the claims synthesizer
// consumes it.
type pmcSection struct {
	Title string
	Text  string
}

func (s *pmcSection) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	depth := 1
	titleDepth := -1
	var all, title []string

	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "title" && depth == 1 && s.Title == "" {
				titleDepth = depth
			}
			depth++
		case xml.EndElement:
			depth--
			if titleDepth >= 0 && depth == titleDepth {
				s.Title = strings.Join(title, " ")
				titleDepth = -1
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text != "" {
				all = append(all, text)
				if titleDepth >= 0 {
					title = append(title, text)
				}
			}
		}
	}

	s.Text = strings.Join(all, " ")
	return nil
}
