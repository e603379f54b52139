package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/model"
)

const clinicalTrialsBaseURL = "https://clinicaltrials.gov/api/v2/studies"

const trialsMaxPageSize = 100 // API cap

// TrialClient searches the ClinicalTrials.gov v2 API for registered trials.
// Trials are supporting context for claims, never standalone evidence.
type TrialClient struct {
	rest    *rest
	baseURL string
	phase   string
	status  string
}

// NewTrialClient creates a ClinicalTrials.gov client with the configured
// phase and status filters
func NewTrialClient(r *rest, search model.SearchConfig) *TrialClient {
	return &TrialClient{
		rest:    r,
		baseURL: clinicalTrialsBaseURL,
		phase:   search.TrialPhase,
		status:  search.TrialStatus,
	}
}

// Kind identifies the source
func (c *TrialClient) Kind() model.SourceKind {
	return model.SourceTrials
}

// Search queries the registry for drug + indication, filtered to the
// configured phase and status
func (c *TrialClient) Search(ctx context.Context, q model.SourceQuery) ([]*model.Candidate, error) {
	terms := []string{q.DrugName}
	if q.Indication != "" {
		terms = append(terms, q.Indication)
	}

	pageSize := q.MaxTrials
	if pageSize <= 0 || pageSize > trialsMaxPageSize {
		pageSize = trialsMaxPageSize
	}

	params := url.Values{}
	params.Set("query.term", strings.Join(terms, " AND "))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("format", "json")
	if c.status != "" {
		params.Set("filter.overallStatus", c.status)
	}
	if c.phase != "" {
		params.Set("filter.phase", c.phase)
	}

	body, err := c.rest.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "ClinicalTrials.gov search")
	}

	var resp struct {
		Studies []ctgStudy `json:"studies"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "decode ClinicalTrials.gov response")
	}

	candidates := make([]*model.Candidate, 0, len(resp.Studies))
	for _, study := range resp.Studies {
		if trial := study.toTrial(); trial != nil {
			candidates = append(candidates, model.NewTrialCandidate(trial))
		}
	}

	zap.L().Info("clinical trials search complete", zap.Int("trials", len(candidates)))
	return candidates, nil
}

// ctgStudy mirrors the slice of the v2 study record this pipeline reads
type ctgStudy struct {
	ProtocolSection struct {
		Identification struct {
			NCTID         string `json:"nctId"`
			OfficialTitle string `json:"officialTitle"`
			BriefTitle    string `json:"briefTitle"`
		} `json:"identificationModule"`
		Status struct {
			OverallStatus string `json:"overallStatus"`
			StartDate     struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
			CompletionDate struct {
				Date string `json:"date"`
			} `json:"completionDateStruct"`
		} `json:"statusModule"`
		Design struct {
			Phases         []string `json:"phases"`
			EnrollmentInfo struct {
				Count int `json:"count"`
			} `json:"enrollmentInfo"`
		} `json:"designModule"`
		Arms struct {
			Interventions []struct {
				Type string `json:"type"`
				Name string `json:"name"`
			} `json:"interventions"`
		} `json:"armsInterventionsModule"`
		Outcomes struct {
			Primary []struct {
				Measure string `json:"measure"`
			} `json:"primaryOutcomes"`
			Secondary []struct {
				Measure string `json:"measure"`
			} `json:"secondaryOutcomes"`
		} `json:"outcomesModule"`
		Sponsor struct {
			LeadSponsor struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
	} `json:"protocolSection"`
	ResultsSection json.RawMessage `json:"resultsSection"`
}

func (s ctgStudy) toTrial() *model.Trial {
	p := s.ProtocolSection
	if p.Identification.NCTID == "" {
		return nil
	}

	status := p.Status.OverallStatus
	if status == "" {
		status = "UNKNOWN"
	}

	t := &model.Trial{
		NCTID:          p.Identification.NCTID,
		OfficialTitle:  p.Identification.OfficialTitle,
		BriefTitle:     p.Identification.BriefTitle,
		Status:         status,
		Enrollment:     p.Design.EnrollmentInfo.Count,
		StartDate:      p.Status.StartDate.Date,
		CompletionDate: p.Status.CompletionDate.Date,
		Sponsor:        p.Sponsor.LeadSponsor.Name,
		HasResults:     len(s.ResultsSection) > 0,
		URL:            "https://clinicaltrials.gov/study/" + p.Identification.NCTID,
	}

	if len(p.Design.Phases) > 0 {
		t.Phase = p.Design.Phases[0]
	}
	if len(p.Arms.Interventions) > 0 {
		t.InterventionType = p.Arms.Interventions[0].Type
		t.InterventionName = p.Arms.Interventions[0].Name
	}
	for _, o := range p.Outcomes.Primary {
		t.PrimaryOutcomes = append(t.PrimaryOutcomes, o.Measure)
	}
	for _, o := range p.Outcomes.Secondary {
		t.SecondaryOutcomes = append(t.SecondaryOutcomes, o.Measure)
	}

	return t
}
