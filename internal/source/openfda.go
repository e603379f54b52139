package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pharmaclaims/substantia/internal/model"
)

const openFDALabelURL = "https://api.fda.gov/drug/label.json"

// LabelClient retrieves FDA-approved drug labels from the OpenFDA API.
// At most one label document is returned per search: the label is the
// single authoritative regulatory record for a drug, not a result list.
type LabelClient struct {
	rest    *rest
	baseURL string
}

// NewLabelClient creates an OpenFDA label client
func NewLabelClient(r *rest) *LabelClient {
	return &LabelClient{rest: r, baseURL: openFDALabelURL}
}

// Kind identifies the source
func (c *LabelClient) Kind() model.SourceKind {
	return model.SourceLabel
}

// Search looks up the drug label, trying the brand name first and falling
// back to the generic name. A drug with no label returns an empty slice,
// not an error.
func (c *LabelClient) Search(ctx context.Context, q model.SourceQuery) ([]*model.Candidate, error) {
	doc, err := c.Lookup(ctx, q.DrugName, q.GenericName)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return []*model.Candidate{model.NewLabelCandidate(doc)}, nil
}

// Lookup fetches a single label by brand name, then by generic name. It is
// also called directly by the intent parser to backfill the generic name;
// the request cache keeps that from costing a second API round trip.
func (c *LabelClient) Lookup(ctx context.Context, brandName, genericName string) (*model.LabelDocument, error) {
	if brandName != "" {
		doc, err := c.lookupField(ctx, "openfda.brand_name", brandName)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}

	if genericName != "" {
		doc, err := c.lookupField(ctx, "openfda.generic_name", genericName)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
	}

	zap.L().Warn("no FDA label found",
		zap.String("brand", brandName),
		zap.String("generic", genericName))
	return nil, nil
}

func (c *LabelClient) lookupField(ctx context.Context, field, name string) (*model.LabelDocument, error) {
	params := url.Values{}
	params.Set("search", fmt.Sprintf("%s:%q", field, name))
	params.Set("limit", "1")

	body, err := c.rest.get(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		// OpenFDA answers 404 for a drug with no label on file
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "OpenFDA search for %s", name)
	}

	var resp struct {
		Results []struct {
			OpenFDA struct {
				BrandName   []string `json:"brand_name"`
				GenericName []string `json:"generic_name"`
			} `json:"openfda"`
			IndicationsAndUsage     []string `json:"indications_and_usage"`
			ClinicalStudies         []string `json:"clinical_studies"`
			DosageAndAdministration []string `json:"dosage_and_administration"`
			Warnings                []string `json:"warnings"`
			AdverseReactions        []string `json:"adverse_reactions"`
			EffectiveTime           string   `json:"effective_time"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "decode OpenFDA response")
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	r := resp.Results[0]
	doc := &model.LabelDocument{
		IndicationsAndUsage:     r.IndicationsAndUsage,
		ClinicalStudies:         r.ClinicalStudies,
		DosageAndAdministration: r.DosageAndAdministration,
		Warnings:                r.Warnings,
		AdverseReactions:        r.AdverseReactions,
		EffectiveTime:           r.EffectiveTime,
	}
	if len(r.OpenFDA.BrandName) > 0 {
		doc.BrandName = r.OpenFDA.BrandName[0]
	}
	if len(r.OpenFDA.GenericName) > 0 {
		doc.GenericName = r.OpenFDA.GenericName[0]
	}

	return doc, nil
}
