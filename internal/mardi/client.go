// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mardi talks to the MaRDI portal: entity search through the
// MediaWiki action API and formula retrieval through the SPARQL query
// service. It returns raw bindings; cleaning happens in texclean and rank.
package mardi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"

	"github.com/pdiddy/mardi-search/internal/httputil"
	"github.com/pdiddy/mardi-search/pkg/types"
)

const (
	defaultFetchLimit = 20
	defaultLanguage   = "en"
	sparqlResultsJSON = "application/sparql-results+json"
)

var (
	entityIDPattern = regexp.MustCompile(`^[QP][0-9]+$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]+)?$`)
)

// Client queries the MaRDI portal.
type Client struct {
	HTTP *http.Client

	SPARQLURL string
	APIURL    string
	UserAgent string
	Language  string

	// FetchLimit is used when FetchRawBindings is called with limit <= 0.
	FetchLimit int

	// MaxRetries is passed to httputil.DoWithRetry (0 = default).
	MaxRetries int

	Logger *slog.Logger
}

// NewClient builds a Client from cfg. A nil httpClient gets one with
// cfg.Timeout.
func NewClient(cfg types.SearchConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		HTTP:       httpClient,
		SPARQLURL:  cfg.Mardi.SPARQLURL,
		APIURL:     cfg.Mardi.APIURL,
		UserAgent:  cfg.UserAgent,
		Language:   cfg.Mardi.Language,
		FetchLimit: cfg.Mardi.FetchLimit,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	}
}

func (c *Client) language() string {
	if c.Language == "" {
		return defaultLanguage
	}
	return c.Language
}

// SearchEntity resolves term to the best-matching MaRDI item. It returns
// nil and no error when the portal knows no such item.
func (c *Client) SearchEntity(ctx context.Context, term string) (*types.Entity, error) {
	if term == "" {
		return nil, nil
	}

	params := url.Values{
		"action":   {"wbsearchentities"},
		"search":   {term},
		"language": {c.language()},
		"type":     {"item"},
		"limit":    {"1"},
		"format":   {"json"},
	}

	var sr searchEntitiesResponse
	if err := c.getJSON(ctx, c.APIURL+"?"+params.Encode(), "application/json", &sr); err != nil {
		return nil, fmt.Errorf("entity search for %q: %w", term, err)
	}
	if sr.Error != nil {
		return nil, fmt.Errorf("entity search for %q: %s: %s", term, sr.Error.Code, sr.Error.Info)
	}
	if len(sr.Search) == 0 {
		return nil, nil
	}

	hit := sr.Search[0]
	c.Logger.Debug("resolved concept", "term", term, "entity", hit.ID, "label", hit.Label)
	return &types.Entity{
		ID:          hit.ID,
		Label:       hit.Label,
		Description: hit.Description,
		ConceptURI:  hit.ConceptURI,
	}, nil
}

// FetchRawBindings returns up to limit formula bindings whose "defining
// concept" (P4) is entityID. The result may be shorter than limit or empty.
func (c *Client) FetchRawBindings(ctx context.Context, entityID string, limit int) ([]types.RawBinding, error) {
	if limit <= 0 {
		limit = c.FetchLimit
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	query, err := BuildFormulaQuery(entityID, c.language(), limit)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {query},
		"format": {"json"},
	}

	var sr sparqlResponse
	if err := c.getJSON(ctx, c.SPARQLURL+"?"+params.Encode(), sparqlResultsJSON, &sr); err != nil {
		return nil, fmt.Errorf("formula query for %s: %w", entityID, err)
	}

	bindings := make([]types.RawBinding, 0, len(sr.Results.Bindings))
	for _, b := range sr.Results.Bindings {
		bindings = append(bindings, b.toRaw())
	}
	c.Logger.Debug("fetched formulas", "entity", entityID, "bindings", len(bindings))
	return bindings, nil
}

// BuildFormulaQuery renders the SPARQL query selecting formulas, their
// labels, math expressions, and descriptions for one concept item.
func BuildFormulaQuery(entityID, language string, limit int) (string, error) {
	if !entityIDPattern.MatchString(entityID) {
		return "", fmt.Errorf("invalid entity id %q", entityID)
	}
	if !languagePattern.MatchString(language) {
		return "", fmt.Errorf("invalid language %q", language)
	}
	if limit <= 0 {
		return "", fmt.Errorf("invalid limit %d", limit)
	}

	return fmt.Sprintf(`SELECT ?formula ?formulaLabel ?mathExpression ?description WHERE {
  ?formula wdt:P4 wd:%s .
  ?formula wdt:P15 ?mathExpression .
  OPTIONAL {
    ?formula schema:description ?description .
    FILTER(LANG(?description) = "%s")
  }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "%s". }
}
LIMIT %d`, entityID, language, language, limit), nil
}

// getJSON issues a GET with retry and decodes a 200 response into v.
func (c *Client) getJSON(ctx context.Context, reqURL, accept string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries, c.Logger)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// MediaWiki wbsearchentities JSON structures.
type searchEntitiesResponse struct {
	Search []searchEntityHit `json:"search"`
	Error  *apiError         `json:"error"`
}

type searchEntityHit struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	ConceptURI  string `json:"concepturi"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// SPARQL 1.1 JSON results structures.
type sparqlResponse struct {
	Head    sparqlHead    `json:"head"`
	Results sparqlResults `json:"results"`
}

type sparqlHead struct {
	Vars []string `json:"vars"`
}

type sparqlResults struct {
	Bindings []sparqlBinding `json:"bindings"`
}

type sparqlTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// sparqlBinding maps variable names to bound terms. Unbound variables are
// simply missing.
type sparqlBinding map[string]sparqlTerm

func (b sparqlBinding) value(name string) *string {
	t, ok := b[name]
	if !ok {
		return nil
	}
	v := t.Value
	return &v
}

func (b sparqlBinding) toRaw() types.RawBinding {
	return types.RawBinding{
		Label:          b.value("formulaLabel"),
		MathExpression: b.value("mathExpression"),
		Description:    b.value("description"),
		Formula:        b.value("formula"),
	}
}
