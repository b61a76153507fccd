package pubmed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medilearn/pkg"
)

// Client talks to the NCBI E-utilities endpoints.  A search is two
// chained lookups: esearch resolves the query to article IDs, efetch
// resolves the IDs to titles and abstracts.  Results are paired with
// the generated article URLs by index order.
type Client struct {
	httpClient *http.Client
	searchURL  string
	fetchURL   string
	articleURL string
	maxResults int
}

const (
	defaultSearchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	defaultFetchURL   = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	defaultArticleURL = "https://pubmed.ncbi.nlm.nih.gov/"

	// Restricts matches to title and abstract fields.
	fieldTag = "[TIAB]"

	noAbstract = "No abstract available"
)

// ErrLookup marks a failed E-utilities call (transport error or
// non-success status).  An empty result set is not an error.
var ErrLookup = errors.New("pubmed lookup failed")

// NewClient constructs a client against the public E-utilities
// endpoints.  maxResults caps the esearch ID list.
func NewClient(maxResults int) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		searchURL:  defaultSearchURL,
		fetchURL:   defaultFetchURL,
		articleURL: defaultArticleURL,
		maxResults: maxResults,
	}
}

// Search resolves a free-text query to article titles, abstracts and
// URLs.  Zero matching IDs yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]pkg.ArticleResult, error) {
	ids, err := c.fetchArticleIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []pkg.ArticleResult{}, nil
	}
	details, err := c.fetchArticleDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	n := len(details)
	if len(ids) < n {
		n = len(ids)
	}
	results := make([]pkg.ArticleResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, pkg.ArticleResult{
			Title:    details[i].Title,
			Abstract: details[i].Abstract,
			URL:      c.articleURL + ids[i] + "/",
		})
	}
	return results, nil
}

// fetchArticleIDs runs the esearch call.  The query is percent-encoded
// and suffixed with the title/abstract field tag before it goes into
// the request parameters.
func (c *Client) fetchArticleIDs(ctx context.Context, query string) ([]string, error) {
	term := url.QueryEscape(query) + fieldTag
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmode": {"xml"},
		"retmax":  {fmt.Sprint(c.maxResults)},
	}
	body, err := c.get(ctx, c.searchURL, params, "esearch")
	if err != nil {
		return nil, err
	}

	var result struct {
		IDs []string `xml:"IdList>Id"`
	}
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: bad esearch response: %v", ErrLookup, err)
	}
	return result.IDs, nil
}

type articleDetail struct {
	Title    string
	Abstract string
}

// fetchArticleDetails runs the efetch call for a comma-joined ID list.
func (c *Client) fetchArticleDetails(ctx context.Context, ids []string) ([]articleDetail, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	body, err := c.get(ctx, c.fetchURL, params, "efetch")
	if err != nil {
		return nil, err
	}

	var set struct {
		Articles []struct {
			Title    string `xml:"MedlineCitation>Article>ArticleTitle"`
			Abstract string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
		} `xml:"PubmedArticle"`
	}
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("%w: bad efetch response: %v", ErrLookup, err)
	}

	details := make([]articleDetail, 0, len(set.Articles))
	for _, a := range set.Articles {
		abstract := a.Abstract
		if abstract == "" {
			abstract = noAbstract
		}
		details = append(details, articleDetail{Title: a.Title, Abstract: abstract})
	}
	return details, nil
}

func (c *Client) get(ctx context.Context, base string, params url.Values, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLookup, op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrLookup, op, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLookup, op, err)
	}
	return body, nil
}
