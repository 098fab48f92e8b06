// Package naver fetches product listings from the Naver Shopping search
// API. It is the upstream collaborator of the analytics pipeline: it only
// produces raw snapshot rows and knows nothing about the derived metrics.
package naver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"price-insights-go/internal/logger"
)

const (
	searchURL   = "https://openapi.naver.com/v1/search/shop.json"
	maxDisplay  = 100  // API page size limit
	maxPosition = 1000 // API start offset limit
)

// SortAccuracy and friends are the API's sort options.
const (
	SortAccuracy  = "sim"
	SortDate      = "date"
	SortPriceAsc  = "asc"
	SortPriceDesc = "dsc"
)

type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client
	log          *logrus.Entry
}

func NewClient(clientID, clientSecret string) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("naver client id and secret are required")
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      searchURL,
		httpClient:   &http.Client{Timeout: 12 * time.Second},
		log:          logger.New().WithField("component", "naver"),
	}, nil
}

// Product is one search result row, prices kept as the raw API strings so
// the pipeline's normalizer owns all coercion.
type Product struct {
	Rank        int // 1-based position in the search results
	Title       string
	Link        string
	Price       string // low price; may be empty
	MallName    string
	ProductID   string
	ProductType string
	Brand       string
	Maker       string
	Category1   string
	Category2   string
	Category3   string
	Category4   string
}

type searchResponse struct {
	Total   int          `json:"total"`
	Start   int          `json:"start"`
	Display int          `json:"display"`
	Items   []searchItem `json:"items"`
}

type searchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	LPrice      string `json:"lprice"`
	HPrice      string `json:"hprice"`
	MallName    string `json:"mallName"`
	ProductID   string `json:"productId"`
	ProductType string `json:"productType"`
	Brand       string `json:"brand"`
	Maker       string `json:"maker"`
	Category1   string `json:"category1"`
	Category2   string `json:"category2"`
	Category3   string `json:"category3"`
	Category4   string `json:"category4"`
}

// SearchPage fetches one page of results. start is 1-based.
func (c *Client) SearchPage(query string, display, start int, sortOrder string) ([]Product, error) {
	if display <= 0 || display > maxDisplay {
		display = maxDisplay
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("display", strconv.Itoa(display))
	q.Set("start", strconv.Itoa(start))
	q.Set("sort", sortOrder)
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	var resp searchResponse
	if err := c.doJSONRequest(req, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	out := make([]Product, 0, len(resp.Items))
	for i, item := range resp.Items {
		out = append(out, Product{
			Rank:        start + i,
			Title:       stripBold(item.Title),
			Link:        item.Link,
			Price:       item.LPrice,
			MallName:    item.MallName,
			ProductID:   item.ProductID,
			ProductType: item.ProductType,
			Brand:       item.Brand,
			Maker:       item.Maker,
			Category1:   item.Category1,
			Category2:   item.Category2,
			Category3:   item.Category3,
			Category4:   item.Category4,
		})
	}
	return out, nil
}

// SearchAll pages through results up to maxResults (capped by the API's
// offset limit), stopping early on an empty page.
func (c *Client) SearchAll(query string, maxResults int, sortOrder string) ([]Product, error) {
	if maxResults <= 0 || maxResults > maxPosition {
		maxResults = maxPosition
	}
	var out []Product
	for start := 1; start <= maxResults; start += maxDisplay {
		display := maxDisplay
		if remaining := maxResults - start + 1; remaining < display {
			display = remaining
		}
		page, err := c.SearchPage(query, display, start, sortOrder)
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"query": query,
			"start": start,
			"items": len(page),
		}).Info("fetched search page")
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
		if len(page) < display {
			break
		}
	}
	return out, nil
}

// doJSONRequest performs the request with exponential-backoff retry on
// transport errors and 5xx responses.
func (c *Client) doJSONRequest(req *http.Request, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var lastErr error
	operation := func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", body)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			// client errors are not retryable
			lastErr = fmt.Errorf("request rejected: %d %s", resp.StatusCode, body)
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return lastErr
	}
	return nil
}

// stripBold removes the <b> highlight tags the API injects into titles.
func stripBold(s string) string {
	s = strings.ReplaceAll(s, "<b>", "")
	return strings.ReplaceAll(s, "</b>", "")
}
