package naver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/trendscore/pkg/httputil"
	"github.com/wonny/trendscore/pkg/logger"
)

// Default endpoints
const (
	DefaultBaseURL  = "https://finance.naver.com"
	DefaultChartURL = "https://fchart.stock.naver.com"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	chartURL   string
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the finance.naver.com endpoint
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithChartURL overrides the chart endpoint
func WithChartURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.chartURL = strings.TrimRight(u, "/")
		}
	}
}

// WithClock sets the clock used to pick the intraday window
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    DefaultBaseURL,
		chartURL:   DefaultChartURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches a URL and returns the raw body with its content type
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Referer", DefaultBaseURL+"/")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// fetchHTML fetches a finance.naver.com page decoded to UTF-8
func (c *Client) fetchHTML(ctx context.Context, path string, params url.Values) (string, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	body, contentType, err := c.get(ctx, fullURL)
	if err != nil {
		return "", err
	}
	return decodeHTML(body, contentType)
}

// decodeHTML converts EUC-KR pages to UTF-8.
// finance.naver.com은 대부분 EUC-KR로 응답
func decodeHTML(body []byte, contentType string) (string, error) {
	if !isEUCKR(body, contentType) {
		return string(body), nil
	}

	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), body)
	if err != nil {
		return "", fmt.Errorf("decode euc-kr: %w", err)
	}
	return string(decoded), nil
}

func isEUCKR(body []byte, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "utf-8") {
		return false
	}
	if strings.Contains(ct, "euc-kr") {
		return true
	}

	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(bytes.ToLower(head), []byte("euc-kr")) {
		return true
	}
	return !utf8.Valid(body)
}

// InvestorFlow represents daily investor net buying of one stock
type InvestorFlow struct {
	StockCode      string    `json:"stock_code"`
	TradeDate      time.Time `json:"trade_date"`
	ForeignNet     int64     `json:"foreign_net"`     // 외국인 순매수
	InstitutionNet int64     `json:"institution_net"` // 기관 순매수
	IndividualNet  int64     `json:"individual_net"`  // 개인 순매수 (계산)
}

// StockProfile is the summary block of a stock's main page
type StockProfile struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Industry     string   `json:"industry"`
	IndustryCode string   `json:"industry_code"`
	Themes       []string `json:"themes"`
	ThemeCodes   []string `json:"theme_codes"`
	MarketCap    float64  `json:"market_cap"` // 억원
}

// IndustryQuote is one row of the industry board
type IndustryQuote struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	ChangePct float64 `json:"change_pct"`
	Total     int     `json:"total"`
	Up        int     `json:"up"`
	Flat      int     `json:"flat"`
	Down      int     `json:"down"`
}

// IndustryMember is one stock listed on an industry detail page
type IndustryMember struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume"`
}
