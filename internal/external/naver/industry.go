package naver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	groupNoRe  = regexp.MustCompile(`[?&]no=(\d+)`)
	itemCodeRe = regexp.MustCompile(`code=([0-9A-Z]{6})`)
	percentRe  = regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)\s*%`)
	trillionRe = regexp.MustCompile(`([\d,]+)\s*조`)
	billionsRe = regexp.MustCompile(`([\d,]+)\s*$`)
)

// FetchStockProfile reads name, industry, themes and market cap from the stock main page
func (c *Client) FetchStockProfile(ctx context.Context, code string) (*StockProfile, error) {
	html, err := c.fetchHTML(ctx, "/item/main.naver", url.Values{"code": {code}})
	if err != nil {
		return nil, err
	}

	profile, err := parseStockProfile(html, code)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"industry":   profile.Industry,
		"themes":     len(profile.Themes),
	}).Debug("Fetched stock profile")
	return profile, nil
}

func parseStockProfile(html, code string) (*StockProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse profile html: %w", err)
	}

	p := &StockProfile{
		Code:       code,
		Name:       strings.TrimSpace(doc.Find("div.wrap_company h2 a").First().Text()),
		Themes:     []string{},
		ThemeCodes: []string{},
	}

	industry := doc.Find(`a[href*="type=upjong"]`).First()
	if industry.Length() > 0 {
		p.Industry = strings.TrimSpace(industry.Text())
		p.IndustryCode = groupNo(industry)
	}

	seen := make(map[string]bool)
	doc.Find(`a[href*="type=theme"]`).Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		p.Themes = append(p.Themes, name)
		p.ThemeCodes = append(p.ThemeCodes, groupNo(a))
	})

	p.MarketCap = parseMarketCap(doc.Find("#_market_sum").Text())

	if p.Name == "" && p.Industry == "" {
		return nil, fmt.Errorf("no profile found for %s", code)
	}
	return p, nil
}

// parseMarketCap converts "1,234조 5,678" (억원 단위 표기) to 억원
func parseMarketCap(s string) float64 {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return 0
	}

	var total float64
	if m := trillionRe.FindStringSubmatch(s); m != nil {
		total += parseFloat(m[1]) * 10000
		s = strings.TrimSpace(s[strings.Index(s, "조")+len("조"):])
	}
	if m := billionsRe.FindStringSubmatch(s); m != nil {
		total += parseFloat(m[1])
	}
	return total
}

// FetchIndustryBoard reads the industry (업종) board with per-industry breadth
func (c *Client) FetchIndustryBoard(ctx context.Context) ([]IndustryQuote, error) {
	html, err := c.fetchHTML(ctx, "/sise/sise_group.naver", url.Values{"type": {"upjong"}})
	if err != nil {
		return nil, err
	}

	quotes, err := parseIndustryBoard(html)
	if err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(quotes)).Debug("Fetched industry board")
	return quotes, nil
}

func parseIndustryBoard(html string) ([]IndustryQuote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse industry board: %w", err)
	}

	quotes := []IndustryQuote{}
	doc.Find("table.type_1 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}
		link := cells.Eq(0).Find("a").First()
		name := strings.TrimSpace(link.Text())
		if name == "" {
			return
		}

		// 컬럼: 업종명 | 전일대비 | 전체 | 상승 | 보합 | 하락
		quotes = append(quotes, IndustryQuote{
			Code:      groupNo(link),
			Name:      name,
			ChangePct: parseFloat(cells.Eq(1).Text()),
			Total:     int(parseInt(cells.Eq(2).Text())),
			Up:        int(parseInt(cells.Eq(3).Text())),
			Flat:      int(parseInt(cells.Eq(4).Text())),
			Down:      int(parseInt(cells.Eq(5).Text())),
		})
	})
	return quotes, nil
}

// FetchIndustryMembers reads the constituent stocks of one industry
func (c *Client) FetchIndustryMembers(ctx context.Context, industryCode string) ([]IndustryMember, error) {
	params := url.Values{"type": {"upjong"}, "no": {industryCode}}
	html, err := c.fetchHTML(ctx, "/sise/sise_group_detail.naver", params)
	if err != nil {
		return nil, err
	}

	members, err := parseIndustryMembers(html)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"industry_code": industryCode,
		"count":         len(members),
	}).Debug("Fetched industry members")
	return members, nil
}

func parseIndustryMembers(html string) ([]IndustryMember, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse industry members: %w", err)
	}

	members := []IndustryMember{}
	doc.Find("table.type_5 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}
		link := cells.Eq(0).Find("a").First()
		href, _ := link.Attr("href")
		m := itemCodeRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		// 컬럼: 종목명 | 현재가 | 전일비 | 등락률 | 매수호가 | 매도호가 | 거래량
		members = append(members, IndustryMember{
			Code:      m[1],
			Name:      strings.TrimSpace(link.Text()),
			Price:     parseFloat(cells.Eq(1).Text()),
			ChangePct: parseFloat(cells.Eq(3).Text()),
			Volume:    parseInt(cells.Eq(6).Text()),
		})
	})
	return members, nil
}

// FetchIndexChange returns today's change percent of a market index (KOSPI, KOSDAQ)
func (c *Client) FetchIndexChange(ctx context.Context, index string) (float64, error) {
	html, err := c.fetchHTML(ctx, "/sise/sise_index.naver", url.Values{"code": {index}})
	if err != nil {
		return 0, err
	}
	return parseIndexChange(html)
}

func parseIndexChange(html string) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse index page: %w", err)
	}

	text := doc.Find("#change_value_and_rate").Text()
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("index change not found")
	}

	change := parseFloat(m[1])
	// 하락 표기가 부호 없이 "하락"으로만 오는 경우
	if change > 0 && strings.Contains(text, "하락") {
		change = -change
	}
	return change, nil
}

func groupNo(a *goquery.Selection) string {
	href, _ := a.Attr("href")
	if m := groupNoRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}
