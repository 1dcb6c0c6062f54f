package naver

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxInvestorPages bounds the frgn.naver pagination
const maxInvestorPages = 150

var investorDateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// FetchInvestorFlow fetches daily institution/foreign net buying between from and to
// ⭐ SSOT: Naver Finance 투자자 수급 데이터 호출은 이 함수에서만
func (c *Client) FetchInvestorFlow(ctx context.Context, stockCode string, from, to time.Time) ([]InvestorFlow, error) {
	var all []InvestorFlow
	noDataPages := 0

	for page := 1; page <= maxInvestorPages; page++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("code", stockCode)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, "/item/frgn.naver", params)
		if err != nil {
			return all, err
		}

		flows, lastDate, hasMore := parseInvestorHTML(html, stockCode, from, to)
		all = append(all, flows...)

		// 기준일보다 이전 데이터면 종료
		if !lastDate.IsZero() && lastDate.Before(from) {
			break
		}
		if !hasMore {
			break
		}

		// 연속으로 데이터 없으면 종료
		if lastDate.IsZero() {
			noDataPages++
			if noDataPages >= 3 {
				break
			}
		} else {
			noDataPages = 0
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(all),
	}).Debug("Fetched investor flow")
	return all, nil
}

// parseInvestorHTML parses one frgn.naver page.
// It returns the rows inside [from, to], the oldest date seen and whether a next page exists.
func parseInvestorHTML(html string, stockCode string, from, to time.Time) ([]InvestorFlow, time.Time, bool) {
	var flows []InvestorFlow
	var lastDate time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return flows, lastDate, false
	}

	// 두번째 type2 테이블이 데이터 테이블
	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return flows, lastDate, false
	}

	tables.Eq(1).Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !investorDateRe.MatchString(dateText) {
			return
		}
		tradeDate, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		lastDate = tradeDate

		if tradeDate.Before(from) || tradeDate.After(to) {
			return
		}

		// 컬럼: 날짜 | 종가 | 대비 | 등락률 | 거래량 | 기관 | 외국인
		instNet := parseInt(cells.Eq(5).Text())
		foreignNet := parseInt(cells.Eq(6).Text())

		flows = append(flows, InvestorFlow{
			StockCode:      stockCode,
			TradeDate:      tradeDate,
			ForeignNet:     foreignNet,
			InstitutionNet: instNet,
			IndividualNet:  -(foreignNet + instNet),
		})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return flows, lastDate, hasMore
}

// parseInt reads numbers like "+1,234" or "-56"; "-" and blanks are 0
func parseInt(s string) int64 {
	s = cleanNumber(s)
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// parseFloat reads numbers like "+1.23%" or "72,500"
func parseFloat(s string) float64 {
	s = strings.TrimSuffix(cleanNumber(s), "%")
	if s == "" || s == "-" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	s = strings.Join(strings.Fields(s), "")
	return s
}
