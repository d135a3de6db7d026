package parser

import (
	"regexp"
	"strings"

	"github.com/fundlens/cas-parser/internal/models"
)

var (
	emailValue  = regexp.MustCompile(`(?i)(?:email\s*(?:id)?\s*:\s*)?([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	mobileValue = regexp.MustCompile(`(?i)mobile\s*:\s*\+?(\d{10,12})`)
	dpIDValue   = regexp.MustCompile(`(?i)DP\s*ID\s*:?\s*([A-Z0-9]+)`)
	clientValue = regexp.MustCompile(`(?i)(?:Client|BO)\s*ID\s*:?\s*([A-Z0-9]+)`)
	capsName    = regexp.MustCompile(`\b([A-Z]{2,}(?:\s+[A-Z]{2,})+)\b`)
)

// Header fragments that look like all-caps names but never are.
var nameSkipList = []string{
	"PORTFOLIO SUMMARY", "MUTUAL FUND", "CONSOLIDATED ACCOUNT",
	"COST VALUE", "MARKET VALUE", "TRANSACTION DETAILS", "ISIN", "NAV",
	"DIRECT PLAN", "GROWTH", "INR", "STT", "SIP", "DEMAT", "KYC",
}

// investorExtractor harvests identity fields while the FSM reports the
// investor-info section. Fields are write-once: the first plausible
// value wins, matching the document order CAS issuers print them in.
type investorExtractor struct {
	investor      models.Investor
	statementDate *models.Date
}

func newInvestorExtractor() *investorExtractor {
	return &investorExtractor{}
}

func (e *investorExtractor) consume(line string, m Marker) {
	if e.investor.PAN == "" {
		if pm := panLabelled.FindStringSubmatch(line); pm != nil {
			e.investor.PAN = strings.ToUpper(pm[1])
		} else if pm := panShape.FindStringSubmatch(line); pm != nil {
			e.investor.PAN = pm[1]
		}
	}

	if e.investor.Email == "" {
		if em := emailValue.FindStringSubmatch(line); em != nil {
			e.investor.Email = strings.ToLower(em[1])
		}
	}

	if e.investor.Mobile == "" {
		if mm := mobileValue.FindStringSubmatch(line); mm != nil {
			e.investor.Mobile = mm[1]
		}
	}

	if e.investor.DPID == "" {
		if dm := dpIDValue.FindStringSubmatch(line); dm != nil && dm[1] != "" {
			e.investor.DPID = dm[1]
		}
	}

	if e.investor.ClientID == "" {
		if cm := clientValue.FindStringSubmatch(line); cm != nil {
			e.investor.ClientID = cm[1]
		}
	}

	if e.statementDate == nil {
		if pr := periodRange.FindStringSubmatch(line); pr != nil {
			// Period end is the statement date.
			if d, err := parseStatementDate(pr[2]); err == nil {
				e.statementDate = &d
			}
		}
	}

	if e.investor.Name == "" {
		e.tryName(line)
	}
}

// tryName accepts an all-caps multi-word token run as the investor name,
// the form CAS statements print it in, rejecting known header fragments.
func (e *investorExtractor) tryName(line string) {
	nm := capsName.FindStringSubmatch(line)
	if nm == nil {
		return
	}
	candidate := nm[1]
	if len(candidate) < 5 || len(candidate) > 50 {
		return
	}
	for _, skip := range nameSkipList {
		if strings.Contains(candidate, skip) {
			return
		}
	}
	e.investor.Name = candidate
}
