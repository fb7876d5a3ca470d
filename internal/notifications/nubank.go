package notifications

import (
	"regexp"
	"strings"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const nubankSource = "com.nu.production"

var (
	nubankPurchaseRe = regexp.MustCompile(`Compra de R\$\s*([\d.]+,\d{2}) (?:APROVADA )?em (.+?)(?:\.|$)`)
	nubankTransferRe = regexp.MustCompile(`Você recebeu uma transferência de R\$\s*([\d.]+,\d{2})`)
	nubankCardRe     = regexp.MustCompile(`cartão (?:final|com final) (\d{4})`)
)

// NubankParser handles push notifications from the Nubank app.
type NubankParser struct{}

func NewNubankParser() *NubankParser {
	return &NubankParser{}
}

func (p *NubankParser) CanHandle(source string) bool {
	return source == nubankSource
}

func (p *NubankParser) Parse(title, text string, timestampMillis int64) (*models.ParsedEvent, bool) {
	body := strings.TrimSpace(title + " " + text)

	if m := nubankPurchaseRe.FindStringSubmatch(body); m != nil {
		cents, ok := parseBRLCents(m[1])
		if !ok {
			return nil, false
		}
		desc := strings.TrimSpace(m[2])
		if i := strings.Index(desc, " com cartão"); i >= 0 {
			desc = desc[:i]
		}
		expense := models.TransactionTypeExpense
		ev := &models.ParsedEvent{
			Source:          nubankSource,
			AmountCents:     cents,
			Description:     desc,
			TimestampMillis: timestampMillis,
			Type:            &expense,
		}
		if cm := nubankCardRe.FindStringSubmatch(body); cm != nil {
			ev.LastFour = &cm[1]
		}
		return ev, true
	}

	if m := nubankTransferRe.FindStringSubmatch(body); m != nil {
		cents, ok := parseBRLCents(m[1])
		if !ok {
			return nil, false
		}
		income := models.TransactionTypeIncome
		return &models.ParsedEvent{
			Source:          nubankSource,
			AmountCents:     cents,
			Description:     "Transferência recebida",
			TimestampMillis: timestampMillis,
			Type:            &income,
		}, true
	}

	return nil, false
}
