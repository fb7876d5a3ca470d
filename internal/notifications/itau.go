package notifications

import (
	"regexp"
	"strings"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const itauSource = "com.itau"

var (
	itauPurchaseRe = regexp.MustCompile(`[Cc]ompra (?:aprovada )?de R\$\s*([\d.]+,\d{2}) em (.+?) com o cartão final (\d{4})`)
	itauPixRe      = regexp.MustCompile(`Pix recebido de (.+?) no valor de R\$\s*([\d.]+,\d{2})`)
)

// ItauParser handles push notifications from the Itaú app.
type ItauParser struct{}

func NewItauParser() *ItauParser {
	return &ItauParser{}
}

func (p *ItauParser) CanHandle(source string) bool {
	return source == itauSource
}

func (p *ItauParser) Parse(title, text string, timestampMillis int64) (*models.ParsedEvent, bool) {
	body := strings.TrimSpace(title + " " + text)

	if m := itauPurchaseRe.FindStringSubmatch(body); m != nil {
		cents, ok := parseBRLCents(m[1])
		if !ok {
			return nil, false
		}
		expense := models.TransactionTypeExpense
		return &models.ParsedEvent{
			Source:          itauSource,
			AmountCents:     cents,
			Description:     strings.TrimSpace(m[2]),
			TimestampMillis: timestampMillis,
			Type:            &expense,
			LastFour:        &m[3],
		}, true
	}

	if m := itauPixRe.FindStringSubmatch(body); m != nil {
		cents, ok := parseBRLCents(m[2])
		if !ok {
			return nil, false
		}
		income := models.TransactionTypeIncome
		return &models.ParsedEvent{
			Source:          itauSource,
			AmountCents:     cents,
			Description:     "Pix de " + strings.TrimSpace(m[1]),
			TimestampMillis: timestampMillis,
			Type:            &income,
		}, true
	}

	return nil, false
}
