package notify

import (
	"encoding/base64"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// Payee : bénéficiaire des virements SEPA.
type Payee struct {
	Name string
	IBAN string
	BIC  string
}

// sepaPayload construit le contenu EPC069-12 d'un virement SEPA. La ligne 10
// est réservée à une référence structurée RF et reste vide : ref part en
// communication libre sur la ligne 11.
func sepaPayload(p Payee, ref string, amount decimal.Decimal) string {
	return fmt.Sprintf("BCD\n001\n1\nSCT\n%s\n%s\n%s\nEUR%s\n\n\n%s",
		p.BIC, p.Name, p.IBAN, amount.StringFixed(2), ref)
}

// SepaQR génère le QR de virement en data URI, prêt pour <img src="...">.
func SepaQR(p Payee, ref string, amount decimal.Decimal) (string, error) {
	png, err := qrcode.Encode(sepaPayload(p, ref, amount), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("génération QR: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
