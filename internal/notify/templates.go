package notify

import (
	"bytes"
	"html/template"

	"cedra_orders/internal/models"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
	<h2 style="color: #333;">Confirmation de votre commande</h2>
	<p>Bonjour {{.Order.Name}},</p>
	<p>Votre commande <strong>{{.Ref}}</strong> a bien été enregistrée.</p>
	<p>Livraison : {{.Order.Address}} ({{.Order.PhoneNumber}})</p>
	<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
		<thead>
			<tr style="background-color: #f0f0f0;">
				<th style="padding: 10px; text-align: left;">Produit</th>
				<th style="padding: 10px; text-align: left;">Quantité</th>
				<th style="padding: 10px; text-align: left;">Prix unitaire</th>
				<th style="padding: 10px; text-align: left;">Total</th>
			</tr>
		</thead>
		<tbody>
		{{- range .Order.Items}}
			<tr>
				<td style="padding: 10px;">{{.Name}}{{if .Color}} · {{.Color}}{{end}}{{if .Size}} · {{.Size}}{{end}}</td>
				<td style="padding: 10px;">{{.Quantity}}</td>
				<td style="padding: 10px;">{{.Price.StringFixed 2}}€</td>
				<td style="padding: 10px;">{{.LineTotal.StringFixed 2}}€</td>
			</tr>
		{{- end}}
		</tbody>
		<tfoot>
			<tr><td colspan="3" style="padding: 10px; text-align: right;">Sous-total :</td><td style="padding: 10px;">{{.Order.Subtotal.StringFixed 2}}€</td></tr>
			<tr><td colspan="3" style="padding: 10px; text-align: right;">Livraison :</td><td style="padding: 10px;">{{.Order.ShippingFee.StringFixed 2}}€</td></tr>
			<tr><td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total :</td><td style="padding: 10px; font-weight: bold;">{{.Order.Total.StringFixed 2}}€</td></tr>
		</tfoot>
	</table>
	{{- if .QR}}
	<p>Vous pouvez aussi régler par virement en scannant ce code :</p>
	<img src="{{.QR}}" alt="QR virement SEPA" width="200" height="200">
	{{- end}}
	<p style="margin-top: 30px; color: #555;">Cordialement,<br><strong>L'équipe {{.Company}}</strong></p>
</div>
</body>
</html>`))

var statusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
<div style="max-width: 600px; margin: auto; background-color: #ffffff; padding: 20px; border-radius: 12px; border-top: 6px solid {{.Color}};">
	<h2>{{.Icon}} Commande {{.Ref}}</h2>
	<p>{{.Message}}</p>
	<p>Montant : <strong>{{.Order.Total.StringFixed 2}}€</strong></p>
	<p style="margin-top: 30px; color: #555;">Cordialement,<br><strong>L'équipe {{.Company}}</strong></p>
</div>
</body>
</html>`))

type confirmationData struct {
	Order   models.Order
	Ref     string
	QR      template.URL
	Company string
}

type statusData struct {
	Order   models.Order
	Ref     string
	Icon    string
	Color   string
	Message string
	Company string
}

// orderRef retourne une référence courte lisible pour l'e-mail.
func orderRef(order models.Order) string {
	if len(order.ID) > 8 {
		return order.ID[:8]
	}
	return order.ID
}

func renderConfirmation(order models.Order, qr, company string) (string, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, confirmationData{
		Order:   order,
		Ref:     orderRef(order),
		QR:      template.URL(qr),
		Company: company,
	})
	return buf.String(), err
}

func renderStatus(order models.Order, company string) (string, error) {
	var buf bytes.Buffer
	err := statusTmpl.Execute(&buf, statusData{
		Order:   order,
		Ref:     orderRef(order),
		Icon:    statusIcon(order.Status),
		Color:   statusColor(order.Status),
		Message: statusMessage(order.Status),
		Company: company,
	})
	return buf.String(), err
}

func statusSubject(status, company string) string {
	switch status {
	case models.OrderStatusPaid:
		return "✅ Paiement confirmé - " + company
	default:
		return "📋 Mise à jour de votre commande - " + company
	}
}

func statusMessage(status string) string {
	switch status {
	case models.OrderStatusPaid:
		return "Votre paiement a été confirmé avec succès. Nous préparons votre commande."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func statusIcon(status string) string {
	if status == models.OrderStatusPaid {
		return "✅"
	}
	return "📋"
}

func statusColor(status string) string {
	if status == models.OrderStatusPaid {
		return "#10b981"
	}
	return "#6b7280"
}
