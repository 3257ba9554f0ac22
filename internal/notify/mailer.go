// Package notify envoie les e-mails transactionnels liés aux commandes.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"

	"cedra_orders/internal/models"
)

const sendTimeout = 30 * time.Second

// Sender est satisfait par *mail.Client.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// NewSMTPClient ouvre un client SMTP authentifié en TLS obligatoire.
func NewSMTPClient(cfg SMTPConfig) (*mail.Client, error) {
	return mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
}

type Mailer struct {
	sender  Sender
	from    string
	company string
	payee   Payee
}

func NewMailer(sender Sender, from, company string, payee Payee) *Mailer {
	return &Mailer{sender: sender, from: from, company: company, payee: payee}
}

// OrderCreated prépare la confirmation (avec QR de virement si un IBAN est
// configuré) et l'envoie en arrière-plan.
func (m *Mailer) OrderCreated(ctx context.Context, order models.Order) error {
	qr := ""
	if m.payee.IBAN != "" {
		var err error
		qr, err = SepaQR(m.payee, "CMD-"+orderRef(order), order.Total)
		if err != nil {
			log.Printf("⚠️ QR SEPA indisponible pour %s: %v", order.ID, err)
			qr = ""
		}
	}

	body, err := renderConfirmation(order, qr, m.company)
	if err != nil {
		return fmt.Errorf("rendu confirmation: %w", err)
	}
	subject := fmt.Sprintf("Confirmation de votre commande %s - %s", orderRef(order), m.company)
	return m.dispatch(ctx, order.Email, subject, body)
}

func (m *Mailer) OrderStatusChanged(ctx context.Context, order models.Order) error {
	body, err := renderStatus(order, m.company)
	if err != nil {
		return fmt.Errorf("rendu statut: %w", err)
	}
	return m.dispatch(ctx, order.Email, statusSubject(order.Status, m.company), body)
}

func (m *Mailer) dispatch(ctx context.Context, to, subject, body string) error {
	msg, err := m.message(to, subject, body)
	if err != nil {
		return err
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		log.Println("📤 Envoi de l'e-mail à", to)
		if err := m.sender.DialAndSendWithContext(sendCtx, msg); err != nil {
			log.Printf("❌ Échec envoi e-mail à %s: %v", to, err)
			return
		}
		log.Printf("📧 E-mail envoyé à %s", to)
	}()
	return nil
}

func (m *Mailer) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("expéditeur invalide: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("destinataire invalide: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}
