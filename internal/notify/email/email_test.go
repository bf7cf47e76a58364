package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"
)

type sentMail struct {
	from string
	to   []string
	raw  string
}

func capture(sent *[]sentMail, err error) gomail.SendFunc {
	return func(from string, to []string, msg io.WriterTo) error {
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if _, werr := msg.WriteTo(&buf); werr != nil {
			return werr
		}
		*sent = append(*sent, sentMail{from: from, to: to, raw: buf.String()})
		return nil
	}
}

func TestNewMailer_RequiresHostAndFrom(t *testing.T) {
	if _, err := NewMailer(Config{From: "kyc@example.com"}); err == nil {
		t.Error("expected error without host")
	}
	if _, err := NewMailer(Config{Host: "smtp.example.com"}); err == nil {
		t.Error("expected error without from")
	}
	if _, err := NewMailer(Config{Host: "smtp.example.com", Port: 587, From: "kyc@example.com"}); err != nil {
		t.Errorf("NewMailer: %v", err)
	}
}

func TestSendVerificationCode(t *testing.T) {
	var sent []sentMail
	m := NewMailerWithSender("kyc@example.com", capture(&sent, nil))
	if err := m.SendVerificationCode(context.Background(), "a@x.com", "482913"); err != nil {
		t.Fatalf("SendVerificationCode: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	if sent[0].from != "kyc@example.com" || len(sent[0].to) != 1 || sent[0].to[0] != "a@x.com" {
		t.Errorf("envelope = %+v", sent[0])
	}
	if !strings.Contains(sent[0].raw, "482913") {
		t.Error("message should contain the code")
	}
	if !strings.Contains(sent[0].raw, "Subject: Your verification code") {
		t.Error("missing subject")
	}
}

func TestSendWelcome(t *testing.T) {
	var sent []sentMail
	m := NewMailerWithSender("kyc@example.com", capture(&sent, nil))
	if err := m.SendWelcome(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}
	if len(sent) != 1 || !strings.Contains(sent[0].raw, "Welcome aboard") {
		t.Errorf("sent = %+v", sent)
	}
}

func TestSend_Errors(t *testing.T) {
	var sent []sentMail
	boom := errors.New("smtp down")
	m := NewMailerWithSender("kyc@example.com", capture(&sent, boom))
	if err := m.SendWelcome(context.Background(), "a@x.com"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m = NewMailerWithSender("kyc@example.com", capture(&sent, nil))
	if err := m.SendVerificationCode(ctx, "a@x.com", "111111"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(sent) != 0 {
		t.Error("nothing should be sent on a cancelled context")
	}
}
