package submission

import (
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
)

var ErrNoSubmitEmail = errors.New("submit_to_email is not configured in " + ManifestFile)

// Receipt describes a submission that was handed to the mail service.
type Receipt struct {
	ZipPath string `json:"zip_path"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// Service packages submissions and mails them to the address in the suite manifest.
type Service struct {
	store     *Store
	suiteRoot string
	mailer    core.EmailService
}

func NewService(store *Store, suiteRoot string, mailer core.EmailService) *Service {
	return &Service{store: store, suiteRoot: suiteRoot, mailer: mailer}
}

func (s *Service) Store() *Store { return s.store }

// SubmitEmail returns the configured recipient, or "".
func (s *Service) SubmitEmail() string {
	return ReadSubmitEmail(s.suiteRoot)
}

// Mailto returns the mailto fallback link for folder, or "" without a recipient.
func (s *Service) Mailto(folder string) string {
	return MailtoURL(s.SubmitEmail(), folder)
}

// Submit zips folder's submissions and sends them as an attachment.
func (s *Service) Submit(folder string, now time.Time) (Receipt, error) {
	to := s.SubmitEmail()
	if to == "" {
		return Receipt{}, ErrNoSubmitEmail
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return Receipt{}, core.NewValidationError(err, core.FieldError{Field: manifestKey, Error: err.Error()})
	}

	zipPath, err := s.store.CreateZip(folder, now)
	if err != nil {
		return Receipt{}, err
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{*addr},
		Subject: SubjectOf(folder),
		BodyStr: "Abgabe " + folder + " vom " + now.Format(displayLayout) + ".",
	}
	if err := msg.AttachFile(zipPath, "application/zip"); err != nil {
		return Receipt{}, errors.Wrap(err, "attaching submission zip")
	}
	s.mailer.SendMessages(msg)

	return Receipt{ZipPath: zipPath, To: addr.Address, Subject: msg.Subject}, nil
}
