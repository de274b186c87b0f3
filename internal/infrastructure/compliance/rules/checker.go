// Package rules implements a rule-table compliance checker. Each rule
// inspects the document independently; the report aggregates the worst
// outcome and a pass-ratio score.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

const (
	maxDocumentAge = 7 * 365 * 24 * time.Hour
	maxSizeBytes   = 100 << 20
)

var (
	ssnPattern        = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	cardPattern       = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern      = regexp.MustCompile(`\+\d{1,3}[ -]?\(?\d{3}\)?[ -]?\d{3}[ -]?\d{2,4}`)
	confidentialWords = regexp.MustCompile(`(?i)\b(confidential|classified|internal only|do not distribute)\b`)
)

type rule struct {
	name  string
	check func(doc *domain.Document, now time.Time) (domain.ComplianceStatus, string)
}

type Checker struct {
	rules []rule
	now   func() time.Time
}

func New() *Checker {
	return &Checker{
		rules: []rule{
			{name: "pii_ssn", check: checkSSN},
			{name: "pii_payment_card", check: checkPaymentCard},
			{name: "pii_contact", check: checkContactDetails},
			{name: "confidentiality_marking", check: checkConfidentialityMarking},
			{name: "retention_age", check: checkRetentionAge},
			{name: "size_limit", check: checkSizeLimit},
		},
		now: time.Now,
	}
}

func (c *Checker) Check(ctx context.Context, doc *domain.Document) (*domain.ComplianceReport, error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compliance.Check", fmt.Errorf("nil document"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := c.now()
	report := &domain.ComplianceReport{
		OverallStatus: domain.CompliancePassed,
		Checks:        make([]domain.ComplianceCheck, 0, len(c.rules)),
		CheckedAt:     now,
	}

	passed := 0
	for _, r := range c.rules {
		status, message := r.check(doc, now)
		report.Checks = append(report.Checks, domain.ComplianceCheck{
			Rule:    r.name,
			Status:  status,
			Message: message,
		})
		switch status {
		case domain.CompliancePassed:
			passed++
		case domain.ComplianceWarning:
			if report.OverallStatus == domain.CompliancePassed {
				report.OverallStatus = domain.ComplianceWarning
			}
		case domain.ComplianceFailed:
			report.OverallStatus = domain.ComplianceFailed
		}
	}
	report.Score = float64(passed) / float64(len(c.rules))
	return report, nil
}

func checkSSN(doc *domain.Document, _ time.Time) (domain.ComplianceStatus, string) {
	if n := len(ssnPattern.FindAllString(doc.ExtractedText, -1)); n > 0 {
		return domain.ComplianceFailed, fmt.Sprintf("found %d SSN-like values", n)
	}
	return domain.CompliancePassed, ""
}

func checkPaymentCard(doc *domain.Document, _ time.Time) (domain.ComplianceStatus, string) {
	if n := len(cardPattern.FindAllString(doc.ExtractedText, -1)); n > 0 {
		return domain.ComplianceFailed, fmt.Sprintf("found %d payment-card-like numbers", n)
	}
	return domain.CompliancePassed, ""
}

func checkContactDetails(doc *domain.Document, _ time.Time) (domain.ComplianceStatus, string) {
	emails := len(emailPattern.FindAllString(doc.ExtractedText, -1))
	phones := len(phonePattern.FindAllString(doc.ExtractedText, -1))
	if emails+phones > 0 {
		return domain.ComplianceWarning, fmt.Sprintf("found %d email(s) and %d phone number(s)", emails, phones)
	}
	return domain.CompliancePassed, ""
}

func checkConfidentialityMarking(doc *domain.Document, _ time.Time) (domain.ComplianceStatus, string) {
	if m := confidentialWords.FindString(doc.ExtractedText); m != "" {
		return domain.ComplianceWarning, fmt.Sprintf("document carries marking %q", m)
	}
	return domain.CompliancePassed, ""
}

func checkRetentionAge(doc *domain.Document, now time.Time) (domain.ComplianceStatus, string) {
	if doc.CreatedAt.IsZero() {
		return domain.ComplianceWarning, "document has no creation timestamp"
	}
	if age := now.Sub(doc.CreatedAt); age > maxDocumentAge {
		return domain.ComplianceFailed, fmt.Sprintf("document exceeds retention period by %s", age-maxDocumentAge)
	}
	return domain.CompliancePassed, ""
}

func checkSizeLimit(doc *domain.Document, _ time.Time) (domain.ComplianceStatus, string) {
	if doc.SizeBytes > maxSizeBytes {
		return domain.ComplianceFailed, fmt.Sprintf("document size %d exceeds limit %d", doc.SizeBytes, maxSizeBytes)
	}
	return domain.CompliancePassed, ""
}
