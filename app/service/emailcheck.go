package service

import (
	"regexp"
	"strings"
)

var emailShape = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// EmailPolicy screens registration addresses against provider lists. The lists
// are static process-level data, not a security boundary.
type EmailPolicy struct {
	TrustedProviders    []string
	DisposableProviders []string
}

type EmailValidationResult struct {
	Valid       bool
	Reason      string
	NeedsReview bool
}

func DefaultEmailPolicy() *EmailPolicy {
	return &EmailPolicy{
		TrustedProviders: []string{
			"gmail.com", "yahoo.com", "outlook.com", "hotmail.com", "icloud.com", "aol.com",
			"protonmail.com", "zoho.com", "mail.com", "gmx.com", "yandex.com", "live.com",
			"msn.com", "me.com", "mac.com", "fastmail.com", "tutanota.com", "hey.com",
		},
		DisposableProviders: []string{
			"10minutemail.com", "tempmail.org", "guerrillamail.com", "mailinator.com",
			"throwaway.email", "temp-mail.org", "sharklasers.com", "guerrillamailblock.com",
			"pokemail.net", "spam4.me", "bccto.me", "chacuo.net", "dispostable.com",
			"fakeinbox.com", "fakeinbox.net", "getairmail.com", "getnada.com", "inbox.si",
			"mailnesia.com", "mintemail.com", "mohmal.com", "nwytg.net",
			"spamspot.com", "spam.la", "tempr.email", "tmpeml.com", "trashmail.com",
			"yopmail.com", "yopmail.net", "yopmail.org", "cool.fr.nf", "jetable.fr.nf",
			"nospam.ze.tc", "nomail.xl.cx", "mega.zik.dj", "speed.1s.fr", "courriel.fr.nf",
			"moncourrier.fr.nf", "monemail.fr.nf", "monmail.fr.nf", "test.com", "example.com",
			"test.org", "example.org", "test.net", "example.net", "sss.com", "aaa.com",
			"fake.com", "fake.org", "fake.net", "temp.com", "temp.org", "temp.net",
		},
	}
}

// Validate applies the rules in order: shape, deny-list, allow-list. Domains
// on neither list are accepted but flagged for review.
func (p *EmailPolicy) Validate(email string) EmailValidationResult {
	if strings.TrimSpace(email) == "" {
		return EmailValidationResult{Valid: false, Reason: "email is required"}
	}

	if !emailShape.MatchString(email) {
		return EmailValidationResult{Valid: false, Reason: "invalid email format"}
	}

	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])

	for _, disposable := range p.DisposableProviders {
		if strings.Contains(domain, disposable) {
			return EmailValidationResult{Valid: false, Reason: "temporary or disposable email addresses are not allowed"}
		}
	}

	for _, trusted := range p.TrustedProviders {
		if strings.HasSuffix(domain, trusted) {
			return EmailValidationResult{Valid: true, Reason: "valid email"}
		}
	}

	return EmailValidationResult{Valid: true, Reason: "email accepted but domain may need review", NeedsReview: true}
}
