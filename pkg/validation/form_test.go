// Copyright (C) 2025 NextGen CTO (hello@nextgen-cto.com)
// Tests for waitlist form validation

package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"valid simple", "a@b.com", ""},
		{"valid with plus", "user+tag@example.org", ""},
		{"valid subdomain", "ada@mail.example.co.uk", ""},
		{"empty", "", MsgEmailRequired},
		{"whitespace only", "   ", MsgEmailRequired},
		{"no at sign", "not-an-email", MsgEmailInvalid},
		{"no domain", "user@", MsgEmailInvalid},
		{"no local part", "@example.com", MsgEmailInvalid},
		{"spaces inside", "a b@c.com", MsgEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateEmail(tt.email); got != tt.want {
				t.Errorf("ValidateEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	if got := ValidateName(""); got != "" {
		t.Errorf("empty name should be valid, got %q", got)
	}
	if got := ValidateName("Ada Lovelace"); got != "" {
		t.Errorf("normal name should be valid, got %q", got)
	}
	long := strings.Repeat("a", MaxNameLength+1)
	if got := ValidateName(long); got != MsgNameTooLong {
		t.Errorf("over-long name should fail, got %q", got)
	}
	exact := strings.Repeat("a", MaxNameLength)
	if got := ValidateName(exact); got != "" {
		t.Errorf("name at the limit should be valid, got %q", got)
	}
}

func TestSanitizeFreeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ada  ", "Ada"},
		{"<script>Ada</script>", "scriptAda/script"},
		{"Ada <3", "Ada 3"},
		{"", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := SanitizeFreeText(tt.in); got != tt.want {
			t.Errorf("SanitizeFreeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@B.com "); got != "Ada@B.com" {
		t.Errorf("NormalizeEmail should trim only, got %q", got)
	}
}
