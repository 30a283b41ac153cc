package util

import "testing"

func TestRedactPII(t *testing.T) {
	cases := map[string]string{
		"contact ana@example.com":     "contact [redacted-email]",
		"token: abcdef123456":         "token: [redacted]",
		"API_KEY=short":               "API_KEY=short",
		"CAMPAIGN_ID 2024-03-01 live": "CAMPAIGN_ID 2024-03-01 live",
	}
	for in, want := range cases {
		if got := RedactPII(in); got != want {
			t.Fatalf("RedactPII(%q) = %q, want %q", in, got, want)
		}
	}
}
