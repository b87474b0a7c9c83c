package utils

import "strings"

// NormalizeMpesaPhone converts 07XXXXXXXX / +2547XXXXXXXX forms to 2547XXXXXXXX.
func NormalizeMpesaPhone(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	return p
}
