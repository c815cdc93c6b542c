package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reLocalEcoCash         = regexp.MustCompile(`^07[0-9]{8}$`)
	reInternationalEcoCash = regexp.MustCompile(`^2637[0-9]{8}$`)
)

// NormalizeMsisdn strips spaces, dashes and a single leading '+'.
func NormalizeMsisdn(input string) string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimPrefix(s, "+")
	return s
}

// ToLocalMsisdn accepts 07XXXXXXXX, 2637XXXXXXXX and +2637XXXXXXXX and
// returns the 07XXXXXXXX form Paynow expects for EcoCash.
func ToLocalMsisdn(input string) (string, error) {
	s := NormalizeMsisdn(input)
	if s == "" {
		return "", fmt.Errorf("msisdn is required")
	}
	switch {
	case reLocalEcoCash.MatchString(s):
		return s, nil
	case reInternationalEcoCash.MatchString(s):
		return "0" + strings.TrimPrefix(s, "263"), nil
	}
	return "", fmt.Errorf("msisdn %q is not a Zimbabwean mobile number", input)
}

func IsValidMsisdn(input string) bool {
	_, err := ToLocalMsisdn(input)
	return err == nil
}
