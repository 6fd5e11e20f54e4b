package keygen

import (
	"crypto/rand"
	"math/big"
)

// keyAlphabet covers the full alphanumeric range: keys end up in URLs where
// they are copied, not typed.
const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// codeAlphabet drops lookalike characters (I, O, 0, 1, L): admin codes get
// read aloud and typed by hand.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	keyLength  = 6
	codeLength = 8
)

// SurveyKey returns a short random identifier for respondent-facing URLs.
func SurveyKey() (string, error) {
	return randomString(keyAlphabet, keyLength)
}

// AdminCode returns a secret credential in XXXX-XXXX format.
func AdminCode() (string, error) {
	code, err := randomString(codeAlphabet, codeLength)
	if err != nil {
		return "", err
	}
	return code[:4] + "-" + code[4:], nil
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))

	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
