// Package taxid validates Spanish tax identifiers (NIF, NIE and CIF).
package taxid

import (
	"errors"
	"strings"
)

// Kind is the family of a tax identifier.
type Kind string

const (
	KindNIF Kind = "NIF" // natural persons
	KindNIE Kind = "NIE" // foreign residents
	KindCIF Kind = "CIF" // legal entities
)

// ErrInvalid is returned for identifiers that fail format or checksum validation.
var ErrInvalid = errors.New("invalid tax identifier")

const (
	nifLetters = "TRWAGMYFPDXBNJZSQVHLCKE"
	cifLetters = "JABCDEFGHI"
	cifTypes   = "ABCDEFGHJNPQRSUVW"
)

// Normalize uppercases id and strips separators and an optional ES country prefix.
func Normalize(id string) string {
	id = strings.ToUpper(id)
	id = strings.NewReplacer(" ", "", "-", "", ".", "").Replace(id)
	if len(id) == 11 && strings.HasPrefix(id, "ES") {
		id = id[2:]
	}
	return id
}

// Classify validates id and returns its kind.
func Classify(id string) (Kind, error) {
	id = Normalize(id)
	if len(id) != 9 {
		return "", ErrInvalid
	}
	switch first := id[0]; {
	case isDigit(first):
		return KindNIF, checkNIF(id[:8], id[8])
	case first == 'X' || first == 'Y' || first == 'Z':
		prefix := string(rune('0' + strings.IndexByte("XYZ", first)))
		return KindNIE, checkNIF(prefix+id[1:8], id[8])
	case strings.IndexByte(cifTypes, first) >= 0:
		return KindCIF, checkCIF(id)
	}
	return "", ErrInvalid
}

// Validate reports whether id is a well-formed identifier with a correct control character.
func Validate(id string) error {
	_, err := Classify(id)
	return err
}

func checkNIF(digits string, control byte) error {
	n := 0
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return ErrInvalid
		}
		n = n*10 + int(digits[i]-'0')
	}
	if nifLetters[n%23] != control {
		return ErrInvalid
	}
	return nil
}

func checkCIF(id string) error {
	body := id[1:8]
	sum := 0
	for i := 0; i < len(body); i++ {
		if !isDigit(body[i]) {
			return ErrInvalid
		}
		d := int(body[i] - '0')
		if i%2 == 0 {
			d *= 2
			d = d/10 + d%10
		}
		sum += d
	}
	digit := (10 - sum%10) % 10
	control := id[8]

	switch id[0] {
	case 'P', 'Q', 'R', 'S', 'N', 'W':
		if control == cifLetters[digit] {
			return nil
		}
	case 'A', 'B', 'E', 'H':
		if control == byte('0'+digit) {
			return nil
		}
	default:
		if control == cifLetters[digit] || control == byte('0'+digit) {
			return nil
		}
	}
	return ErrInvalid
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
