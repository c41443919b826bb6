package rtoml

import (
	"errors"
	"math"
	"strconv"
)

// The grammar engine only delimits numbers; the checks below enforce the
// rest of the TOML number grammar.

func parseInteger(b []byte) (int64, error) {
	if len(b) >= 2 && b[0] == '0' {
		switch b[1] {
		case 'x':
			return parseIntBase(b, 16, "hexadecimal")
		case 'o':
			return parseIntBase(b, 8, "octal")
		case 'b':
			return parseIntBase(b, 2, "binary")
		}
	}
	return parseIntDec(b)
}

func parseIntBase(b []byte, base int, name string) (int64, error) {
	if len(b) == 2 {
		return 0, errors.New(name + " integer has no digits")
	}
	cleaned, err := removeIntUnderscores(b[2:])
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(string(cleaned), base, 64)
	if err != nil {
		return 0, numberError("invalid "+name+" integer", err)
	}
	return i, nil
}

func parseIntDec(b []byte) (int64, error) {
	cleaned, err := removeIntUnderscores(b)
	if err != nil {
		return 0, err
	}
	start := 0
	if len(cleaned) > 0 && isSign(cleaned[0]) {
		start++
	}
	if len(cleaned) > start+1 && cleaned[start] == '0' {
		return 0, errors.New("leading zeros are not allowed in decimal integers")
	}
	i, err := strconv.ParseInt(string(cleaned), 10, 64)
	if err != nil {
		return 0, numberError("invalid integer", err)
	}
	return i, nil
}

func parseFloat(b []byte) (float64, error) {
	switch string(b) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan", "+nan":
		return math.NaN(), nil
	case "-nan":
		return math.Copysign(math.NaN(), -1), nil
	}

	cleaned, err := removeFloatUnderscores(b)
	if err != nil {
		return 0, err
	}
	if cleaned[0] == '.' {
		return 0, errors.New("float cannot start with a dot")
	}
	if cleaned[len(cleaned)-1] == '.' {
		return 0, errors.New("float cannot end with a dot")
	}

	seenDot := false
	for i, c := range cleaned {
		if c != '.' {
			continue
		}
		if seenDot {
			return 0, errors.New("float can have at most one decimal point")
		}
		if !isDigit(cleaned[i-1]) || !isDigit(cleaned[i+1]) {
			return 0, errors.New("decimal point must be surrounded by digits")
		}
		seenDot = true
	}

	start := 0
	if isSign(cleaned[0]) {
		start = 1
	}
	if len(cleaned) > start+1 && cleaned[start] == '0' && isDigit(cleaned[start+1]) {
		return 0, errors.New("leading zeros are not allowed in floats")
	}

	f, err := strconv.ParseFloat(string(cleaned), 64)
	if err != nil {
		return 0, numberError("invalid float", err)
	}
	return f, nil
}

func removeIntUnderscores(b []byte) ([]byte, error) {
	start := 0
	if len(b) > 0 && isSign(b[0]) {
		start++
	}
	if len(b) == start {
		return b, nil
	}
	if b[start] == '_' {
		return nil, errors.New("number cannot start with an underscore")
	}
	if b[len(b)-1] == '_' {
		return nil, errors.New("number cannot end with an underscore")
	}

	cleaned := make([]byte, 0, len(b))
	prevDigit := false
	for _, c := range b {
		if c == '_' {
			if !prevDigit {
				return nil, errors.New("underscores must be surrounded by digits")
			}
			prevDigit = false
			continue
		}
		prevDigit = true
		cleaned = append(cleaned, c)
	}
	return cleaned, nil
}

func removeFloatUnderscores(b []byte) ([]byte, error) {
	if b[0] == '_' {
		return nil, errors.New("number cannot start with an underscore")
	}
	if b[len(b)-1] == '_' {
		return nil, errors.New("number cannot end with an underscore")
	}

	cleaned := make([]byte, 0, len(b))
	prevDigit := false
	for i, c := range b {
		switch {
		case c == '_':
			if !prevDigit || i+1 >= len(b) || !isDigit(b[i+1]) {
				return nil, errors.New("underscores must be surrounded by digits")
			}
			prevDigit = false
		case isDigit(c):
			prevDigit = true
			cleaned = append(cleaned, c)
		default:
			prevDigit = false
			cleaned = append(cleaned, c)
		}
	}
	return cleaned, nil
}

// numberError keeps the strconv reason ("value out of range", "invalid
// syntax") without repeating the quoted input.
func numberError(msg string, err error) error {
	var nerr *strconv.NumError
	if errors.As(err, &nerr) {
		return errors.New(msg + ": " + nerr.Err.Error())
	}
	return errors.New(msg)
}

func isSign(c byte) bool { return c == '+' || c == '-' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
