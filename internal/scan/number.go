package scan

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jcorbin/cellforth/internal/cell"
)

// ParseError reports a token that is not a number in the given base.
type ParseError struct {
	Token string
	Base  int
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("%q is not a number in base %v", pe.Token, pe.Base)
}

// ParseNumber parses token in base, trying successively wider
// representations: Int, then Long, then BigInt; in base 10 only, a token that
// is not an integer is then tried as a Decimal.
func ParseNumber(token string, base int) (cell.Cell, error) {
	if base < 2 || base > 36 || token == "" {
		return nil, &ParseError{token, base}
	}

	n, err := strconv.ParseInt(token, base, 32)
	if err == nil {
		return cell.Int(n), nil
	}

	if isRangeError(err) {
		if n, err = strconv.ParseInt(token, base, 64); err == nil {
			return cell.Long(n), nil
		}
	}

	if isRangeError(err) {
		if b, ok := new(big.Int).SetString(token, base); ok {
			return cell.NewBigInt(b), nil
		}
	}

	if base != 10 {
		return nil, &ParseError{token, base}
	}

	d, err := decimal.NewFromString(token)
	if err != nil {
		return nil, &ParseError{token, base}
	}
	return cell.NewDecimal(d), nil
}

func isRangeError(err error) bool {
	return errors.Is(err, strconv.ErrRange)
}
