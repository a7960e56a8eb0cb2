package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"unicode"

	"modernc.org/sqlite"
)

func init() {
	// alnum() backs the search relevance ranking
	if err := sqlite.RegisterDeterministicScalarFunction("alnum", 1, alnumFunc); err != nil {
		panic(fmt.Sprintf("register alnum: %v", err))
	}
}

func alnumFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return Alnum(v), nil
	case []byte:
		return Alnum(string(v)), nil
	default:
		return Alnum(fmt.Sprint(v)), nil
	}
}

// Alnum strips everything except letters, digits and spaces
func Alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			return r
		}
		return -1
	}, s)
}
