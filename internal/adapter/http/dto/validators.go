package dto

import (
	"math/big"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	hexBytesRe = regexp.MustCompile(`^0x([0-9a-fA-F]{2})*$`)
	uint256Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hexbytes", validateHexBytes)
		_ = v.RegisterValidation("uint256", validateUint256)
	}
}

// validateHexBytes accepts 0x-prefixed, even-length hex.
func validateHexBytes(fl validator.FieldLevel) bool {
	return hexBytesRe.MatchString(fl.Field().String())
}

// validateUint256 accepts a base-10 integer in [0, 2^256).
func validateUint256(fl validator.FieldLevel) bool {
	v, ok := ParseUint256(fl.Field().String())
	return ok && v != nil
}

// ParseUint256 parses a decimal amount. An empty string is zero.
func ParseUint256(s string) (*big.Int, bool) {
	if s == "" {
		return new(big.Int), true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Cmp(uint256Max) > 0 {
		return nil, false
	}
	return v, true
}

// SanitizeStruct trims surrounding whitespace from every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Struct:
			sanitizeFields(f)
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				s := sanitize(elem.String())
				elem.SetString(s)
			}
		}
	}
}

// Markup is stored as sent; clients escape on output.
func sanitize(s string) string {
	return strings.TrimSpace(s)
}
