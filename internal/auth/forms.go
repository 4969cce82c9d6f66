package auth

import (
	"errors"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type signupForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=10,hasletter,hasdigit"`
}

// FieldErrors はフォーム項目ごとのエラーメッセージです。
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

var registerOnce sync.Once

// registerValidators は gin のバリデーターに独自ルールを追加します。
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("hasletter", func(fl validator.FieldLevel) bool {
			return strings.IndexFunc(fl.Field().String(), isASCIILetter) >= 0
		})
		_ = v.RegisterValidation("hasdigit", func(fl validator.FieldLevel) bool {
			return strings.IndexFunc(fl.Field().String(), isASCIIDigit) >= 0
		})
	})
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// fieldErrorsFrom はバインドエラーを画面表示用のメッセージに変換します。
func fieldErrorsFrom(err error) FieldErrors {
	errs := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("form", "Invalid form submission")
		return errs
	}
	for _, fe := range verrs {
		errs.add(strings.ToLower(fe.Field()), messageFor(fe))
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "hasletter":
		return "Must contain at least one letter"
	case "hasdigit":
		return "Must contain at least one number"
	default:
		return "Invalid value"
	}
}
