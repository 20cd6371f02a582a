package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// 簡易メール形式（厳密なRFCチェックはしない）
var looseEmailRe = regexp.MustCompile(`\S+@\S+\.\S+`)

// 入力チェック。エラーキーはjsonタグ名
type Validator struct {
	v *playground.Validate
}

func New() *Validator {
	v := playground.New(playground.WithRequiredStructEnabled())

	// エラーのフィールド名をjsonタグに合わせる
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("loose_email", func(fl playground.FieldLevel) bool {
		return IsEmailLike(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl playground.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

func IsEmailLike(s string) bool {
	return looseEmailRe.MatchString(s)
}

// Fields は不正なフィールド名→メッセージを返す。問題なければ空map
func (x *Validator) Fields(s any) map[string]string {
	out := map[string]string{}
	err := x.v.Struct(s)
	if err == nil {
		return out
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		key := fe.Field()
		if _, ok := out[key]; ok {
			continue
		}
		out[key] = message(fe)
	}
	return out
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "loose_email":
		return "invalid email"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
