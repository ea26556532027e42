package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoArmGo/StudioApp/internal/domain"
)

// validate — единый валидатор для всех схем запросов. Имена полей в ответах
// берутся из json-тегов, чтобы клиент видел поля в том виде, как их отправлял.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest проверяет схему запроса один раз на границе и превращает
// нарушения в структурированный список проблем по полям.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	issues := make([]domain.FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, domain.FieldIssue{
			Field:   fe.Field(),
			Message: issueMessage(fe),
		})
	}
	return &domain.ValidationError{Issues: issues}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "email":
		return "некорректный email"
	case "min":
		return "минимальная длина: " + fe.Param()
	default:
		return "не проходит проверку: " + fe.Tag()
	}
}
