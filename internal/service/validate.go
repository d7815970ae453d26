package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误中的字段名使用 json 标签，与请求体一致
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var fieldLabels = map[string]string{
	"name":       "姓名",
	"email":      "邮箱",
	"phone":      "电话",
	"department": "部门",
	"notes":      "备注",
}

// normalizePerson 去除各字段首尾空格
func normalizePerson(req *dto.PersonRequest) dto.PersonRequest {
	return dto.PersonRequest{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Department: strings.TrimSpace(req.Department),
		Notes:      strings.TrimSpace(req.Notes),
	}
}

// validatePerson 按 name、email、phone、department、notes 顺序校验，返回首个不合法字段
func validatePerson(req *dto.PersonRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return pkgerrors.NewValidationError("", err.Error())
	}

	fe := verrs[0]
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s不能为空", label)
	case "min":
		msg = fmt.Sprintf("%s至少 %s 个字符", label, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s不能超过 %s 个字符", label, fe.Param())
	case "email":
		msg = fmt.Sprintf("%s格式不正确", label)
	default:
		msg = fmt.Sprintf("%s不合法", label)
	}
	return pkgerrors.NewValidationError(fe.Field(), msg)
}

// optional 空字符串存为 NULL
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
