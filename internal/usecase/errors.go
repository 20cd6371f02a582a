package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindBusinessRule ErrorKind = "business_rule"
	KindProvider     ErrorKind = "provider"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
)

// usecaseが返すエラー。handlerでKindからHTTPステータスに変換する
type AppError struct {
	Kind    ErrorKind
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fieldsはフィールド名→メッセージ
func NewValidationError(message string, fields map[string]string) error {
	e := &AppError{Kind: KindValidation, Message: message}
	if len(fields) > 0 {
		e.Details = fields
	}
	return e
}

func NewNotFoundError(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewBusinessRuleError(message string, details any) error {
	return &AppError{Kind: KindBusinessRule, Message: message, Details: details}
}

// 外部サービス（DB・決済・ストレージ）の失敗
func NewProviderError(message string, err error) error {
	return &AppError{Kind: KindProvider, Message: message, Err: err}
}

func NewUnauthorizedError() error {
	return &AppError{Kind: KindUnauthorized, Message: "unauthorized"}
}

func NewForbiddenError(message string) error {
	return &AppError{Kind: KindForbidden, Message: message}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func IsKind(err error, kind ErrorKind) bool {
	ae, ok := AsAppError(err)
	return ok && ae.Kind == kind
}

func dbError(err error) error {
	return NewProviderError("db error", err)
}
