package entity

import (
	"errors"
	"fmt"
)

// ErrorKind классифицирует ошибки анализа.
type ErrorKind string

const (
	KindInvalidImage        ErrorKind = "invalid_image"
	KindSegmentationFailure ErrorKind = "segmentation_failure"
	KindTextureUnavailable  ErrorKind = "texture_backend_unavailable"
	KindStageFailure        ErrorKind = "stage_computation_failure"
	KindUnknownPlant        ErrorKind = "unknown_plant"
	KindReportNotFound      ErrorKind = "report_not_found"
)

// AnalysisError структурированная ошибка конвейера.
type AnalysisError struct {
	Kind  ErrorKind // категория ошибки
	Stage string    // этап, на котором возникла ошибка
	Err   error     // исходная причина
}

// Сентинелы для errors.Is: сравниваются только по Kind.
var (
	ErrInvalidImage        = &AnalysisError{Kind: KindInvalidImage}
	ErrSegmentationFailure = &AnalysisError{Kind: KindSegmentationFailure}
	ErrTextureUnavailable  = &AnalysisError{Kind: KindTextureUnavailable}
	ErrStageFailure        = &AnalysisError{Kind: KindStageFailure}
	ErrUnknownPlant        = &AnalysisError{Kind: KindUnknownPlant}
	ErrReportNotFound      = &AnalysisError{Kind: KindReportNotFound}
)

func (e *AnalysisError) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Stage)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибки по Kind.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewInvalidImage возвращает ошибку некорректного изображения.
func NewInvalidImage(format string, args ...any) *AnalysisError {
	return &AnalysisError{Kind: KindInvalidImage, Err: fmt.Errorf(format, args...)}
}

// NewStageFailure оборачивает сбой вычислений на этапе stage.
func NewStageFailure(stage string, err error) *AnalysisError {
	return &AnalysisError{Kind: KindStageFailure, Stage: stage, Err: err}
}

// NewSegmentationFailure описывает причину отказа сегментации.
func NewSegmentationFailure(reason string) *AnalysisError {
	return &AnalysisError{Kind: KindSegmentationFailure, Stage: StepGrabCut, Err: errors.New(reason)}
}

// NewUnknownPlant сообщает, что растение не найдено в справочнике.
func NewUnknownPlant(query string) *AnalysisError {
	return &AnalysisError{Kind: KindUnknownPlant, Err: fmt.Errorf("plant %q is not in the knowledge base", query)}
}

// NewReportNotFound сообщает, что отчёт отсутствует в архиве.
func NewReportNotFound(id string) *AnalysisError {
	return &AnalysisError{Kind: KindReportNotFound, Err: fmt.Errorf("report %q not found", id)}
}

// KindOf извлекает Kind из цепочки ошибок; пустая строка, если это не AnalysisError.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
