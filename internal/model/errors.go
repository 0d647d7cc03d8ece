package model

import "errors"

// Стандартные ошибки приложения
var (
	// Общие ошибки запросов/ресурсов
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input data")

	// Ошибки пайплайна генерации плана
	ErrGenerationFailed = errors.New("trip plan generation failed")
	ErrEmptyModelOutput = errors.New("model output is empty or not a JSON object")
	ErrSchemaViolation  = errors.New("model output violates plan schema")

	// Ошибки персистентности
	ErrPersistence = errors.New("failed to persist trip plan")
)

// Коды ошибок для тела HTTP-ответа
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeGenerationFailed = "GENERATION_FAILURE"
	ErrCodeEmptyModelOutput = "EMPTY_OR_INVALID_MODEL_OUTPUT"
	ErrCodeSchemaViolation  = "MODEL_OUTPUT_SCHEMA_VIOLATION"
	ErrCodePersistence      = "PERSISTENCE_FAILURE"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse — стандартное тело ошибки API.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody содержит машинный код и человекочитаемое сообщение.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SchemaViolationError оборачивает ErrSchemaViolation и несет список
// замечаний валидатора плюс усеченный дамп объекта для диагностики.
type SchemaViolationError struct {
	Issues []string
	Dump   string
}

func (e *SchemaViolationError) Error() string {
	return ErrSchemaViolation.Error()
}

// Unwrap позволяет errors.Is(err, ErrSchemaViolation) работать для обертки.
func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}
