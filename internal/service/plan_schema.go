package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"trip-server/internal/model"
)

// schemaDumpLimit ограничивает размер дампа объекта в диагностике,
// чтобы не раздувать логи гигантскими планами.
const schemaDumpLimit = 4096

var planValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidatePlanDocument — единственная граница доверия пайплайна. До нее ничего
// не считается корректным, после — ничего не перепроверяется. Провал любого
// поля отклоняет документ целиком; частичного принятия нет.
func ValidatePlanDocument(doc model.PlanDocument) error {
	err := planValidator.Struct(doc)
	if err == nil {
		return nil
	}

	var issues []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			issues = append(issues, fmt.Sprintf("%s: failed rule '%s'", fe.Namespace(), fe.Tag()))
		}
	} else {
		issues = append(issues, err.Error())
	}

	return &model.SchemaViolationError{
		Issues: issues,
		Dump:   truncatedDump(doc),
	}
}

// truncatedDump сериализует документ для офлайн-разбора инцидента.
func truncatedDump(doc model.PlanDocument) string {
	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	if len(data) > schemaDumpLimit {
		return string(data[:schemaDumpLimit]) + "...(truncated)"
	}
	return string(data)
}
