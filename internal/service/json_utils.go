package service

import (
	"encoding/json"
	"strings"

	"trip-server/internal/model"
)

// FixJSON проверяет и исправляет потенциально некорректный JSON.
// В частности, решает проблему незакрытых скобок в конце усеченного ответа модели.
func FixJSON(jsonStr string) string {
	if jsonStr == "" {
		return jsonStr
	}

	// Стек незакрытых скобок; скобки внутри строковых литералов не считаем
	var stack []rune
	inString := false
	escaped := false

	for _, char := range jsonStr {
		if char == '"' && !escaped {
			inString = !inString
		}

		if !inString {
			switch char {
			case '{', '[':
				stack = append(stack, char)
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
		}

		// Отслеживаем экранирование для корректного определения строк
		if char == '\\' && !escaped {
			escaped = true
		} else {
			escaped = false
		}
	}

	fixedJSON := jsonStr

	// Усеченный строковый литерал закрываем перед добавлением скобок
	if inString {
		fixedJSON += `"`
	}

	// Висящая запятая в конце сломает парсинг даже с дозакрытыми скобками
	trimmed := strings.TrimRight(fixedJSON, " \t\n\r")
	if strings.HasSuffix(trimmed, ",") {
		fixedJSON = strings.TrimSuffix(trimmed, ",")
	}

	// Дозакрываем в обратном порядке открытия
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			fixedJSON += "}"
		} else {
			fixedJSON += "]"
		}
	}

	return fixedJSON
}

// ExtractJSONObject вырезает внешний JSON-объект из ответа, вокруг которого
// модель могла добавить markdown-ограждение или пояснительный текст.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(raw, "}")
	if end > start {
		return raw[start : end+1]
	}
	// Закрывающей скобки нет — берем хвост как есть, FixJSON дозакроет
	return raw[start:]
}

// RepairModelOutput превращает сырой текст ответа модели в generic-дерево.
// Сначала строгий парсинг; при неудаче — восстановление структуры из
// усеченного/слегка поврежденного текста. Второй попытки ремонта нет:
// если и после ремонта объект не получился, возвращаем ErrEmptyModelOutput.
func RepairModelOutput(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, model.ErrEmptyModelOutput
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		// Текст синтаксически валиден: скаляр или массив на верхнем уровне —
		// фатальная ошибка, повторного ремонта не делаем
		tree, ok := parsed.(map[string]interface{})
		if !ok {
			return nil, model.ErrEmptyModelOutput
		}
		return aliasDestinations(tree), nil
	}

	candidate := ExtractJSONObject(raw)
	if candidate == "" {
		return nil, model.ErrEmptyModelOutput
	}

	var tree map[string]interface{}
	if err := json.Unmarshal([]byte(FixJSON(candidate)), &tree); err != nil {
		return nil, model.ErrEmptyModelOutput
	}

	return aliasDestinations(tree), nil
}

// aliasDestinations — узкий шим совместимости: если модель назвала массив
// направлений "options" вместо "destinations", переносим его под ожидаемый ключ.
// Общего правила переименования ключей нет.
func aliasDestinations(tree map[string]interface{}) map[string]interface{} {
	if tree == nil {
		return tree
	}
	if _, ok := tree["destinations"]; ok {
		return tree
	}
	if options, ok := tree["options"].([]interface{}); ok {
		tree["destinations"] = options
	}
	return tree
}
