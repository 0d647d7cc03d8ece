package utils

import (
	"fmt"
	"os"
	"strings"
)

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
// Если файла нет, берет значение из переменной окружения с тем же именем
// в верхнем регистре (удобно для локального запуска без Docker).
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	if envValue := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName))); envValue != "" {
		return envValue, nil
	}
	return "", fmt.Errorf("failed to read secret %s: no file at %s and env %s is empty",
		secretName, filePath, strings.ToUpper(secretName))
}
