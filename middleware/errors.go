package middleware

import (
	"encoding/json"
	"net/http"

	"library/utils"

	"go.uber.org/zap"
)

// WriteGraphQLError пишет ответ в формате GraphQL с одной ошибкой
func WriteGraphQLError(w http.ResponseWriter, status int, message, code string) {
	body := map[string]interface{}{
		"errors": []map[string]interface{}{
			{
				"message":    message,
				"extensions": map[string]interface{}{"code": code},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.Logger.Warn("Failed to write error response", zap.Error(err))
	}
}
