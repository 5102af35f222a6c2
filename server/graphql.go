package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"library/middleware"
	"library/utils"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"
)

// maxBodySize ограничивает тело POST запроса
const maxBodySize = 1 << 20

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLHandler serves GraphQL over GET and POST.
// GET only runs queries; mutations must be sent with POST.
type GraphQLHandler struct {
	schema graphql.Schema
}

func NewGraphQLHandler(schema graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req graphQLRequest
	switch r.Method {
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if vars := r.URL.Query().Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				badRequest(w, r, "error.request.invalid_body")
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
			badRequest(w, r, "error.request.invalid_body")
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		middleware.WriteGraphQLError(w, http.StatusMethodNotAllowed,
			utils.T(ctx, "error.request.method_not_allowed"), "METHOD_NOT_ALLOWED")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		badRequest(w, r, "error.request.missing_query")
		return
	}

	operation := operationType(req.Query, req.OperationName)
	if r.Method == http.MethodGet && operation == ast.Mutation {
		w.Header().Set("Allow", "POST")
		middleware.WriteGraphQLError(w, http.StatusMethodNotAllowed,
			utils.T(ctx, "error.request.method_not_allowed"), "METHOD_NOT_ALLOWED")
		return
	}

	start := time.Now()
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	utils.Logger.Info("GraphQL operation",
		zap.String("operation_name", req.OperationName),
		zap.String("operation_type", string(operation)),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, result)
}

// operationType определяет тип операции до выполнения. Для документа с
// синтаксической ошибкой возвращает пустую строку, ошибку вернет исполнитель.
func operationType(query, operationName string) ast.Operation {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil || len(doc.Operations) == 0 {
		return ""
	}
	if operationName == "" {
		return doc.Operations[0].Operation
	}
	if op := doc.Operations.ForName(operationName); op != nil {
		return op.Operation
	}
	return ""
}

func badRequest(w http.ResponseWriter, r *http.Request, messageID string) {
	middleware.WriteGraphQLError(w, http.StatusBadRequest, utils.T(r.Context(), messageID), "BAD_REQUEST")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Logger.Warn("Failed to write response", zap.Error(err))
	}
}
