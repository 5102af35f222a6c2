package directives

import (
	"library/security"

	"github.com/graphql-go/graphql"
)

// Auth оборачивает резолвер проверкой авторизации пользователя
func Auth(next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if _, err := security.ValidateAuthAccess(p.Context); err != nil {
			return nil, err
		}
		return next(p)
	}
}
