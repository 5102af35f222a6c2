// Package graph assembles the executable GraphQL schema of the library catalog.
package graph

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"library/graph/directives"
	"library/graph/resolvers"

	"github.com/graphql-go/graphql"
	"github.com/hashicorp/go-multierror"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// SDL is the wire contract. The executable schema must match it exactly.
//
//go:embed schema/library.graphql
var SDL string

// NewSchema builds the executable schema over r and checks it against SDL
func NewSchema(r *resolvers.Resolver) (graphql.Schema, error) {
	authorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"born": &graphql.Field{Type: graphql.Int},
			"bookCount": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: r.Author().BookCount,
			},
			"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	bookType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"published": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"author":    &graphql.Field{Type: graphql.NewNonNull(authorType)},
			"genres":    &graphql.Field{Type: nonNullList(graphql.String)},
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"username":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"favoriteGenre": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		},
	})

	tokenType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Token",
		Fields: graphql.Fields{
			"value": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	query := r.Query()
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"bookCount":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: query.BookCount},
			"authorCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int), Resolve: query.AuthorCount},
			"allBooks": &graphql.Field{
				Type: nonNullList(bookType),
				Args: graphql.FieldConfigArgument{
					"author": &graphql.ArgumentConfig{Type: graphql.String},
					"genre":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: query.AllBooks,
			},
			"allAuthors": &graphql.Field{Type: nonNullList(authorType), Resolve: query.AllAuthors},
			"me":         &graphql.Field{Type: userType, Resolve: query.Me},
		},
	})

	mutation := r.Mutation()
	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addBook": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"title":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"author":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"published": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"genres":    &graphql.ArgumentConfig{Type: nonNullList(graphql.String)},
				},
				Resolve: directives.Auth(mutation.AddBook),
			},
			"editAuthor": &graphql.Field{
				Type: authorType,
				Args: graphql.FieldConfigArgument{
					"name":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"setBornTo": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: directives.Auth(mutation.EditAuthor),
			},
			"createUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"username":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"favoriteGenre": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: mutation.CreateUser,
			},
			"login": &graphql.Field{
				Type: tokenType,
				Args: graphql.FieldConfigArgument{
					"username": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: mutation.Login,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to build schema: %w", err)
	}

	if err := CheckContract(schema); err != nil {
		return graphql.Schema{}, err
	}
	return schema, nil
}

// nonNullList builds [T!]!
func nonNullList(t graphql.Type) graphql.Type {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

// LoadSDL parses and validates the contract with gqlparser
func LoadSDL() (*ast.Schema, error) {
	contract, gqlErr := gqlparser.LoadSchema(&ast.Source{Name: "library.graphql", Input: SDL})
	if gqlErr != nil {
		return nil, fmt.Errorf("invalid schema contract: %w", gqlErr)
	}
	return contract, nil
}

// CheckContract reports every field, argument or type of the contract that
// the executable schema does not reproduce exactly.
func CheckContract(schema graphql.Schema) error {
	contract, err := LoadSDL()
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, name := range sortedObjectNames(contract) {
		def := contract.Types[name]
		obj, ok := schema.Type(name).(*graphql.Object)
		if !ok {
			result = multierror.Append(result, fmt.Errorf("type %s is missing", name))
			continue
		}

		fields := obj.Fields()
		for _, want := range def.Fields {
			// gqlparser добавляет в Query __schema и __type, у graphql-go их нет в Fields()
			if isIntrospection(want.Name) {
				continue
			}
			got, ok := fields[want.Name]
			if !ok {
				result = multierror.Append(result, fmt.Errorf("%s.%s is missing", name, want.Name))
				continue
			}
			if got.Type.String() != want.Type.String() {
				result = multierror.Append(result, fmt.Errorf("%s.%s has type %s, want %s",
					name, want.Name, got.Type.String(), want.Type.String()))
			}
			result = multierror.Append(result, compareArgs(name+"."+want.Name, want.Arguments, got.Args)...)
		}
		for fieldName := range fields {
			if !isIntrospection(fieldName) && def.Fields.ForName(fieldName) == nil {
				result = multierror.Append(result, fmt.Errorf("%s.%s is not in the contract", name, fieldName))
			}
		}
	}

	return result.ErrorOrNil()
}

func isIntrospection(name string) bool {
	return strings.HasPrefix(name, "__")
}

func compareArgs(path string, want ast.ArgumentDefinitionList, got []*graphql.Argument) []error {
	var errs []error
	gotByName := make(map[string]*graphql.Argument, len(got))
	for _, arg := range got {
		gotByName[arg.Name()] = arg
	}

	for _, arg := range want {
		g, ok := gotByName[arg.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("%s(%s) is missing", path, arg.Name))
			continue
		}
		if g.Type.String() != arg.Type.String() {
			errs = append(errs, fmt.Errorf("%s(%s) has type %s, want %s", path, arg.Name, g.Type.String(), arg.Type.String()))
		}
		delete(gotByName, arg.Name)
	}
	for name := range gotByName {
		errs = append(errs, fmt.Errorf("%s(%s) is not in the contract", path, name))
	}
	return errs
}

// sortedObjectNames lists object types declared in the contract, builtins excluded
func sortedObjectNames(contract *ast.Schema) []string {
	var names []string
	for name, def := range contract.Types {
		if def.Kind == ast.Object && !def.BuiltIn {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
