package middleware

import (
	"net/http"

	"library/ctxkeys"

	"golang.org/x/text/language"
)

// LanguageMiddleware берет предпочитаемый язык из Accept-Language
func LanguageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		if err != nil || len(tags) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		base, _ := tags[0].Base()
		ctx := ctxkeys.WithLanguage(r.Context(), base.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
