// Package i18n holds the admin's message catalog and picks a language per
// request from the Accept-Language header.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. English text doubles as the key.
const (
	MsgNull           = "Null"
	MsgOtherFields    = "Other Fields"
	MsgDetailTitle    = "%s Detail"
	MsgObjectNotFound = "%s object with primary key %q does not exist."
	MsgYes            = "Yes"
	MsgNo             = "No"
	MsgUnknown        = "Unknown"
	MsgNotFound       = "Page not found"
	MsgForbidden      = "Permission denied"
	MsgUnauthorized   = "Authentication required"
	MsgServerError    = "Server error"
	MsgUnknownModel   = "No admin registered for %s."
	MsgLoginRequired  = "Your session is missing or has expired."
)

// Supported lists the catalog languages; the first is the fallback.
var Supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
}

var matcher = language.NewMatcher(Supported)

var translations = map[language.Tag]map[string]string{
	language.Spanish: {
		MsgNull:           "Nulo",
		MsgOtherFields:    "Otros campos",
		MsgDetailTitle:    "Detalle de %s",
		MsgObjectNotFound: "El objeto %s con clave primaria %q no existe.",
		MsgYes:            "Sí",
		MsgNo:             "No",
		MsgUnknown:        "Desconocido",
		MsgNotFound:       "Página no encontrada",
		MsgForbidden:      "Permiso denegado",
		MsgUnauthorized:   "Se requiere autenticación",
		MsgServerError:    "Error del servidor",
		MsgUnknownModel:   "No hay administración registrada para %s.",
		MsgLoginRequired:  "Su sesión no existe o ha caducado.",
	},
	language.French: {
		MsgNull:           "Nul",
		MsgOtherFields:    "Autres champs",
		MsgDetailTitle:    "Détail de %s",
		MsgObjectNotFound: "L'objet %s avec la clé primaire %q n'existe pas.",
		MsgYes:            "Oui",
		MsgNo:             "Non",
		MsgUnknown:        "Inconnu",
		MsgNotFound:       "Page introuvable",
		MsgForbidden:      "Permission refusée",
		MsgUnauthorized:   "Authentification requise",
		MsgServerError:    "Erreur du serveur",
		MsgUnknownModel:   "Aucune administration enregistrée pour %s.",
		MsgLoginRequired:  "Votre session est absente ou a expiré.",
	},
}

func init() {
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Match returns the supported language that best fits an Accept-Language
// header value. Unparsable or empty headers yield English.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx]
}

// NewPrinter returns a printer for the given language.
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

type ctxKey struct{}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *message.Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the request printer, or an English printer.
func FromContext(ctx context.Context) *message.Printer {
	if p, ok := ctx.Value(ctxKey{}).(*message.Printer); ok {
		return p
	}
	return message.NewPrinter(Supported[0])
}

// Middleware attaches a printer matched from the request's
// Accept-Language header and sets Content-Language on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := Match(r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Language", tag.String())
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), NewPrinter(tag))))
	})
}
