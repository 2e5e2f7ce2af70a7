// Package translate localizes the user visible messages of wordvm.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	tag     language.Tag
	printer *message.Printer
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("wordvm: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag = message.MatchLanguage(locales...)
	printer = message.NewPrinter(tag)
}

// Tag returns the language messages are rendered in.
func Tag() language.Tag {
	return tag
}

// From translates an en-US Sprintf() format and its arguments into a string
// for the current locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
