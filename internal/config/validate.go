package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/rotisserie/eris"
)

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, eris.Wrap(err, "config: register translations")
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate, trans, nil
}

// Validate checks the struct constraints and the fields the given command
// needs. Valid commands: ingest, geocode, report, export, serve.
func (c *Config) Validate(command string) error {
	validate, trans, err := newValidator()
	if err != nil {
		return err
	}

	var errs []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return eris.Wrap(err, "config: validate")
		}
		for _, fe := range verrs {
			errs = append(errs, translate(fe, trans))
		}
	}

	switch command {
	case "ingest":
		if c.Ingest.OCR.Provider == "mistral" && c.Ingest.OCR.MistralKey == "" {
			errs = append(errs, "ingest.ocr.mistral_api_key is required")
		}
	case "geocode":
		if c.AMap.Key == "" {
			errs = append(errs, "amap.key is required (set KGMAP_AMAP_KEY or AMAP_API_KEY)")
		}
	case "report", "export", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", command)
	}

	if command != "ingest" && c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for the postgres driver")
	}
	if command != "ingest" && c.Store.Driver != "postgres" && c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// translate renders a field error using the dotted config key, e.g.
// "server.port must be greater than 0".
func translate(fe validator.FieldError, trans ut.Translator) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	msg := fe.Translate(trans)
	if strings.HasPrefix(msg, fe.Field()) {
		return key + strings.TrimPrefix(msg, fe.Field())
	}
	return key + ": " + msg
}
