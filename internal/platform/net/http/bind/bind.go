// Package bind provides JSON and query binding with validation for handlers
package bind

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/goccy/go-json"
)

// Platforms are the values accepted by the platform tag
var Platforms = []string{"hackernews", "news", "rss"}

var termPattern = regexp.MustCompile(`^[a-z][a-z0-9+#.\-]{1,63}$`)

// ValidatorSvc holds a singleton validator and translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce    sync.Once
	vSvc     *ValidatorSvc
	jsonMore = func(dec *json.Decoder) bool { return dec.More() } // seam
)

// Get returns the validator singleton, initializing on first use
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")

		_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			return IsPlatform(fl.Field().String())
		})
		registerShort(v, trans, "platform", "{0} must be one of "+strings.Join(Platforms, ", "))

		_ = v.RegisterValidation("term", func(fl validator.FieldLevel) bool {
			return termPattern.MatchString(fl.Field().String())
		})
		registerShort(v, trans, "term", "{0} must be a lowercase keyword")

		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

// IsPlatform reports whether s names a known content platform
func IsPlatform(s string) bool {
	for _, p := range Platforms {
		if s == p {
			return true
		}
	}
	return false
}

// JSONOptions controls parsing behavior
type JSONOptions struct {
	MaxBytes        int64 // default 1MB
	DisallowUnknown bool  // default true
	AllowEmptyBody  bool  // default false
}

func defaultJSONOptions() JSONOptions {
	return JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}
}

// ParseJSON decodes JSON into T, validates it, and maps failures to project errors
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := defaultJSONOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Error().Err(err).Msg("failed to close request body")
		}
	}()

	var reader io.Reader = r.Body
	buf := make([]byte, 1)
	n, _ := r.Body.Read(buf)
	if n == 0 {
		if o.AllowEmptyBody {
			return zero, validate(zero)
		}
		return zero, perr.JSONErrf("empty body")
	}
	reader = io.MultiReader(bytes.NewReader(buf[:n]), r.Body)
	if o.MaxBytes > 0 {
		reader = io.LimitReader(reader, o.MaxBytes)
	}

	dec := json.NewDecoder(reader)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}

	var dst T
	if err := dec.Decode(&dst); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

func validate(v any) error {
	if reflect.Indirect(reflect.ValueOf(v)).Kind() != reflect.Struct {
		return nil
	}
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.JSONErrf("validation error")
	}
	field, msg := ValidationFieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// ValidationFieldAndMessage returns the first field and translated message
func ValidationFieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(Get().Translator)
	}
	return "", err.Error()
}

// Query helpers read a single query parameter, apply a default when it is absent
// and check the value against a validator tag such as "min=1,max=100"

// QueryInt reads an integer query parameter
func QueryInt(r *http.Request, name string, def int, tag string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, perr.WithField(perr.InvalidArgf("%s must be an integer", name), name)
	}
	return v, checkVar(name, v, tag)
}

// QueryFloat reads a float query parameter
func QueryFloat(r *http.Request, name string, def float64, tag string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, perr.WithField(perr.InvalidArgf("%s must be a number", name), name)
	}
	return v, checkVar(name, v, tag)
}

// QueryFloatOpt reads a float query parameter, nil when absent
func QueryFloatOpt(r *http.Request, name, tag string) (*float64, error) {
	if strings.TrimSpace(r.URL.Query().Get(name)) == "" {
		return nil, nil
	}
	v, err := QueryFloat(r, name, 0, tag)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// QueryString reads a trimmed string query parameter
func QueryString(r *http.Request, name, def, tag string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return raw, checkVar(name, raw, tag)
}

func checkVar(name string, v any, tag string) error {
	if tag == "" {
		return nil
	}
	err := Get().Validator.Var(v, tag)
	if err == nil {
		return nil
	}
	_, msg := ValidationFieldAndMessage(err)
	// Var leaves the field name empty so translations start with a blank
	msg = strings.TrimSpace(name + " " + strings.TrimSpace(msg))
	return perr.WithField(perr.InvalidArgf("%s", msg), name)
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error { return ut.Add(tag, text, true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
