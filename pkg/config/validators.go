package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})
	return v
}

// Validate reports every missing required value in one error, or the first
// invalid value otherwise.
func (cfg *Config) Validate() error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return errors.WithStack(err)
	}

	missing := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Tag() == "required" {
			missing = append(missing, describeKey(fe.Field()))
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	fe := errs[0]
	return errors.Errorf("invalid config value for %s: %v doesn't satisfy %s", describeKey(fe.Field()), fe.Value(), formatTag(fe))
}

// describeKey names both ways of setting a key, e.g.
// "LINKSHELF_INDEX_PATH (index_path)".
func describeKey(key string) string {
	return fmt.Sprintf("%s%s (%s)", EnvPrefix, strings.ToUpper(key), key)
}

func formatTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
