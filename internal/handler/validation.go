package handler

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"backoffice/internal/model"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator.
// Field errors are reported under their json (or form) names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseFamily(strings.TrimSpace(fl.Field().String()))
			return ok
		})
	})
}
