// Package validate 注册业务相关的 gin 绑定校验标签。
package validate

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// Register 向 gin 默认校验引擎注册自定义标签：
//   - month_key: YYYY-MM 月份键
//   - hhmm: HH:MM 时刻
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("gin 校验引擎不是 validator/v10")
	}
	return RegisterOn(v)
}

// RegisterOn 在指定的 validator 实例上注册自定义标签
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("month_key", func(fl validator.FieldLevel) bool {
		return period.ValidMonth(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return period.ValidClock(fl.Field().String())
	})
}
