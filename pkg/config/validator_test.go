package config

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatorTestConfig struct {
	Host    string `validate:"required"`
	Port    int    `validate:"min=1,max=65535"`
	Level   string `validate:"oneof=debug info warn error"`
	Stamina int64  `validate:"gt=0"`
}

func TestValidator_Validate(t *testing.T) {
	valid := validatorTestConfig{Host: "localhost", Port: 5432, Level: "info", Stamina: 100}

	tests := []struct {
		name    string
		mutate  func(c *validatorTestConfig)
		wantMsg string
	}{
		{name: "valid"},
		{name: "missing host", mutate: func(c *validatorTestConfig) { c.Host = "" }, wantMsg: "is required"},
		{name: "port out of range", mutate: func(c *validatorTestConfig) { c.Port = 70000 }, wantMsg: "at most 65535"},
		{name: "bad level", mutate: func(c *validatorTestConfig) { c.Level = "trace" }, wantMsg: "must be one of"},
		{name: "zero stamina", mutate: func(c *validatorTestConfig) { c.Stamina = 0 }, wantMsg: "greater than 0"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			err := v.Validate(&cfg)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidator_Nil(t *testing.T) {
	assert.ErrorIs(t, NewValidator().Validate(nil), ErrNilConfig)
}

func TestValidator_RegisterValidation(t *testing.T) {
	type cfg struct {
		Material string `validate:"material"`
	}

	v := NewValidator()
	require.NoError(t, v.RegisterValidation("material", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) > 0
	}))

	assert.NoError(t, v.Validate(&cfg{Material: "food_common"}))
	err := v.Validate(&cfg{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation 'material'")
}
