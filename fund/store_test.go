package fund_test

import (
	"testing"

	"github.com/alohafunds/engine/fund"
	"github.com/stretchr/testify/assert"
)

func TestConfigPatch_FieldsWithoutApply(t *testing.T) {
	fee := money(25)
	goal := money(5000)
	soft := "Hola {name}"
	patch := fund.ConfigPatch{MonthlyFee: &fee, ResortGoalAmount: &goal, Template15: &soft}

	assert.Equal(t, []fund.ConfigField{fund.FieldMonthlyFee, fund.FieldResortGoalAmount, fund.FieldTemplate15}, patch.Fields())

	stripped := patch.Without(fund.FieldResortGoalAmount)
	assert.Equal(t, []fund.ConfigField{fund.FieldMonthlyFee, fund.FieldTemplate15}, stripped.Fields())
	assert.NotNil(t, patch.ResortGoalAmount, "Without returns a copy")

	only := patch.Only(fund.FieldResortGoalAmount)
	assert.Equal(t, []fund.ConfigField{fund.FieldResortGoalAmount}, only.Fields())

	cfg := stripped.Apply(fund.DefaultConfig())
	assert.True(t, cfg.MonthlyFee.Equal(money(25)))
	assert.True(t, cfg.ResortGoalAmount.IsZero())
	assert.Equal(t, "Hola {name}", cfg.Template15)
	assert.Equal(t, "", cfg.Template30)
}

func TestConfigPatch_Validate(t *testing.T) {
	zero := money(0)
	negative := money(-1)

	assert.ErrorIs(t, fund.ConfigPatch{MonthlyFee: &zero}.Validate(), fund.ErrValidation)
	assert.ErrorIs(t, fund.ConfigPatch{ResortGoalAmount: &negative}.Validate(), fund.ErrValidation)
	assert.NoError(t, fund.ConfigPatch{ResortGoalAmount: &zero}.Validate())
	assert.True(t, fund.ConfigPatch{}.IsEmpty())
}

func TestUnsupportedFieldsError(t *testing.T) {
	err := &fund.UnsupportedFieldsError{Fields: []fund.ConfigField{fund.FieldResortGoalAmount}}

	assert.ErrorIs(t, err, fund.ErrUnsupportedField)
	assert.Equal(t, "unsupported config fields: resort_goal_amount", err.Error())
}
