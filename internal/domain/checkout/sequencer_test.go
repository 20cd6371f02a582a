package checkout

import (
	"testing"

	"autoparts/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullShipping() *ShippingInfo {
	return &ShippingInfo{
		FirstName:  "Jane",
		LastName:   "Doe",
		Email:      "jane@example.com",
		Phone:      "555-0100",
		Address:    "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
	}
}

func boolPtr(b bool) *bool { return &b }

func TestNext_ShippingMissingFieldStays(t *testing.T) {
	v := validator.New()
	s := NewState()
	sh := fullShipping()
	sh.City = ""
	require.NoError(t, s.UpdateData(Draft{Shipping: sh}))

	advanced, err := s.Next(v)

	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, StepShipping, s.Step)
	assert.Contains(t, s.Errors, "shipping.city")
}

func TestNext_ShippingBadEmail(t *testing.T) {
	v := validator.New()
	s := NewState()
	sh := fullShipping()
	sh.Email = "jane@example"
	require.NoError(t, s.UpdateData(Draft{Shipping: sh}))

	advanced, err := s.Next(v)

	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, "invalid email", s.Errors["shipping.email"])
}

func TestNext_ShippingNoDataReportsEveryField(t *testing.T) {
	s := NewState()

	advanced, err := s.Next(validator.New())

	require.NoError(t, err)
	assert.False(t, advanced)
	for _, f := range []string{"first_name", "last_name", "email", "phone", "address", "city", "state", "postal_code"} {
		assert.Contains(t, s.Errors, "shipping."+f)
	}
}

func TestNext_CompleteShippingAdvancesOneStep(t *testing.T) {
	s := NewState()
	require.NoError(t, s.UpdateData(Draft{Shipping: fullShipping()}))

	advanced, err := s.Next(validator.New())

	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, StepPayment, s.Step)
	assert.Empty(t, s.Errors)
}

func TestNext_PaymentBillingOnlyCheckedWhenSeparate(t *testing.T) {
	v := validator.New()

	same := &State{Step: StepPayment, Data: Draft{Shipping: fullShipping()}}
	advanced, err := same.Next(v)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, StepReview, same.Step)

	separate := &State{Step: StepPayment, Data: Draft{
		Shipping: fullShipping(),
		Billing:  &BillingInfo{SameAsShipping: boolPtr(false), BillingAddress: BillingAddress{FirstName: "Jane"}},
	}}
	advanced, err = separate.Next(v)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, StepPayment, separate.Step)
	assert.Contains(t, separate.Errors, "billing.last_name")
	assert.NotContains(t, separate.Errors, "billing.email")
	assert.NotContains(t, separate.Errors, "billing.first_name")
}

func TestNext_ReviewCannotAdvance(t *testing.T) {
	s := &State{Step: StepReview}

	advanced, err := s.Next(validator.New())

	assert.ErrorIs(t, err, ErrCannotAdvance)
	assert.False(t, advanced)
	assert.Equal(t, StepReview, s.Step)
}

func TestPrev(t *testing.T) {
	assert.ErrorIs(t, NewState().Prev(), ErrCannotGoBack)
	assert.ErrorIs(t, (&State{Step: StepSuccess}).Prev(), ErrCannotGoBack)

	s := &State{Step: StepReview}
	require.NoError(t, s.Prev())
	assert.Equal(t, StepPayment, s.Step)
}

func TestUpdateData_ShallowMerge(t *testing.T) {
	s := NewState()
	require.NoError(t, s.UpdateData(Draft{Shipping: fullShipping()}))
	require.NoError(t, s.UpdateData(Draft{Payment: &PaymentInfo{Method: "cod"}}))

	assert.Equal(t, "Jane", s.Data.Shipping.FirstName)
	assert.Equal(t, "cod", string(s.Data.Payment.Method))

	require.NoError(t, s.UpdateData(Draft{Shipping: &ShippingInfo{FirstName: "Ann"}}))
	assert.Equal(t, "Ann", s.Data.Shipping.FirstName)
	assert.Empty(t, s.Data.Shipping.City)
}

func TestSubmitGuards(t *testing.T) {
	assert.ErrorIs(t, NewState().CanSubmit(true), ErrNotReviewing)

	s := &State{Step: StepReview}
	assert.ErrorIs(t, s.CanSubmit(false), ErrTermsRequired)
	assert.NoError(t, s.CanSubmit(true))

	s.Fail("out of stock", "")
	assert.Equal(t, StepReview, s.Step)
	assert.Empty(t, s.OrderNumber)

	s.Fail("payment provider down", "ORD-ABC-123456")
	assert.Equal(t, StepReview, s.Step)
	assert.Equal(t, "payment provider down", s.LastError)
	assert.Equal(t, "ORD-ABC-123456", s.OrderNumber)

	s.Complete("ORD-ABC-123456", "https://pay.example/cs_1")
	assert.Equal(t, StepSuccess, s.Step)
	assert.Empty(t, s.LastError)
	assert.ErrorIs(t, s.UpdateData(Draft{}), ErrAlreadyPlaced)
}
