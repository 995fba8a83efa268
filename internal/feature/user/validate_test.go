package user

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return m
}

func TestNewValidator_RegistersEmailRule(t *testing.T) {
	var v *Validator
	require.NotPanics(t, func() { v = NewValidator() })
	assert.NoError(t, v.v.Var("east2@naver.com", "useremail"))
	assert.Error(t, v.v.Var("not-an-email", "useremail"))
}

func TestValidateCreate_OK(t *testing.T) {
	v := NewValidator()

	in, err := v.ValidateCreate(decode(t, `{
		"email": "east2@naver.com",
		"password": "asdok123asdc",
		"name": {"firstName": "Kim", "lastName": "East"},
		"extra": true
	}`))
	require.NoError(t, err)
	assert.Equal(t, CreateInput{
		Email: "east2@naver.com", Password: "asdok123asdc", FirstName: "Kim", LastName: "East",
	}, in)

	u := in.ToDomain()
	assert.Equal(t, "Kim", u.Name.FirstName)
	assert.Equal(t, "East", u.Name.LastName)
	assert.Empty(t, u.ID)
}

func TestValidateCreate_Rejects(t *testing.T) {
	v := NewValidator()

	cases := map[string]string{
		"missing password":  `{"email":"east2@naver.com","name":{"firstName":"Kim","lastName":"East"}}`,
		"empty password":    `{"email":"east2@naver.com","password":"","name":{"firstName":"Kim","lastName":"East"}}`,
		"numeric password":  `{"email":"east2@naver.com","password":12345,"name":{"firstName":"Kim","lastName":"East"}}`,
		"missing email":     `{"password":"pw","name":{"firstName":"Kim","lastName":"East"}}`,
		"numeric email":     `{"email":42,"password":"pw","name":{"firstName":"Kim","lastName":"East"}}`,
		"malformed email":   `{"email":"east2naver.com","password":"pw","name":{"firstName":"Kim","lastName":"East"}}`,
		"email with space":  `{"email":"east 2@naver.com","password":"pw","name":{"firstName":"Kim","lastName":"East"}}`,
		"missing name":      `{"email":"east2@naver.com","password":"pw"}`,
		"string name":       `{"email":"east2@naver.com","password":"pw","name":"Kim East"}`,
		"missing firstName": `{"email":"east2@naver.com","password":"pw","name":{"lastName":"East"}}`,
		"empty lastName":    `{"email":"east2@naver.com","password":"pw","name":{"firstName":"Kim","lastName":""}}`,
		"numeric lastName":  `{"email":"east2@naver.com","password":"pw","name":{"firstName":"Kim","lastName":7}}`,
		"empty object":      `{}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateCreate(decode(t, body))
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.Reasons)
		})
	}
}

func TestValidateCreate_CollectsAllReasons(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateCreate(decode(t, `{"email":"nope","name":{"firstName":1}}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))

	assert.Contains(t, ve.Reasons, "email is malformed")
	assert.Contains(t, ve.Reasons, "password is required")
	assert.Contains(t, ve.Reasons, "firstName must be a string")
	assert.Contains(t, ve.Reasons, "lastName is required")
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a.b+c@example.co.kr"))
	assert.True(t, ValidEmail("o'neil@localhost"))
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("user@"))
	assert.False(t, ValidEmail("user@exa_mple.com"))
	assert.False(t, ValidEmail("user@example..com"))
}

func TestParsePatch(t *testing.T) {
	p := ParsePatch(decode(t, `{"email":"x@y.z","password":"plain","name":{"firstName":"modified"}}`))
	require.NotNil(t, p.Email)
	require.NotNil(t, p.Password)
	require.NotNil(t, p.Name)
	assert.Equal(t, "x@y.z", *p.Email)
	assert.Equal(t, "plain", *p.Password)
	assert.Equal(t, "modified", p.Name.FirstName)
	assert.Empty(t, p.Name.LastName)

	assert.True(t, ParsePatch(decode(t, `{}`)).Empty())
	assert.True(t, ParsePatch(decode(t, `{"email":5,"name":"flat","password":null}`)).Empty())
}
