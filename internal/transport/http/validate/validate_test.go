package validate

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type signup struct {
	Name     string `json:"name" binding:"required,min=2,max=50,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpassword"`
	Phone    string `json:"phone" binding:"required,phone"`
}

func TestRulesAndMessages(t *testing.T) {
	Register()
	ok := signup{Name: "Ann Lee", Email: "ann@example.com", Password: "Secret1", Phone: "+15550100"}
	if err := binding.Validator.ValidateStruct(&ok); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	bad := signup{Name: "Ann2", Email: "nope", Password: "secret", Phone: "0123"}
	err := binding.Validator.ValidateStruct(&bad)
	fields, isValidation := Fields(err)
	if !isValidation {
		t.Fatalf("not a validation error: %v", err)
	}
	for _, k := range []string{"name", "email", "password", "phone"} {
		if fields[k] == "" {
			t.Errorf("no message for %s: %v", k, fields)
		}
	}
}

func TestInstallRejectsBadRule(t *testing.T) {
	always := func(validator.FieldLevel) bool { return true }
	if err := install(validator.New(), map[string]validator.Func{"": always}); err == nil {
		t.Fatal("empty tag accepted")
	}
	if err := install(validator.New(), map[string]validator.Func{"always": always}); err != nil {
		t.Fatalf("install: %v", err)
	}
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{"Secret1": true, "secret1": false, "SECRET1": false, "Secret": false, "Se1": false}
	for pw, want := range cases {
		if StrongPassword(pw) != want {
			t.Errorf("StrongPassword(%q) = %v", pw, !want)
		}
	}
}
