package application

import "testing"

func TestValidateForm(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		form  any
		field string
		want  string
	}{
		{"missing office id", LoginForm{Password: "pw"}, "office_id", "Office ID is required"},
		{"missing password", LoginForm{OfficeID: "E001"}, "password", "Password is required"},
		{"bad email", RegistrationForm{OfficeID: "E001", Password: "pw", Email: "nope"}, "email", "Enter a valid email address"},
		{"blank reason", LateRequestForm{}, "reason", "Please enter a reason"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			vErr := validateForm(tc.form)
			if vErr == nil {
				t.Fatalf("expected validation error")
			}
			if got := vErr.FieldErrors[tc.field]; got != tc.want {
				t.Fatalf("expected %q for %s, got %q", tc.want, tc.field, got)
			}
		})
	}
}

func TestValidateForm_AcceptsValidInput(t *testing.T) {
	t.Parallel()

	valid := []any{
		LoginForm{OfficeID: "E001", Password: "pw"},
		RegistrationForm{OfficeID: "E001", Password: "pw"},
		RegistrationForm{OfficeID: "E001", Password: "pw", Email: "e001@example.com"},
		LateRequestForm{Reason: "Traffic"},
		RejectionForm{},
	}
	for _, form := range valid {
		if vErr := validateForm(form); vErr != nil {
			t.Fatalf("expected %#v to be valid, got %v", form, vErr)
		}
	}
}

func TestForms_Normalized(t *testing.T) {
	t.Parallel()

	if got := (LateRequestForm{Reason: "  \t"}).normalized(); got.Reason != "" {
		t.Fatalf("expected whitespace reason to normalise to empty, got %q", got.Reason)
	}
	if got := (LoginForm{OfficeID: " E001 ", Password: " pw "}).normalized(); got.OfficeID != "E001" || got.Password != " pw " {
		t.Fatalf("expected only office id to be trimmed, got %#v", got)
	}
}
