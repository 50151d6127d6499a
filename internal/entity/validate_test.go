package entity

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"太短", "Short Name", true},
		{"刚好二十个字符", strings.Repeat("a", 20), false},
		{"刚好六十个字符", strings.Repeat("a", 60), false},
		{"超过六十个字符", strings.Repeat("a", 61), true},
		{"空字符串", "", true},
		{"首尾空白不计入长度", "  " + strings.Repeat("a", 20) + "  ", false},
		{"多字节字符按字符计数", strings.Repeat("店", 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateName(tt.input)
			if tt.wantErr && len(errs) == 0 {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && len(errs) > 0 {
				t.Fatalf("unexpected validation errors: %v", errs)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"正常地址", "user@example.com", false},
		{"缺少@", "userexample.com", true},
		{"缺少域名点", "user@example", true},
		{"包含空格", "us er@example.com", true},
		{"空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateEmail(tt.input)
			if tt.wantErr && len(errs) == 0 {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && len(errs) > 0 {
				t.Fatalf("unexpected validation errors: %v", errs)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
	}{
		{"合规密码", "Abcdef1!", 0},
		{"太短", "Ab1!", 1},
		{"太长", "Abcdefghijklmn1!x", 1},
		{"缺少大写", "abcdef1!", 1},
		{"缺少符号", "Abcdefg1", 1},
		{"同时缺少大写和符号", "abcdefg1", 2},
		{"全部违规", "ab", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidatePassword(tt.input)
			if len(errs) != tt.wantCount {
				t.Fatalf("expected %d errors, got %d: %v", tt.wantCount, len(errs), errs)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	if errs := ValidateAddress(strings.Repeat("a", 400)); len(errs) > 0 {
		t.Fatalf("expected 400 character address to pass, got %v", errs)
	}
	if errs := ValidateAddress(strings.Repeat("a", 401)); len(errs) == 0 {
		t.Fatal("expected error for 401 character address")
	}
	if errs := ValidateAddress(""); len(errs) > 0 {
		t.Fatalf("expected empty address to pass, got %v", errs)
	}
}

func TestValidateUserInputCollectsAllViolations(t *testing.T) {
	errs := ValidateUserInput("short", "not-an-email", "weak", "")
	if len(errs) < 4 {
		t.Fatalf("expected every field violation to be reported, got %d: %v", len(errs), errs)
	}

	fields := map[string]bool{}
	for _, fe := range errs {
		fields[fe.Field] = true
	}
	for _, field := range []string{"name", "email", "password"} {
		if !fields[field] {
			t.Fatalf("expected violation for field %s, got %v", field, errs)
		}
	}
}

func TestValidateStoreInput(t *testing.T) {
	if errs := ValidateStoreInput(strings.Repeat("a", 30), "store@example.com", "1 Main Street"); len(errs) > 0 {
		t.Fatalf("expected valid store input to pass, got %v", errs)
	}
	if errs := ValidateStoreInput("x", "bad", strings.Repeat("a", 500)); len(errs) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(errs), errs)
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{UserRoleAdmin, UserRoleUser, UserRoleStoreOwner} {
		if !IsValidRole(role) {
			t.Fatalf("expected role %s to be valid", role)
		}
	}
	if IsValidRole("superuser") {
		t.Fatal("expected unknown role to be invalid")
	}
	if IsValidRole("") {
		t.Fatal("expected empty role to be invalid")
	}
}
