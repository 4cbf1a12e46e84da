package util

import "testing"

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("curta"); err == nil {
		t.Fatal("expected error for short password")
	}
	if err := ValidatePassword("senha-segura-8"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString("  ", "nome"); err == nil {
		t.Fatal("expected error for blank value")
	} else if err.Error() != "nome obrigatório" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err := RequireString("Ana", "nome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCPF(t *testing.T) {
	if err := ValidateCPF("529.982.247-25"); err != nil {
		t.Fatalf("unexpected error for valid masked cpf: %v", err)
	}
	for _, cpf := range []string{"", "123", "11111111111", "52998224724"} {
		if err := ValidateCPF(cpf); err == nil {
			t.Fatalf("expected error for %q", cpf)
		}
	}
}
